// Package config loads the case files that describe a run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/modifier"
)

// EnvPrefix prefixes the environment variables that override the run
// section.
const EnvPrefix = "DYNMESH_"

// Case is a complete run description.
type Case struct {
	Mesh      MeshConfig       `yaml:"mesh"`
	Motion    MotionConfig     `yaml:"motion"`
	Run       RunConfig        `yaml:"run"`
	Modifiers []ModifierConfig `yaml:"modifiers" validate:"dive"`
}

// MeshConfig describes a block mesh.
type MeshConfig struct {
	Cells      [3]int            `yaml:"cells" validate:"dive,gt=0"`
	Size       [3]float64        `yaml:"size" validate:"dive,gt=0"`
	Origin     [3]float64        `yaml:"origin"`
	FaceZones  []FaceZoneConfig  `yaml:"faceZones" validate:"dive"`
	PointZones []PointZoneConfig `yaml:"pointZones" validate:"dive"`
}

// FaceZoneConfig places a face zone on a plane of constant z. Side tells
// which side of the plane the master cells are on.
type FaceZoneConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Plane int    `yaml:"plane" validate:"gte=0"`
	Side  string `yaml:"side" validate:"omitempty,oneof=above below"`
}

// MasterAbove tells if the master cells are above the plane.
func (z FaceZoneConfig) MasterAbove() bool {
	return z.Side != "below"
}

// PointZoneConfig holds the points inside a box.
type PointZoneConfig struct {
	Name string     `yaml:"name" validate:"required"`
	Min  [3]float64 `yaml:"min"`
	Max  [3]float64 `yaml:"max"`
}

// MotionConfig moves the points of a face zone along z. The displacement at
// time t is velocity*t + amplitude*sin(2*pi*t/period).
type MotionConfig struct {
	Zone      string  `yaml:"zone"`
	Velocity  float64 `yaml:"velocity"`
	Amplitude float64 `yaml:"amplitude"`
	Period    float64 `yaml:"period" validate:"required_with=Amplitude,gte=0"`
}

// RunConfig controls time stepping and the outputs of a run.
type RunConfig struct {
	DeltaT      float64 `yaml:"deltaT" env:"DELTA_T" validate:"gt=0"`
	EndTime     float64 `yaml:"endTime" env:"END_TIME" validate:"gtefield=DeltaT"`
	Debug       bool    `yaml:"debug" env:"DEBUG"`
	Record      string  `yaml:"record" env:"RECORD"`
	Monitor     bool    `yaml:"monitor" env:"MONITOR"`
	MonitorPort int     `yaml:"monitorPort" env:"MONITOR_PORT" validate:"gte=0,lte=65535"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(meshStructLevel, MeshConfig{})
	v.RegisterStructValidation(caseStructLevel, Case{})

	return v
}

func meshStructLevel(sl validator.StructLevel) {
	m := sl.Current().Interface().(MeshConfig)

	seen := make(map[string]bool)
	for _, z := range m.FaceZones {
		if z.Plane > m.Cells[2] {
			sl.ReportError(z.Plane, "Plane", "Plane", "plane", z.Name)
		}

		if seen[z.Name] {
			sl.ReportError(z.Name, "FaceZones", "FaceZones", "unique", z.Name)
		}

		seen[z.Name] = true
	}
}

func caseStructLevel(sl validator.StructLevel) {
	c := sl.Current().Interface().(Case)

	if c.Motion.Zone != "" && c.Mesh.findFaceZone(c.Motion.Zone) < 0 {
		sl.ReportError(c.Motion.Zone, "Zone", "Zone", "facezone", "")
	}

	seen := make(map[string]bool)
	for _, m := range c.Modifiers {
		if seen[m.Name] {
			sl.ReportError(m.Name, "Modifiers", "Modifiers", "unique", m.Name)
		}

		seen[m.Name] = true
	}
}

func (m MeshConfig) findFaceZone(name string) int {
	for i, z := range m.FaceZones {
		if z.Name == name {
			return i
		}
	}

	return -1
}

// Default returns a case with a single-cell column and unit time steps.
func Default() *Case {
	return &Case{
		Mesh: MeshConfig{
			Cells: [3]int{1, 1, 10},
			Size:  [3]float64{1, 1, 1},
		},
		Run: RunConfig{
			DeltaT:  1,
			EndTime: 1,
		},
	}
}

// Parse reads a case from YAML over the defaults and validates it.
func Parse(data []byte) (*Case, error) {
	c := Default()

	err := yaml.Unmarshal(data, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	err = c.Validate()
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Load reads a case file. The run section is then overridden by the
// DYNMESH_ variables of the environment and of the given .env files. A
// missing .env file is ignored.
func Load(path string, envFiles ...string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	c := Default()

	err = yaml.Unmarshal(data, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", modifier.ErrConfig, path, err)
	}

	err = loadEnvFiles(envFiles)
	if err != nil {
		return nil, err
	}

	err = c.ApplyEnv()
	if err != nil {
		return nil, err
	}

	err = c.Validate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

func loadEnvFiles(files []string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return fmt.Errorf("%w: %s: %w", modifier.ErrConfig, f, err)
		}
	}

	return nil
}

// ApplyEnv overrides the run section with the DYNMESH_ variables of the
// environment.
func (c *Case) ApplyEnv() error {
	err := env.ParseWithOptions(&c.Run, env.Options{Prefix: EnvPrefix})
	if err != nil {
		return fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	return nil
}

// Validate checks the case.
func (c *Case) Validate() error {
	err := validate.Struct(c)
	if err != nil {
		return fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	return nil
}

// MotionZone returns the face zone the motion moves, the first one when the
// motion names none.
func (c *Case) MotionZone() string {
	if c.Motion.Zone != "" || len(c.Mesh.FaceZones) == 0 {
		return c.Motion.Zone
	}

	return c.Mesh.FaceZones[0].Name
}

// Builder returns a block mesh builder for the mesh section.
func (m MeshConfig) Builder() mesh.BlockBuilder {
	b := mesh.MakeBlockBuilder().
		WithCells(m.Cells[0], m.Cells[1], m.Cells[2]).
		WithSize(m.Size[0], m.Size[1], m.Size[2]).
		WithOrigin(r3.Vec{X: m.Origin[0], Y: m.Origin[1], Z: m.Origin[2]})

	for _, z := range m.FaceZones {
		b = b.WithFaceZone(z.Name, z.Plane, z.MasterAbove())
	}

	for _, z := range m.PointZones {
		b = b.WithPointZone(z.Name, z.contains)
	}

	return b
}

const boxTolerance = 1e-9

func (z PointZoneConfig) contains(p r3.Vec) bool {
	c := [3]float64{p.X, p.Y, p.Z}
	for i := range c {
		if c[i] < z.Min[i]-boxTolerance || c[i] > z.Max[i]+boxTolerance {
			return false
		}
	}

	return true
}
