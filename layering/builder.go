package layering

import (
	"fmt"
	"log"

	"github.com/sarchlab/dynmesh/dictionary"
	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/modifier"
	"github.com/sarchlab/dynmesh/sim"
)

func init() {
	modifier.MustRegister(TypeName, newFromDict)
}

// Builder can build layering modifiers.
type Builder struct {
	mesh   mesh.Mesh
	time   sim.TimeIndexer
	logger *log.Logger

	faceZone        string
	pinnedPointZone string
	minThickness    float64
	maxThickness    float64
	oldThickness    float64
	active          bool
	debug           bool
}

// MakeBuilder returns a Builder with an uninitialized layer thickness.
func MakeBuilder() Builder {
	return Builder{
		oldThickness: -1,
		active:       true,
		logger:       log.Default(),
	}
}

// WithMesh sets the mesh the modifier watches.
func (b Builder) WithMesh(m mesh.Mesh) Builder {
	b.mesh = m
	return b
}

// WithTimeIndexer sets the time step counter used by ChangeTopology and
// SetRefinement.
func (b Builder) WithTimeIndexer(t sim.TimeIndexer) Builder {
	b.time = t
	return b
}

// WithLogger sets the logger debug output goes to.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithFaceZone sets the face zone the layer is attached to.
func (b Builder) WithFaceZone(name string) Builder {
	b.faceZone = name
	return b
}

// WithPinnedPointZone sets a point zone whose points must never be
// collapsed.
func (b Builder) WithPinnedPointZone(name string) Builder {
	b.pinnedPointZone = name
	return b
}

// WithMinLayerThickness sets the thickness below which the layer is removed.
func (b Builder) WithMinLayerThickness(t float64) Builder {
	b.minThickness = t
	return b
}

// WithMaxLayerThickness sets the thickness above which a layer is added.
func (b Builder) WithMaxLayerThickness(t float64) Builder {
	b.maxThickness = t
	return b
}

// WithOldLayerThickness restores the thickness remembered from a previous
// run.
func (b Builder) WithOldLayerThickness(t float64) Builder {
	b.oldThickness = t
	return b
}

// WithActive sets whether the modifier starts active.
func (b Builder) WithActive(active bool) Builder {
	b.active = active
	return b
}

// WithDebug turns on decision logging.
func (b Builder) WithDebug(debug bool) Builder {
	b.debug = debug
	return b
}

// WithRecord restores the zone and thicknesses of a persisted record.
func (b Builder) WithRecord(r Record) Builder {
	b.faceZone = r.FaceZoneName
	b.minThickness = r.MinLayerThickness
	b.oldThickness = r.OldLayerThickness
	b.maxThickness = r.MaxLayerThickness

	return b
}

func (b Builder) parametersMustBeValid(name string) error {
	if name == "" {
		return fmt.Errorf("%w: modifier without a name", modifier.ErrConfig)
	}

	if b.mesh == nil {
		return fmt.Errorf("%w: %s: no mesh", modifier.ErrConfig, name)
	}

	if !(b.minThickness >= mesh.VSmall) ||
		!(b.maxThickness >= b.minThickness) {
		return fmt.Errorf("%w: %s: incorrect layer thickness definition, "+
			"min %g max %g", modifier.ErrConfig, name,
			b.minThickness, b.maxThickness)
	}

	if b.pinnedPointZone != "" && b.mesh.FindPointZone(b.pinnedPointZone) < 0 {
		return fmt.Errorf("%w: %s: point zone %s not found",
			modifier.ErrConfig, name, b.pinnedPointZone)
	}

	return nil
}

// Build creates a modifier with the given name.
func (b Builder) Build(name string) (*Comp, error) {
	err := b.parametersMustBeValid(name)
	if err != nil {
		return nil, err
	}

	c := &Comp{
		HookableBase:    sim.NewHookableBase(),
		name:            name,
		active:          b.active,
		debug:           b.debug,
		logger:          b.logger,
		mesh:            b.mesh,
		time:            b.time,
		zone:            zoneBinding{name: b.faceZone},
		pinnedPointZone: b.pinnedPointZone,
		minThickness:    b.minThickness,
		maxThickness:    b.maxThickness,
		oldThickness:    b.oldThickness,
	}

	if c.logger == nil {
		c.logger = log.Default()
	}

	err = c.zone.resolve(b.mesh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	c.logf("attached to face zone %s (%d)", c.zone.name, c.zone.index)

	return c, nil
}

// NewFromDict creates a modifier from its keyword dictionary.
func NewFromDict(d *dictionary.Dict, env modifier.Env) (*Comp, error) {
	b := MakeBuilder().
		WithMesh(env.Mesh).
		WithTimeIndexer(env.Time).
		WithLogger(env.Logger)

	zone, err := d.Word("faceZoneName")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	minT, err := d.Float("minLayerThickness")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	maxT, err := d.Float("maxLayerThickness")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	oldT, err := d.FloatOr("oldLayerThickness", -1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	active, err := d.BoolOr("active", true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	debug, err := d.BoolOr("debug", false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", modifier.ErrConfig, err)
	}

	pinned, _ := d.Lookup("pinnedPointZone")

	return b.
		WithFaceZone(zone).
		WithMinLayerThickness(minT).
		WithMaxLayerThickness(maxT).
		WithOldLayerThickness(oldT).
		WithActive(active).
		WithDebug(debug).
		WithPinnedPointZone(pinned).
		Build(d.Name())
}

func newFromDict(d *dictionary.Dict, env modifier.Env) (modifier.Modifier, error) {
	c, err := NewFromDict(d, env)
	if err != nil {
		return nil, err
	}

	return c, nil
}
