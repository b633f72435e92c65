package simulation

import (
	"fmt"
	"log"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/modifier"
	"github.com/sarchlab/dynmesh/monitoring"
	"github.com/sarchlab/dynmesh/sim"
	"github.com/sarchlab/dynmesh/topochange"
)

// Motion is the displacement of the piston along z over time.
type Motion struct {
	Velocity  float64
	Amplitude float64
	Period    float64
}

// Displacement returns how far the piston moved from its initial position
// at time t.
func (m Motion) Displacement(t float64) float64 {
	d := m.Velocity * t
	if m.Period > 0 {
		d += m.Amplitude * math.Sin(2*math.Pi*t/m.Period)
	}

	return d
}

// A Piston moves the points of a face zone every time step and lets the
// modifiers change the mesh after the motion. It tells the modifiers the
// index of the step being solved.
//
// The Piston is locked while it handles a step.
type Piston struct {
	sync.Mutex

	engine   sim.Engine
	mesh     *mesh.PolyMesh
	executor *topochange.Executor
	registry *modifier.Registry
	logger   *log.Logger
	progress *monitoring.ProgressBar

	zone     string
	motion   Motion
	deltaT   float64
	nSteps   int
	step     int
	position float64
}

// TimeIndex returns the index of the step being solved.
func (p *Piston) TimeIndex() int {
	return p.step
}

// CurrentTime returns the time of the engine.
func (p *Piston) CurrentTime() sim.VTimeInSec {
	return p.engine.CurrentTime()
}

// Position returns the displacement applied to the zone points so far.
func (p *Piston) Position() float64 {
	p.Lock()
	defer p.Unlock()

	return p.position
}

// Step returns the index of the latest step.
func (p *Piston) Step() int {
	p.Lock()
	defer p.Unlock()

	return p.step
}

// NumSteps returns the number of steps of the run.
func (p *Piston) NumSteps() int {
	return p.nSteps
}

func (p *Piston) stepTime(step int) sim.VTimeInSec {
	return sim.VTimeInSec(float64(step) * p.deltaT)
}

// Start schedules the first step.
func (p *Piston) Start() {
	if p.nSteps < 1 {
		return
	}

	p.engine.Schedule(sim.MakeStepEvent(p.stepTime(1), p, 1))
}

// Handle moves the piston and updates the mesh for the step of the event.
func (p *Piston) Handle(e sim.Event) error {
	evt, ok := e.(sim.StepEvent)
	if !ok {
		log.Panicf("cannot handle event of type %T", e)
	}

	p.Lock()
	defer p.Unlock()

	p.step = evt.Index

	err := p.move(float64(evt.Time()))
	if err != nil {
		return fmt.Errorf("step %d: %w", p.step, err)
	}

	mpm, err := p.registry.Update(p.step, evt.Time(), p.executor)
	if err != nil {
		return fmt.Errorf("step %d: %w", p.step, err)
	}

	if mpm != nil {
		p.logger.Printf("step %d: mesh changed, %d cells", p.step, mpm.NCells())
	}

	if p.progress != nil {
		p.progress.IncrementFinished(1)
	}

	if p.step < p.nSteps {
		p.engine.Schedule(
			sim.MakeStepEvent(p.stepTime(p.step+1), p, p.step+1))
	}

	return nil
}

func (p *Piston) move(t float64) error {
	if p.zone == "" {
		return nil
	}

	zi := p.mesh.FindFaceZone(p.zone)
	if zi < 0 {
		return fmt.Errorf("%w: face zone %s not found", modifier.ErrConfig,
			p.zone)
	}

	d := p.motion.Displacement(t) - p.position
	zp := mesh.NewZonePatch(p.mesh, p.mesh.FaceZones()[zi])
	p.mesh.MovePoints(zp.MeshPoints, r3.Vec{Z: d})
	p.position += d

	return nil
}
