package modifier

import (
	"fmt"
	"log"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/sim"
	"github.com/sarchlab/dynmesh/topochange"
)

// HookPosMeshChanged marks a topology change carried out by the registry.
// The hook item is the *topochange.MapPolyMesh.
var HookPosMeshChanged = &sim.HookPos{Name: "MeshChanged"}

type phase int

const (
	phaseIdle phase = iota
	phaseEvaluated
	phaseApplied
)

// A Registry owns the modifiers of a mesh and runs them in two phases: every
// active modifier evaluates, then every active modifier records its change
// into one shared transaction.
type Registry struct {
	*sim.HookableBase

	modifiers []Modifier
	byName    map[string]Modifier

	phase   phase
	step    int
	pending bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		HookableBase: sim.NewHookableBase(),
		byName:       make(map[string]Modifier),
	}
}

// Add registers a modifier. Names must be unique.
func (r *Registry) Add(m Modifier) {
	if _, ok := r.byName[m.Name()]; ok {
		log.Panicf("modifier %s registered twice", m.Name())
	}

	r.modifiers = append(r.modifiers, m)
	r.byName[m.Name()] = m
}

// Modifiers returns the registered modifiers in order.
func (r *Registry) Modifiers() []Modifier {
	return r.modifiers
}

// Find returns the named modifier, or nil.
func (r *Registry) Find(name string) Modifier {
	return r.byName[name]
}

// EvaluateAll lets every active modifier evaluate the step and tells if any
// of them wants to change the mesh.
func (r *Registry) EvaluateAll(step int) (bool, error) {
	if r.phase == phaseApplied {
		return false, fmt.Errorf("%w: step %d evaluated before the "+
			"change of step %d was announced", ErrPhase, step, r.step)
	}

	pending := false

	for _, m := range r.modifiers {
		if !m.Active() {
			continue
		}

		changing, err := m.Evaluate(step)
		if err != nil {
			r.phase = phaseIdle
			return false, fmt.Errorf("modifier %s: %w", m.Name(), err)
		}

		pending = pending || changing
	}

	r.phase = phaseEvaluated
	r.step = step
	r.pending = pending

	return pending, nil
}

// ApplyAll lets every active modifier record its change for the step. It
// must follow EvaluateAll of the same step.
func (r *Registry) ApplyAll(tx *topochange.Transaction, step int) error {
	if r.phase != phaseEvaluated || r.step != step {
		return fmt.Errorf("%w: step %d applied without being evaluated",
			ErrPhase, step)
	}

	for _, m := range r.modifiers {
		if !m.Active() {
			continue
		}

		err := m.Mutate(tx, step)
		if err != nil {
			r.phase = phaseIdle
			return fmt.Errorf("modifier %s: %w", m.Name(), err)
		}
	}

	r.phase = phaseApplied

	return nil
}

// TopologyChanged tells every modifier, active or not, that the mesh
// topology changed.
func (r *Registry) TopologyChanged(m mesh.Mesh) {
	for _, mod := range r.modifiers {
		mod.TopologyChanged(m)
	}

	r.phase = phaseIdle
}

// Update runs both phases for a step and executes the resulting transaction.
// It returns nil when no modifier changed the mesh.
func (r *Registry) Update(
	step int,
	now sim.VTimeInSec,
	ex *topochange.Executor,
) (*topochange.MapPolyMesh, error) {
	pending, err := r.EvaluateAll(step)
	if err != nil {
		return nil, err
	}

	if !pending {
		return nil, nil
	}

	tx := topochange.NewTransaction(ex.Mesh())

	err = r.ApplyAll(tx, step)
	if err != nil {
		return nil, err
	}

	if tx.Empty() {
		r.phase = phaseIdle
		return nil, nil
	}

	mpm, err := ex.Execute(tx)
	if err != nil {
		r.phase = phaseIdle
		return nil, fmt.Errorf("%w: %w", ErrApply, err)
	}

	r.TopologyChanged(ex.Mesh())

	r.InvokeHook(sim.HookCtx{
		Domain: r,
		Now:    now,
		Pos:    HookPosMeshChanged,
		Item:   mpm,
		Detail: step,
	})

	return mpm, nil
}
