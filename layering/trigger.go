package layering

import (
	"math"

	"github.com/sarchlab/dynmesh/mesh"
)

// TriggerKind tells what change a trigger asks for.
type TriggerKind int

// Kinds of triggers.
const (
	TriggerNone TriggerKind = iota
	TriggerRemoval
	TriggerAddition
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerRemoval:
		return "removal"
	case TriggerAddition:
		return "addition"
	default:
		return "none"
	}
}

// A Trigger is a topology change armed at a time step.
type Trigger struct {
	Kind TriggerKind
	Step int
}

// Armed tells if the trigger asks for a change.
func (t Trigger) Armed() bool {
	return t.Kind != TriggerNone
}

// State is the phase of the layer monitoring cycle.
type State int

// States of a layering modifier.
const (
	StateUninitialized State = iota
	StateStable
	StateRemovalArmed
	StateAdditionArmed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRemovalArmed:
		return "removalArmed"
	case StateAdditionArmed:
		return "additionArmed"
	default:
		return "stable"
	}
}

// State returns the current phase of the modifier.
func (c *Comp) State() State {
	switch {
	case c.trigger.Kind == TriggerRemoval:
		return StateRemovalArmed
	case c.trigger.Kind == TriggerAddition:
		return StateAdditionArmed
	case c.oldThickness < 0:
		return StateUninitialized
	default:
		return StateStable
	}
}

// Evaluate samples the layer and decides whether it must be added or
// removed at the step. A change is armed at most once per step: evaluating
// the step that armed it again reports the change without measuring.
func (c *Comp) Evaluate(step int) (bool, error) {
	if c.trigger.Armed() {
		if c.trigger.Step == step {
			return true, nil
		}

		c.logf("dropping %s armed at step %d, never applied",
			c.trigger.Kind, c.trigger.Step)
		c.trigger = Trigger{}
		c.ClearAddressing()
	}

	zone, err := c.zone.zone(c.mesh)
	if err != nil {
		return false, err
	}

	sample, err := sampleThickness(c.mesh, zone)
	if err != nil {
		return false, err
	}

	c.lastSample = sample
	c.invoke(HookPosThicknessSampled, sample, step)

	c.logf("layer thickness min %g max %g avg %g old %g, "+
		"removal threshold %g addition threshold %g",
		sample.Min, sample.Max, sample.Avg, c.oldThickness,
		c.minThickness, c.maxThickness)

	switch {
	case c.oldThickness < 0:
		c.logf("first step, no addition or removal")
		c.oldThickness = sample.Avg

		return false, nil
	case sample.Avg < c.oldThickness:
		return c.evaluateThinning(zone, sample, step), nil
	default:
		return c.evaluateThickening(sample, step), nil
	}
}

func (c *Comp) evaluateThinning(
	zone mesh.FaceZone,
	sample ThicknessSample,
	step int,
) bool {
	if sample.Min >= c.minThickness {
		c.oldThickness = sample.Avg
		return false
	}

	p, err := computePairing(c.mesh, zone)
	if err == nil {
		err = validateCollapse(c.mesh, zone, p, c.pinnedPointZone)
	}

	if err != nil {
		c.logf("layer cannot be removed: %v", err)
		c.ClearAddressing()
		c.invoke(HookPosCollapseRejected, err, step)

		return false
	}

	c.pairing = p
	c.arm(TriggerRemoval, step)
	c.oldThickness = math.Inf(1)

	return true
}

func (c *Comp) evaluateThickening(sample ThicknessSample, step int) bool {
	if sample.Max <= c.maxThickness {
		c.oldThickness = sample.Avg
		return false
	}

	c.arm(TriggerAddition, step)
	c.oldThickness = 0

	return true
}

func (c *Comp) arm(kind TriggerKind, step int) {
	c.trigger = Trigger{Kind: kind, Step: step}
	c.logf("triggering layer %s at step %d", kind, step)
	c.invoke(HookPosTriggerArmed, c.trigger, step)
}
