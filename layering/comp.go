// Package layering provides a mesh modifier that adds or removes a layer of
// cells next to a face zone when the layer grows too thick or too thin.
package layering

import (
	"fmt"
	"log"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/modifier"
	"github.com/sarchlab/dynmesh/sim"
	"github.com/sarchlab/dynmesh/topochange"
)

var _ modifier.Modifier = (*Comp)(nil)

// TypeName is the type tag of the modifier.
const TypeName = "layerAdditionRemoval"

// addDelta is the fraction of the layer the added points are moved into the
// master cells by.
const addDelta = 0.3

// Hook positions of a layering modifier.
var (
	// HookPosThicknessSampled carries the ThicknessSample of a step.
	HookPosThicknessSampled = &sim.HookPos{Name: "ThicknessSampled"}

	// HookPosTriggerArmed carries the Trigger that was just armed.
	HookPosTriggerArmed = &sim.HookPos{Name: "TriggerArmed"}

	// HookPosTriggerConsumed carries the Trigger whose change was recorded.
	HookPosTriggerConsumed = &sim.HookPos{Name: "TriggerConsumed"}

	// HookPosCollapseRejected carries the error explaining why a layer could
	// not be removed.
	HookPosCollapseRejected = &sim.HookPos{Name: "CollapseRejected"}
)

// Comp is a layer addition/removal modifier.
type Comp struct {
	*sim.HookableBase

	name   string
	active bool
	debug  bool
	logger *log.Logger

	mesh mesh.Mesh
	time sim.TimeIndexer

	zone            zoneBinding
	pinnedPointZone string

	minThickness float64
	maxThickness float64
	oldThickness float64

	trigger    Trigger
	pairing    *layerPairing
	lastSample ThicknessSample
}

// Name returns the name of the modifier.
func (c *Comp) Name() string {
	return c.name
}

// Type returns TypeName.
func (c *Comp) Type() string {
	return TypeName
}

// Active tells if the modifier takes part in topology changes.
func (c *Comp) Active() bool {
	return c.active
}

// SetActive turns the modifier on or off.
func (c *Comp) SetActive(active bool) {
	c.active = active
}

// Debug tells if the modifier logs its decisions.
func (c *Comp) Debug() bool {
	return c.debug
}

// SetDebug turns decision logging on or off.
func (c *Comp) SetDebug(debug bool) {
	c.debug = debug
}

// FaceZoneName returns the name of the face zone the layer is attached to.
func (c *Comp) FaceZoneName() string {
	return c.zone.name
}

// PinnedPointZone returns the name of the point zone that must not be
// collapsed, if any.
func (c *Comp) PinnedPointZone() string {
	return c.pinnedPointZone
}

// MinLayerThickness returns the removal threshold.
func (c *Comp) MinLayerThickness() float64 {
	return c.minThickness
}

// MaxLayerThickness returns the addition threshold.
func (c *Comp) MaxLayerThickness() float64 {
	return c.maxThickness
}

// OldLayerThickness returns the layer thickness remembered from the previous
// evaluation. It is negative before the first one, +Inf after a removal was
// armed and 0 after an addition was armed.
func (c *Comp) OldLayerThickness() float64 {
	return c.oldThickness
}

// SetMinLayerThickness changes the removal threshold. It fails, leaving the
// threshold unchanged, if the value is not positive or exceeds the addition
// threshold.
func (c *Comp) SetMinLayerThickness(t float64) error {
	if !(t >= mesh.VSmall) || !(t <= c.maxThickness) {
		return fmt.Errorf("%w: %s: min layer thickness %g must be "+
			"positive and not above max layer thickness %g",
			modifier.ErrConfig, c.name, t, c.maxThickness)
	}

	c.minThickness = t

	return nil
}

// SetMaxLayerThickness changes the addition threshold. It fails, leaving the
// threshold unchanged, if the value is below the removal threshold.
func (c *Comp) SetMaxLayerThickness(t float64) error {
	if !(t >= c.minThickness) {
		return fmt.Errorf("%w: %s: max layer thickness %g is below "+
			"min layer thickness %g",
			modifier.ErrConfig, c.name, t, c.minThickness)
	}

	c.maxThickness = t

	return nil
}

// Trigger returns the armed trigger, if any.
func (c *Comp) Trigger() Trigger {
	return c.trigger
}

// LastSample returns the thickness sampled by the latest evaluation.
func (c *Comp) LastSample() ThicknessSample {
	return c.lastSample
}

// HasPairing tells if a layer pairing is cached.
func (c *Comp) HasPairing() bool {
	return c.pairing != nil
}

// ClearAddressing drops the cached layer pairing.
func (c *Comp) ClearAddressing() {
	c.pairing = nil
}

// Close releases the cached data of the modifier.
func (c *Comp) Close() {
	c.ClearAddressing()
}

// TopologyChanged rebinds the face zone after the mesh topology changed.
func (c *Comp) TopologyChanged(m mesh.Mesh) {
	c.mesh = m

	err := c.zone.resolve(m)
	if err != nil {
		c.logf("zone lost after topology change: %v", err)
	}

	c.ClearAddressing()
}

// ChangeTopology evaluates the current time step of the time indexer.
func (c *Comp) ChangeTopology() (bool, error) {
	if c.time == nil {
		return false, fmt.Errorf("%w: %s has no time indexer",
			modifier.ErrConfig, c.name)
	}

	return c.Evaluate(c.time.TimeIndex())
}

// SetRefinement records the change armed for the current time step of the
// time indexer.
func (c *Comp) SetRefinement(tx *topochange.Transaction) error {
	if c.time == nil {
		return fmt.Errorf("%w: %s has no time indexer",
			modifier.ErrConfig, c.name)
	}

	return c.Mutate(tx, c.time.TimeIndex())
}

func (c *Comp) now() sim.VTimeInSec {
	if tt, ok := c.time.(sim.TimeTeller); ok {
		return tt.CurrentTime()
	}

	return 0
}

func (c *Comp) invoke(pos *sim.HookPos, item, detail any) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Now:    c.now(),
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}

func (c *Comp) logf(format string, args ...any) {
	if !c.debug {
		return
	}

	c.logger.Printf("%s: "+format, append([]any{c.name}, args...)...)
}
