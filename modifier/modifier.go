// Package modifier defines the dynamic mesh modifiers and the registry that
// drives them through the evaluate and apply phases of every time step.
package modifier

import (
	"errors"
	"io"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/sim"
	"github.com/sarchlab/dynmesh/topochange"
)

// Error categories. Concrete errors wrap one of them.
var (
	// ErrConfig reports an invalid construction or configuration.
	ErrConfig = errors.New("modifier: invalid configuration")

	// ErrIntegrity reports mesh data that cannot be valid, such as negative
	// cell volumes.
	ErrIntegrity = errors.New("modifier: mesh integrity violated")

	// ErrApply reports a topology change that cannot be carried out
	// consistently.
	ErrApply = errors.New("modifier: inconsistent topology change")

	// ErrPhase reports calls made out of the evaluate, apply, notify order.
	ErrPhase = errors.New("modifier: phase order violated")
)

// A Modifier watches a mesh and decides when its topology must change.
type Modifier interface {
	sim.Hookable

	// Name is unique among the modifiers of a registry.
	Name() string

	// Type is the tag the modifier is created by.
	Type() string

	Active() bool

	// Evaluate tells if the modifier wants to change the mesh at the step.
	Evaluate(step int) (bool, error)

	// Mutate records the pending change, if any, into the transaction.
	Mutate(tx *topochange.Transaction, step int) error

	// TopologyChanged is called after every change of the mesh topology.
	TopologyChanged(m mesh.Mesh)

	// Write writes the modifier as a plain ordered record.
	Write(w io.Writer) error

	// WriteDict writes the modifier as a keyword dictionary.
	WriteDict(w io.Writer) error
}
