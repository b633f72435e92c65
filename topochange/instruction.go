// Package topochange collects topological edits of a polyhedral mesh into a
// deferred transaction and applies them in one go.
package topochange

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/dynmesh/mesh"
)

// Kind identifies the type of an instruction.
type Kind int

// All kinds of instructions.
const (
	KindAddPoint Kind = iota
	KindAddCell
	KindAddFace
	KindModifyFace
	KindRemovePoint
	KindRemoveFace
	KindRemoveCell
	numKinds
)

var kindNames = [numKinds]string{
	"addPoint",
	"addCell",
	"addFace",
	"modifyFace",
	"removePoint",
	"removeFace",
	"removeCell",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}

	return kindNames[k]
}

// An Instruction is a single edit recorded in a Transaction.
type Instruction interface {
	Kind() Kind
}

// AddPoint creates a point.
type AddPoint struct {
	Position r3.Vec

	// MasterPoint is the point the new point is derived from, or -1.
	MasterPoint int

	// Zone is the point zone of the new point, or -1.
	Zone int
}

// Kind returns KindAddPoint.
func (AddPoint) Kind() Kind { return KindAddPoint }

// AddCell creates a cell. The cell gets its faces from AddFace and
// ModifyFace instructions.
type AddCell struct {
	// MasterFace is the face the new cell is inflated from, or -1.
	MasterFace int
}

// Kind returns KindAddCell.
func (AddCell) Kind() Kind { return KindAddCell }

// AddFace creates a face. Points, Owner and Neighbour may use labels of
// entities added in the same transaction.
type AddFace struct {
	Points    mesh.Face
	Owner     int
	Neighbour int
	Patch     int
	Zone      int
	Flip      bool

	// MasterFace is the face the new face is copied from, or -1.
	MasterFace int
}

// Kind returns KindAddFace.
func (AddFace) Kind() Kind { return KindAddFace }

// ModifyFace replaces everything about an existing face.
type ModifyFace struct {
	Face      int
	Points    mesh.Face
	Owner     int
	Neighbour int
	Patch     int
	Zone      int
	Flip      bool
}

// Kind returns KindModifyFace.
func (ModifyFace) Kind() Kind { return KindModifyFace }

// RemovePoint deletes a point. Remaining references to it are redirected to
// MergeInto when that is not -1.
type RemovePoint struct {
	Point     int
	MergeInto int
}

// Kind returns KindRemovePoint.
func (RemovePoint) Kind() Kind { return KindRemovePoint }

// RemoveFace deletes a face.
type RemoveFace struct {
	Face int
}

// Kind returns KindRemoveFace.
func (RemoveFace) Kind() Kind { return KindRemoveFace }

// RemoveCell deletes a cell. Remaining references to it are redirected to
// MergeInto when that is not -1.
type RemoveCell struct {
	Cell      int
	MergeInto int
}

// Kind returns KindRemoveCell.
func (RemoveCell) Kind() Kind { return KindRemoveCell }
