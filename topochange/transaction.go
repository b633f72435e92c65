package topochange

import (
	"errors"
	"fmt"

	"github.com/sarchlab/dynmesh/mesh"
)

// ErrRejected is returned when an instruction cannot be recorded.
var ErrRejected = errors.New("topochange: instruction rejected")

// A Transaction records topological edits against a mesh without touching
// the mesh. Added entities get labels following the existing ones, in the
// order they are added.
type Transaction struct {
	nPoints, nFaces, nCells int
	nPatches                int
	nFaceZones, nPointZones int

	instructions []Instruction
	counts       [numKinds]int

	modifiedFaces map[int]bool
	removedPoints map[int]bool
	removedFaces  map[int]bool
	removedCells  map[int]bool
}

// NewTransaction creates an empty transaction against the current state of
// the mesh.
func NewTransaction(m mesh.Mesh) *Transaction {
	return &Transaction{
		nPoints:       m.NPoints(),
		nFaces:        m.NFaces(),
		nCells:        m.NCells(),
		nPatches:      len(m.PatchNames()),
		nFaceZones:    len(m.FaceZones()),
		nPointZones:   len(m.PointZones()),
		modifiedFaces: make(map[int]bool),
		removedPoints: make(map[int]bool),
		removedFaces:  make(map[int]bool),
		removedCells:  make(map[int]bool),
	}
}

// Instructions returns the recorded instructions in order.
func (t *Transaction) Instructions() []Instruction {
	return t.instructions
}

// Count returns the number of recorded instructions of a kind.
func (t *Transaction) Count(k Kind) int {
	return t.counts[k]
}

// Len returns the number of recorded instructions.
func (t *Transaction) Len() int {
	return len(t.instructions)
}

// Empty tells if nothing has been recorded.
func (t *Transaction) Empty() bool {
	return len(t.instructions) == 0
}

func (t *Transaction) record(i Instruction) {
	t.instructions = append(t.instructions, i)
	t.counts[i.Kind()]++
}

func (t *Transaction) allPoints() int { return t.nPoints + t.counts[KindAddPoint] }
func (t *Transaction) allCells() int  { return t.nCells + t.counts[KindAddCell] }

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

// AddPoint records a new point and returns its label.
func (t *Transaction) AddPoint(i AddPoint) (int, error) {
	if i.MasterPoint < -1 || i.MasterPoint >= t.nPoints {
		return -1, rejectf("add point: master point %d out of range",
			i.MasterPoint)
	}

	if i.Zone < -1 || i.Zone >= t.nPointZones {
		return -1, rejectf("add point: point zone %d out of range", i.Zone)
	}

	label := t.allPoints()
	t.record(i)

	return label, nil
}

// AddCell records a new cell and returns its label.
func (t *Transaction) AddCell(i AddCell) (int, error) {
	if i.MasterFace < -1 || i.MasterFace >= t.nFaces {
		return -1, rejectf("add cell: master face %d out of range",
			i.MasterFace)
	}

	label := t.allCells()
	t.record(i)

	return label, nil
}

// AddFace records a new face and returns its label.
func (t *Transaction) AddFace(i AddFace) (int, error) {
	if i.MasterFace < -1 || i.MasterFace >= t.nFaces {
		return -1, rejectf("add face: master face %d out of range",
			i.MasterFace)
	}

	err := t.faceMustBeValid(i.Points, i.Owner, i.Neighbour, i.Patch, i.Zone)
	if err != nil {
		return -1, fmt.Errorf("add face: %w", err)
	}

	i.Points = i.Points.Clone()
	label := t.nFaces + t.counts[KindAddFace]
	t.record(i)

	return label, nil
}

// ModifyFace records new data for an existing face.
func (t *Transaction) ModifyFace(i ModifyFace) error {
	if i.Face < 0 || i.Face >= t.nFaces {
		return rejectf("modify face: face %d out of range", i.Face)
	}

	if t.modifiedFaces[i.Face] {
		return rejectf("modify face: face %d modified twice", i.Face)
	}

	if t.removedFaces[i.Face] {
		return rejectf("modify face: face %d is removed", i.Face)
	}

	err := t.faceMustBeValid(i.Points, i.Owner, i.Neighbour, i.Patch, i.Zone)
	if err != nil {
		return fmt.Errorf("modify face %d: %w", i.Face, err)
	}

	i.Points = i.Points.Clone()
	t.modifiedFaces[i.Face] = true
	t.record(i)

	return nil
}

func (t *Transaction) faceMustBeValid(
	points mesh.Face,
	owner, neighbour, patch, zone int,
) error {
	if len(points) < 3 {
		return rejectf("face has %d points", len(points))
	}

	seen := make(map[int]bool, len(points))
	for _, p := range points {
		if p < 0 || p >= t.allPoints() {
			return rejectf("point %d out of range", p)
		}

		if seen[p] {
			return rejectf("point %d used twice", p)
		}

		seen[p] = true
	}

	if owner < 0 || owner >= t.allCells() {
		return rejectf("owner %d out of range", owner)
	}

	if neighbour < -1 || neighbour >= t.allCells() {
		return rejectf("neighbour %d out of range", neighbour)
	}

	if neighbour == owner {
		return rejectf("owner and neighbour are both cell %d", owner)
	}

	if (neighbour >= 0) == (patch >= 0) {
		return rejectf("face needs either a neighbour or a patch, "+
			"got neighbour %d patch %d", neighbour, patch)
	}

	if patch >= t.nPatches {
		return rejectf("patch %d out of range", patch)
	}

	if zone < -1 || zone >= t.nFaceZones {
		return rejectf("face zone %d out of range", zone)
	}

	return nil
}

// RemovePoint records the removal of a point.
func (t *Transaction) RemovePoint(i RemovePoint) error {
	if i.Point < 0 || i.Point >= t.nPoints {
		return rejectf("remove point: point %d out of range", i.Point)
	}

	if t.removedPoints[i.Point] {
		return rejectf("remove point: point %d removed twice", i.Point)
	}

	if i.MergeInto < -1 || i.MergeInto >= t.allPoints() ||
		i.MergeInto == i.Point {
		return rejectf("remove point: cannot merge point %d into %d",
			i.Point, i.MergeInto)
	}

	t.removedPoints[i.Point] = true
	t.record(i)

	return nil
}

// RemoveFace records the removal of a face.
func (t *Transaction) RemoveFace(i RemoveFace) error {
	if i.Face < 0 || i.Face >= t.nFaces {
		return rejectf("remove face: face %d out of range", i.Face)
	}

	if t.removedFaces[i.Face] {
		return rejectf("remove face: face %d removed twice", i.Face)
	}

	if t.modifiedFaces[i.Face] {
		return rejectf("remove face: face %d is modified", i.Face)
	}

	t.removedFaces[i.Face] = true
	t.record(i)

	return nil
}

// RemoveCell records the removal of a cell.
func (t *Transaction) RemoveCell(i RemoveCell) error {
	if i.Cell < 0 || i.Cell >= t.nCells {
		return rejectf("remove cell: cell %d out of range", i.Cell)
	}

	if t.removedCells[i.Cell] {
		return rejectf("remove cell: cell %d removed twice", i.Cell)
	}

	if i.MergeInto < -1 || i.MergeInto >= t.allCells() ||
		i.MergeInto == i.Cell {
		return rejectf("remove cell: cannot merge cell %d into %d",
			i.Cell, i.MergeInto)
	}

	t.removedCells[i.Cell] = true
	t.record(i)

	return nil
}
