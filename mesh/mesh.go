// Package mesh provides the polyhedral mesh that dynamic mesh modifiers
// observe, together with the geometry they measure it with.
package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// A Face is an ordered loop of point labels. The face normal follows the
// right-hand rule and points out of the owner cell.
type Face []int

// Reverse returns the face with the opposite orientation, keeping the first
// point in place.
func (f Face) Reverse() Face {
	r := make(Face, len(f))
	if len(f) == 0 {
		return r
	}

	r[0] = f[0]
	for i := 1; i < len(f); i++ {
		r[i] = f[len(f)-i]
	}

	return r
}

// Clone returns a copy of the face.
func (f Face) Clone() Face {
	c := make(Face, len(f))
	copy(c, f)

	return c
}

// Contains tells if the face uses the point.
func (f Face) Contains(point int) bool {
	return f.Index(point) >= 0
}

// Index returns the position of the point in the face, or -1.
func (f Face) Index(point int) int {
	for i, p := range f {
		if p == point {
			return i
		}
	}

	return -1
}

// A FaceZone is a named, ordered subset of faces. FlipMap[i] tells that the
// master cell of Faces[i] is the neighbour rather than the owner.
type FaceZone struct {
	Name    string
	Faces   []int
	FlipMap []bool
}

// Size returns the number of faces in the zone.
func (z FaceZone) Size() int {
	return len(z.Faces)
}

// A PointZone is a named subset of points.
type PointZone struct {
	Name   string
	Points []int
}

// Contains tells if the zone holds the point.
func (z PointZone) Contains(point int) bool {
	for _, p := range z.Points {
		if p == point {
			return true
		}
	}

	return false
}

// Mesh is the read-only view of a polyhedral mesh that modifiers evaluate.
// Boundary faces have a neighbour of -1 and a non-negative patch index.
type Mesh interface {
	NPoints() int
	NFaces() int
	NCells() int

	Points() []r3.Vec
	Faces() []Face
	FaceOwner() []int
	FaceNeighbour() []int
	FacePatch(face int) int
	IsInternalFace(face int) bool
	PatchNames() []string

	// Cells lists the faces of every cell.
	Cells() [][]int

	// PointFaces lists the faces using every point.
	PointFaces() [][]int

	CellVolumes() []float64
	FaceAreas() []r3.Vec
	FaceCentres() []r3.Vec

	FaceZones() []FaceZone
	PointZones() []PointZone

	// FindFaceZone returns the index of the named face zone, or -1.
	FindFaceZone(name string) int

	// FindPointZone returns the index of the named point zone, or -1.
	FindPointZone(name string) int

	// WhichFaceZone returns the index of the face zone holding the face, or
	// -1.
	WhichFaceZone(face int) int
}

// MasterCells returns, for every face of the zone, the cell on the master
// side.
func MasterCells(m Mesh, zone FaceZone) []int {
	own := m.FaceOwner()
	nei := m.FaceNeighbour()

	mc := make([]int, len(zone.Faces))
	for i, f := range zone.Faces {
		if zone.FlipMap[i] {
			mc[i] = nei[f]
		} else {
			mc[i] = own[f]
		}
	}

	return mc
}

// OtherCell returns the cell across the face from the given cell, or -1 when
// the face is on the boundary.
func OtherCell(m Mesh, face, cell int) int {
	own := m.FaceOwner()[face]
	if own != cell {
		return own
	}

	return m.FaceNeighbour()[face]
}
