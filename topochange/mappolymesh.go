package topochange

// MapPolyMesh describes how the labels of a mesh changed when a transaction
// was executed.
type MapPolyMesh struct {
	NOldPoints, NOldFaces, NOldCells int

	// PointMap gives the old label of every new point, -1 for added points.
	PointMap []int
	FaceMap  []int
	CellMap  []int

	// ReversePointMap gives the new label of every old point, -1 for
	// removed points.
	ReversePointMap []int
	ReverseFaceMap  []int
	ReverseCellMap  []int

	counts [numKinds]int
}

// Count returns the number of executed instructions of a kind.
func (m *MapPolyMesh) Count(k Kind) int {
	return m.counts[k]
}

// NPoints returns the number of points after the change.
func (m *MapPolyMesh) NPoints() int { return len(m.PointMap) }

// NFaces returns the number of faces after the change.
func (m *MapPolyMesh) NFaces() int { return len(m.FaceMap) }

// NCells returns the number of cells after the change.
func (m *MapPolyMesh) NCells() int { return len(m.CellMap) }

// AddedCells returns the new labels of the cells that did not exist before.
func (m *MapPolyMesh) AddedCells() []int {
	var added []int
	for c, old := range m.CellMap {
		if old < 0 {
			added = append(added, c)
		}
	}

	return added
}

func reverseMap(forward []int, nOld int) []int {
	r := make([]int, nOld)
	for i := range r {
		r[i] = -1
	}

	for n, o := range forward {
		if o >= 0 {
			r[o] = n
		}
	}

	return r
}
