package topochange

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/dynmesh/mesh"
)

// An Executor applies transactions to a mesh.
type Executor struct {
	mesh *mesh.PolyMesh
}

// NewExecutor creates an executor that changes the given mesh.
func NewExecutor(m *mesh.PolyMesh) *Executor {
	return &Executor{mesh: m}
}

// Mesh returns the mesh the executor changes.
func (e *Executor) Mesh() *mesh.PolyMesh {
	return e.mesh
}

type faceData struct {
	points    mesh.Face
	owner     int
	neighbour int
	patch     int
	zone      int
	flip      bool
}

type change struct {
	old mesh.Primitives

	points       []r3.Vec
	addedPtZones []int
	faces        []faceData
	nCells       int

	removedPoints map[int]int
	removedFaces  map[int]bool
	removedCells  map[int]int
}

// Execute applies the transaction. The mesh is left untouched when an error
// is returned.
func (e *Executor) Execute(t *Transaction) (*MapPolyMesh, error) {
	if t.nPoints != e.mesh.NPoints() || t.nFaces != e.mesh.NFaces() ||
		t.nCells != e.mesh.NCells() {
		return nil, fmt.Errorf("topochange: transaction was recorded "+
			"against a mesh of %d points, %d faces, %d cells",
			t.nPoints, t.nFaces, t.nCells)
	}

	c := newChange(e.mesh.Primitives())
	c.replay(t.instructions)

	p, m, err := c.compact()
	if err != nil {
		return nil, err
	}

	next, err := mesh.NewPolyMesh(p)
	if err != nil {
		return nil, fmt.Errorf("topochange: %w", err)
	}

	for cell, v := range next.CellVolumes() {
		if v < -mesh.SmallVolume {
			return nil, fmt.Errorf("topochange: cell %d inverted, "+
				"volume %g", cell, v)
		}
	}

	err = e.mesh.Reset(p)
	if err != nil {
		return nil, fmt.Errorf("topochange: %w", err)
	}

	m.counts = t.counts

	return m, nil
}

func newChange(old mesh.Primitives) *change {
	c := &change{
		old:           old,
		points:        append([]r3.Vec(nil), old.Points...),
		faces:         make([]faceData, len(old.Faces)),
		removedPoints: make(map[int]int),
		removedFaces:  make(map[int]bool),
		removedCells:  make(map[int]int),
	}

	for f := range old.Faces {
		c.faces[f] = faceData{
			points:    old.Faces[f],
			owner:     old.Owner[f],
			neighbour: old.Neighbour[f],
			patch:     old.PatchID[f],
			zone:      -1,
		}

		c.nCells = max(c.nCells, old.Owner[f]+1, old.Neighbour[f]+1)
	}

	for zi, z := range old.FaceZones {
		for i, f := range z.Faces {
			c.faces[f].zone = zi
			c.faces[f].flip = z.FlipMap[i]
		}
	}

	return c
}

func (c *change) replay(instructions []Instruction) {
	for _, ins := range instructions {
		switch i := ins.(type) {
		case AddPoint:
			c.points = append(c.points, i.Position)
			c.addedPtZones = append(c.addedPtZones, i.Zone)
		case AddCell:
			c.nCells++
		case AddFace:
			c.faces = append(c.faces, faceData{
				points:    i.Points,
				owner:     i.Owner,
				neighbour: i.Neighbour,
				patch:     i.Patch,
				zone:      i.Zone,
				flip:      i.Flip,
			})
		case ModifyFace:
			c.faces[i.Face] = faceData{
				points:    i.Points,
				owner:     i.Owner,
				neighbour: i.Neighbour,
				patch:     i.Patch,
				zone:      i.Zone,
				flip:      i.Flip,
			}
		case RemovePoint:
			c.removedPoints[i.Point] = i.MergeInto
		case RemoveFace:
			c.removedFaces[i.Face] = true
		case RemoveCell:
			c.removedCells[i.Cell] = i.MergeInto
		}
	}
}

// resolve follows merge targets until a surviving entity is found, or
// returns -1.
func resolve(label int, removed map[int]int) int {
	for range len(removed) + 1 {
		target, ok := removed[label]
		if !ok {
			return label
		}

		if target < 0 {
			return -1
		}

		label = target
	}

	return -1
}

func renumber(n int, removed map[int]int) (newLabel []int, forward []int) {
	newLabel = make([]int, n)
	for i := range n {
		if _, ok := removed[i]; ok {
			newLabel[i] = -1
			continue
		}

		newLabel[i] = len(forward)
		forward = append(forward, i)
	}

	return newLabel, forward
}

func (c *change) compact() (mesh.Primitives, *MapPolyMesh, error) {
	newPoint, pointFwd := renumber(len(c.points), c.removedPoints)
	newCell, cellFwd := renumber(c.nCells, c.removedCells)

	p := mesh.Primitives{PatchNames: c.old.PatchNames}
	newFace := make([]int, len(c.faces))
	var faceFwd []int
	cellFaces := make([]int, len(cellFwd))

	for f, fd := range c.faces {
		newFace[f] = -1
		if c.removedFaces[f] {
			continue
		}

		pts, err := c.mapFacePoints(fd.points, newPoint)
		if err != nil {
			return p, nil, fmt.Errorf("topochange: face %d: %w", f, err)
		}

		own, nei, err := c.mapFaceCells(fd, newCell)
		if err != nil {
			return p, nil, fmt.Errorf("topochange: face %d: %w", f, err)
		}

		newFace[f] = len(faceFwd)
		faceFwd = append(faceFwd, f)

		p.Faces = append(p.Faces, pts)
		p.Owner = append(p.Owner, own)
		p.Neighbour = append(p.Neighbour, nei)
		p.PatchID = append(p.PatchID, fd.patch)

		cellFaces[own]++
		if nei >= 0 {
			cellFaces[nei]++
		}
	}

	for cell, n := range cellFaces {
		if n < 4 {
			return p, nil, fmt.Errorf("topochange: cell %d is left "+
				"with %d faces", cellFwd[cell], n)
		}
	}

	p.Points = make([]r3.Vec, len(pointFwd))
	for i, old := range pointFwd {
		p.Points[i] = c.points[old]
	}

	p.FaceZones = c.compactFaceZones(newFace)
	p.PointZones = c.compactPointZones(newPoint)

	m := &MapPolyMesh{
		NOldPoints: len(c.old.Points),
		NOldFaces:  len(c.old.Faces),
		NOldCells:  c.oldCells(),
		PointMap:   oldOnly(pointFwd, len(c.old.Points)),
		FaceMap:    oldOnly(faceFwd, len(c.old.Faces)),
		CellMap:    oldOnly(cellFwd, c.oldCells()),
	}
	m.ReversePointMap = reverseMap(m.PointMap, m.NOldPoints)
	m.ReverseFaceMap = reverseMap(m.FaceMap, m.NOldFaces)
	m.ReverseCellMap = reverseMap(m.CellMap, m.NOldCells)

	return p, m, nil
}

func (c *change) oldCells() int {
	n := 0
	for f := range c.old.Faces {
		n = max(n, c.old.Owner[f]+1, c.old.Neighbour[f]+1)
	}

	return n
}

func oldOnly(forward []int, nOld int) []int {
	m := make([]int, len(forward))
	for i, o := range forward {
		if o < nOld {
			m[i] = o
		} else {
			m[i] = -1
		}
	}

	return m
}

func (c *change) mapFacePoints(f mesh.Face, newPoint []int) (mesh.Face, error) {
	out := make(mesh.Face, 0, len(f))
	for _, pt := range f {
		target := resolve(pt, c.removedPoints)
		if target < 0 {
			return nil, fmt.Errorf("uses removed point %d", pt)
		}

		np := newPoint[target]
		if len(out) > 0 && out[len(out)-1] == np {
			continue
		}

		out = append(out, np)
	}

	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}

	if len(out) < 3 {
		return nil, fmt.Errorf("collapsed to %d points", len(out))
	}

	return out, nil
}

func (c *change) mapFaceCells(fd faceData, newCell []int) (int, int, error) {
	own := resolve(fd.owner, c.removedCells)
	if own < 0 {
		return 0, 0, fmt.Errorf("owned by removed cell %d", fd.owner)
	}

	nei := -1
	if fd.neighbour >= 0 {
		nei = resolve(fd.neighbour, c.removedCells)
		if nei < 0 {
			return 0, 0, fmt.Errorf("neighbour is removed cell %d",
				fd.neighbour)
		}
	}

	if own == nei {
		return 0, 0, fmt.Errorf("owner and neighbour merged into cell %d",
			own)
	}

	if nei < 0 {
		return newCell[own], -1, nil
	}

	return newCell[own], newCell[nei], nil
}

func (c *change) compactFaceZones(newFace []int) []mesh.FaceZone {
	zones := make([]mesh.FaceZone, len(c.old.FaceZones))
	placed := make(map[int]bool)

	for zi, z := range c.old.FaceZones {
		zones[zi].Name = z.Name
		zones[zi].Faces = []int{}
		zones[zi].FlipMap = []bool{}

		for _, f := range z.Faces {
			if newFace[f] < 0 || c.faces[f].zone != zi {
				continue
			}

			zones[zi].Faces = append(zones[zi].Faces, newFace[f])
			zones[zi].FlipMap = append(zones[zi].FlipMap, c.faces[f].flip)
			placed[f] = true
		}
	}

	for f, fd := range c.faces {
		if fd.zone < 0 || newFace[f] < 0 || placed[f] {
			continue
		}

		zones[fd.zone].Faces = append(zones[fd.zone].Faces, newFace[f])
		zones[fd.zone].FlipMap = append(zones[fd.zone].FlipMap, fd.flip)
	}

	return zones
}

func (c *change) compactPointZones(newPoint []int) []mesh.PointZone {
	zones := make([]mesh.PointZone, len(c.old.PointZones))

	for zi, z := range c.old.PointZones {
		zones[zi].Name = z.Name
		zones[zi].Points = []int{}

		for _, pt := range z.Points {
			if np := newPoint[pt]; np >= 0 {
				zones[zi].Points = append(zones[zi].Points, np)
			}
		}
	}

	nOld := len(c.old.Points)
	for i, zi := range c.addedPtZones {
		if zi < 0 {
			continue
		}

		if np := newPoint[nOld+i]; np >= 0 &&
			!slices.Contains(zones[zi].Points, np) {
			zones[zi].Points = append(zones[zi].Points, np)
		}
	}

	return zones
}
