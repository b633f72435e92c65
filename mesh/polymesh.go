package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// PolyMesh is an in-memory polyhedral mesh. Derived addressing and geometry
// are computed on demand and dropped whenever points or topology change.
type PolyMesh struct {
	points    []r3.Vec
	faces     []Face
	owner     []int
	neighbour []int
	patchID   []int

	patchNames []string
	faceZones  []FaceZone
	pointZones []PointZone

	cells       [][]int
	pointFaces  [][]int
	faceAreas   []r3.Vec
	faceCentres []r3.Vec
	cellVolumes []float64
	faceZoneOf  map[int]int
}

// Primitives are the arrays a PolyMesh is built from.
type Primitives struct {
	Points     []r3.Vec
	Faces      []Face
	Owner      []int
	Neighbour  []int
	PatchID    []int
	PatchNames []string
	FaceZones  []FaceZone
	PointZones []PointZone
}

// NewPolyMesh creates a mesh from primitives after checking that the arrays
// are consistent.
func NewPolyMesh(p Primitives) (*PolyMesh, error) {
	m := &PolyMesh{}

	err := m.Reset(p)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Reset replaces the whole mesh.
func (m *PolyMesh) Reset(p Primitives) error {
	err := checkPrimitives(p)
	if err != nil {
		return err
	}

	m.points = p.Points
	m.faces = p.Faces
	m.owner = p.Owner
	m.neighbour = p.Neighbour
	m.patchID = p.PatchID
	m.patchNames = p.PatchNames
	m.faceZones = p.FaceZones
	m.pointZones = p.PointZones

	m.clearOut()

	return nil
}

func checkPrimitives(p Primitives) error {
	nFaces := len(p.Faces)
	if len(p.Owner) != nFaces || len(p.Neighbour) != nFaces ||
		len(p.PatchID) != nFaces {
		return fmt.Errorf("mesh: face arrays differ in length: "+
			"faces %d, owner %d, neighbour %d, patch %d",
			nFaces, len(p.Owner), len(p.Neighbour), len(p.PatchID))
	}

	for i, f := range p.Faces {
		if len(f) < 3 {
			return fmt.Errorf("mesh: face %d has %d points", i, len(f))
		}

		for _, pt := range f {
			if pt < 0 || pt >= len(p.Points) {
				return fmt.Errorf("mesh: face %d uses point %d out of range",
					i, pt)
			}
		}

		if p.Owner[i] < 0 {
			return fmt.Errorf("mesh: face %d has no owner", i)
		}

		internal := p.Neighbour[i] >= 0
		if internal == (p.PatchID[i] >= 0) {
			return fmt.Errorf("mesh: face %d must either have a neighbour "+
				"or belong to a patch", i)
		}

		if !internal && p.PatchID[i] >= len(p.PatchNames) {
			return fmt.Errorf("mesh: face %d uses unknown patch %d",
				i, p.PatchID[i])
		}
	}

	for _, z := range p.FaceZones {
		if len(z.Faces) != len(z.FlipMap) {
			return fmt.Errorf("mesh: face zone %s has %d faces "+
				"but %d flip flags", z.Name, len(z.Faces), len(z.FlipMap))
		}
	}

	return nil
}

func (m *PolyMesh) clearOut() {
	m.cells = nil
	m.pointFaces = nil
	m.clearGeom()
	m.faceZoneOf = nil
}

func (m *PolyMesh) clearGeom() {
	m.faceAreas = nil
	m.faceCentres = nil
	m.cellVolumes = nil
}

// Primitives returns copies of the arrays of the mesh.
func (m *PolyMesh) Primitives() Primitives {
	p := Primitives{
		Points:     append([]r3.Vec(nil), m.points...),
		Faces:      make([]Face, len(m.faces)),
		Owner:      append([]int(nil), m.owner...),
		Neighbour:  append([]int(nil), m.neighbour...),
		PatchID:    append([]int(nil), m.patchID...),
		PatchNames: append([]string(nil), m.patchNames...),
		FaceZones:  make([]FaceZone, len(m.faceZones)),
		PointZones: make([]PointZone, len(m.pointZones)),
	}

	for i, f := range m.faces {
		p.Faces[i] = f.Clone()
	}

	for i, z := range m.faceZones {
		p.FaceZones[i] = FaceZone{
			Name:    z.Name,
			Faces:   append([]int(nil), z.Faces...),
			FlipMap: append([]bool(nil), z.FlipMap...),
		}
	}

	for i, z := range m.pointZones {
		p.PointZones[i] = PointZone{
			Name:   z.Name,
			Points: append([]int(nil), z.Points...),
		}
	}

	return p
}

// Clone returns a deep copy of the mesh.
func (m *PolyMesh) Clone() *PolyMesh {
	c := &PolyMesh{}
	_ = c.Reset(m.Primitives())

	return c
}

// NPoints returns the number of points.
func (m *PolyMesh) NPoints() int { return len(m.points) }

// NFaces returns the number of faces.
func (m *PolyMesh) NFaces() int { return len(m.faces) }

// NCells returns the number of cells.
func (m *PolyMesh) NCells() int {
	n := -1
	for i := range m.faces {
		n = max(n, m.owner[i], m.neighbour[i])
	}

	return n + 1
}

// Points returns the point positions.
func (m *PolyMesh) Points() []r3.Vec { return m.points }

// Faces returns the faces.
func (m *PolyMesh) Faces() []Face { return m.faces }

// FaceOwner returns the owner cell of every face.
func (m *PolyMesh) FaceOwner() []int { return m.owner }

// FaceNeighbour returns the neighbour cell of every face, -1 on the boundary.
func (m *PolyMesh) FaceNeighbour() []int { return m.neighbour }

// FacePatch returns the patch of a boundary face, -1 for internal faces.
func (m *PolyMesh) FacePatch(face int) int { return m.patchID[face] }

// IsInternalFace tells if the face has a neighbour.
func (m *PolyMesh) IsInternalFace(face int) bool {
	return m.neighbour[face] >= 0
}

// PatchNames returns the names of the boundary patches.
func (m *PolyMesh) PatchNames() []string { return m.patchNames }

// FindPatch returns the index of the named patch, or -1.
func (m *PolyMesh) FindPatch(name string) int {
	for i, n := range m.patchNames {
		if n == name {
			return i
		}
	}

	return -1
}

// FaceZones returns the face zones.
func (m *PolyMesh) FaceZones() []FaceZone { return m.faceZones }

// PointZones returns the point zones.
func (m *PolyMesh) PointZones() []PointZone { return m.pointZones }

// FindFaceZone returns the index of the named face zone, or -1.
func (m *PolyMesh) FindFaceZone(name string) int {
	for i, z := range m.faceZones {
		if z.Name == name {
			return i
		}
	}

	return -1
}

// FindPointZone returns the index of the named point zone, or -1.
func (m *PolyMesh) FindPointZone(name string) int {
	for i, z := range m.pointZones {
		if z.Name == name {
			return i
		}
	}

	return -1
}

// WhichFaceZone returns the zone holding the face, or -1.
func (m *PolyMesh) WhichFaceZone(face int) int {
	if m.faceZoneOf == nil {
		m.faceZoneOf = make(map[int]int)
		for zi, z := range m.faceZones {
			for _, f := range z.Faces {
				m.faceZoneOf[f] = zi
			}
		}
	}

	zi, ok := m.faceZoneOf[face]
	if !ok {
		return -1
	}

	return zi
}

// Cells returns the faces of every cell.
func (m *PolyMesh) Cells() [][]int {
	if m.cells != nil {
		return m.cells
	}

	m.cells = make([][]int, m.NCells())
	for f := range m.faces {
		m.cells[m.owner[f]] = append(m.cells[m.owner[f]], f)
		if m.neighbour[f] >= 0 {
			m.cells[m.neighbour[f]] = append(m.cells[m.neighbour[f]], f)
		}
	}

	return m.cells
}

// PointFaces returns the faces using every point.
func (m *PolyMesh) PointFaces() [][]int {
	if m.pointFaces != nil {
		return m.pointFaces
	}

	m.pointFaces = make([][]int, len(m.points))
	for fi, f := range m.faces {
		for _, p := range f {
			m.pointFaces[p] = append(m.pointFaces[p], fi)
		}
	}

	return m.pointFaces
}

// FaceAreas returns the area vector of every face.
func (m *PolyMesh) FaceAreas() []r3.Vec {
	m.calcFaceGeom()
	return m.faceAreas
}

// FaceCentres returns the centre of every face.
func (m *PolyMesh) FaceCentres() []r3.Vec {
	m.calcFaceGeom()
	return m.faceCentres
}

func (m *PolyMesh) calcFaceGeom() {
	if m.faceAreas != nil {
		return
	}

	m.faceAreas = make([]r3.Vec, len(m.faces))
	m.faceCentres = make([]r3.Vec, len(m.faces))

	for i, f := range m.faces {
		pts := facePoints(m.points, f)
		m.faceAreas[i] = FaceAreaVector(pts)
		m.faceCentres[i] = FaceCentre(pts)
	}
}

// CellVolumes returns the volume of every cell. An inverted cell has a
// negative volume.
func (m *PolyMesh) CellVolumes() []float64 {
	if m.cellVolumes != nil {
		return m.cellVolumes
	}

	sf := m.FaceAreas()
	cf := m.FaceCentres()
	cells := m.Cells()

	centres := make([]r3.Vec, len(cells))
	for ci, c := range cells {
		pts := make([]r3.Vec, len(c))
		for i, f := range c {
			pts[i] = cf[f]
		}

		centres[ci] = average(pts)
	}

	m.cellVolumes = make([]float64, len(cells))
	for f := range m.faces {
		own := m.owner[f]
		m.cellVolumes[own] += r3.Dot(r3.Sub(cf[f], centres[own]), sf[f])

		if nei := m.neighbour[f]; nei >= 0 {
			m.cellVolumes[nei] -= r3.Dot(r3.Sub(cf[f], centres[nei]), sf[f])
		}
	}

	for i := range m.cellVolumes {
		m.cellVolumes[i] /= 3
	}

	return m.cellVolumes
}

// CellFacePoints returns the faces of a cell as point positions, oriented
// out of the cell.
func (m *PolyMesh) CellFacePoints(cell int) [][]r3.Vec {
	cellFaces := m.Cells()[cell]

	out := make([][]r3.Vec, len(cellFaces))
	for i, f := range cellFaces {
		face := m.faces[f]
		if m.owner[f] != cell {
			face = face.Reverse()
		}

		out[i] = facePoints(m.points, face)
	}

	return out
}

// MovePoints displaces the given points.
func (m *PolyMesh) MovePoints(points []int, d r3.Vec) {
	for _, p := range points {
		m.points[p] = r3.Add(m.points[p], d)
	}

	m.clearGeom()
}

// SetPoints replaces all point positions without changing topology.
func (m *PolyMesh) SetPoints(points []r3.Vec) error {
	if len(points) != len(m.points) {
		return fmt.Errorf("mesh: %d points given, mesh has %d",
			len(points), len(m.points))
	}

	m.points = points
	m.clearGeom()

	return nil
}
