package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Patch names of a block mesh.
const (
	PatchBottom = "bottom"
	PatchTop    = "top"
	PatchSides  = "sides"
)

type faceZoneSpec struct {
	name        string
	plane       int
	masterAbove bool
}

type pointZoneSpec struct {
	name string
	pick func(r3.Vec) bool
}

// BlockBuilder builds a box of hexahedral cells stacked in layers along z.
type BlockBuilder struct {
	nx, ny, nz int
	lx, ly, lz float64
	origin     r3.Vec
	faceZones  []faceZoneSpec
	pointZones []pointZoneSpec
}

// MakeBlockBuilder returns a BlockBuilder for a unit cube of 1x1x4 cells.
func MakeBlockBuilder() BlockBuilder {
	return BlockBuilder{
		nx: 1, ny: 1, nz: 4,
		lx: 1, ly: 1, lz: 1,
	}
}

// WithCells sets the number of cells in every direction.
func (b BlockBuilder) WithCells(nx, ny, nz int) BlockBuilder {
	b.nx, b.ny, b.nz = nx, ny, nz
	return b
}

// WithSize sets the extent of the box.
func (b BlockBuilder) WithSize(lx, ly, lz float64) BlockBuilder {
	b.lx, b.ly, b.lz = lx, ly, lz
	return b
}

// WithOrigin sets the lowest corner of the box.
func (b BlockBuilder) WithOrigin(o r3.Vec) BlockBuilder {
	b.origin = o
	return b
}

// WithFaceZone adds a face zone made of the faces on the z plane with the
// given index (0 is the bottom). The master cells sit above the plane when
// masterAbove is set and below it otherwise.
func (b BlockBuilder) WithFaceZone(
	name string,
	plane int,
	masterAbove bool,
) BlockBuilder {
	b.faceZones = append(append([]faceZoneSpec(nil), b.faceZones...),
		faceZoneSpec{name: name, plane: plane, masterAbove: masterAbove})

	return b
}

// WithPointZone adds a point zone holding the points picked by the function.
func (b BlockBuilder) WithPointZone(
	name string,
	pick func(r3.Vec) bool,
) BlockBuilder {
	b.pointZones = append(append([]pointZoneSpec(nil), b.pointZones...),
		pointZoneSpec{name: name, pick: pick})

	return b
}

func (b BlockBuilder) parametersMustBeValid() error {
	if b.nx < 1 || b.ny < 1 || b.nz < 1 {
		return fmt.Errorf("mesh: block needs at least one cell per "+
			"direction, got %dx%dx%d", b.nx, b.ny, b.nz)
	}

	if b.lx <= 0 || b.ly <= 0 || b.lz <= 0 {
		return fmt.Errorf("mesh: block size must be positive")
	}

	for _, z := range b.faceZones {
		if z.plane < 0 || z.plane > b.nz {
			return fmt.Errorf("mesh: face zone %s on plane %d outside "+
				"0..%d", z.name, z.plane, b.nz)
		}

		if (z.plane == 0 && !z.masterAbove) ||
			(z.plane == b.nz && z.masterAbove) {
			return fmt.Errorf("mesh: face zone %s has no cells on its "+
				"master side", z.name)
		}
	}

	return nil
}

// Build creates the mesh.
func (b BlockBuilder) Build() (*PolyMesh, error) {
	err := b.parametersMustBeValid()
	if err != nil {
		return nil, err
	}

	p := Primitives{
		PatchNames: []string{PatchBottom, PatchTop, PatchSides},
	}

	b.buildPoints(&p)
	zPlaneFaces := b.buildZFaces(&p)
	b.buildXFaces(&p)
	b.buildYFaces(&p)
	b.buildZones(&p, zPlaneFaces)

	return NewPolyMesh(p)
}

func (b BlockBuilder) pointID(i, j, k int) int {
	return i + (b.nx+1)*(j+(b.ny+1)*k)
}

func (b BlockBuilder) cellID(i, j, k int) int {
	return i + b.nx*(j+b.ny*k)
}

func (b BlockBuilder) buildPoints(p *Primitives) {
	dx := b.lx / float64(b.nx)
	dy := b.ly / float64(b.ny)
	dz := b.lz / float64(b.nz)

	p.Points = make([]r3.Vec, (b.nx+1)*(b.ny+1)*(b.nz+1))
	for k := 0; k <= b.nz; k++ {
		for j := 0; j <= b.ny; j++ {
			for i := 0; i <= b.nx; i++ {
				p.Points[b.pointID(i, j, k)] = r3.Add(b.origin, r3.Vec{
					X: float64(i) * dx,
					Y: float64(j) * dy,
					Z: float64(k) * dz,
				})
			}
		}
	}
}

func (b BlockBuilder) addFace(
	p *Primitives,
	f Face,
	lowCell, highCell int,
	patch int,
) int {
	switch {
	case lowCell >= 0 && highCell >= 0:
		p.Faces = append(p.Faces, f)
		p.Owner = append(p.Owner, lowCell)
		p.Neighbour = append(p.Neighbour, highCell)
		p.PatchID = append(p.PatchID, -1)
	case lowCell >= 0:
		p.Faces = append(p.Faces, f)
		p.Owner = append(p.Owner, lowCell)
		p.Neighbour = append(p.Neighbour, -1)
		p.PatchID = append(p.PatchID, patch)
	default:
		p.Faces = append(p.Faces, f.Reverse())
		p.Owner = append(p.Owner, highCell)
		p.Neighbour = append(p.Neighbour, -1)
		p.PatchID = append(p.PatchID, patch)
	}

	return len(p.Faces) - 1
}

func (b BlockBuilder) buildZFaces(p *Primitives) [][]int {
	planes := make([][]int, b.nz+1)

	for k := 0; k <= b.nz; k++ {
		patch := 1
		if k == 0 {
			patch = 0
		}

		for j := 0; j < b.ny; j++ {
			for i := 0; i < b.nx; i++ {
				f := Face{
					b.pointID(i, j, k), b.pointID(i+1, j, k),
					b.pointID(i+1, j+1, k), b.pointID(i, j+1, k),
				}

				low, high := -1, -1
				if k > 0 {
					low = b.cellID(i, j, k-1)
				}

				if k < b.nz {
					high = b.cellID(i, j, k)
				}

				planes[k] = append(planes[k], b.addFace(p, f, low, high, patch))
			}
		}
	}

	return planes
}

func (b BlockBuilder) buildXFaces(p *Primitives) {
	for k := 0; k < b.nz; k++ {
		for j := 0; j < b.ny; j++ {
			for i := 0; i <= b.nx; i++ {
				f := Face{
					b.pointID(i, j, k), b.pointID(i, j+1, k),
					b.pointID(i, j+1, k+1), b.pointID(i, j, k+1),
				}

				low, high := -1, -1
				if i > 0 {
					low = b.cellID(i-1, j, k)
				}

				if i < b.nx {
					high = b.cellID(i, j, k)
				}

				b.addFace(p, f, low, high, 2)
			}
		}
	}
}

func (b BlockBuilder) buildYFaces(p *Primitives) {
	for k := 0; k < b.nz; k++ {
		for j := 0; j <= b.ny; j++ {
			for i := 0; i < b.nx; i++ {
				f := Face{
					b.pointID(i, j, k), b.pointID(i, j, k+1),
					b.pointID(i+1, j, k+1), b.pointID(i+1, j, k),
				}

				low, high := -1, -1
				if j > 0 {
					low = b.cellID(i, j-1, k)
				}

				if j < b.ny {
					high = b.cellID(i, j, k)
				}

				b.addFace(p, f, low, high, 2)
			}
		}
	}
}

func (b BlockBuilder) buildZones(p *Primitives, zPlaneFaces [][]int) {
	for _, spec := range b.faceZones {
		faces := append([]int(nil), zPlaneFaces[spec.plane]...)
		flip := make([]bool, len(faces))

		internal := spec.plane > 0 && spec.plane < b.nz
		for i := range flip {
			flip[i] = internal && spec.masterAbove
		}

		p.FaceZones = append(p.FaceZones, FaceZone{
			Name:    spec.name,
			Faces:   faces,
			FlipMap: flip,
		})
	}

	for _, spec := range b.pointZones {
		z := PointZone{Name: spec.name}
		for i, pt := range p.Points {
			if spec.pick(pt) {
				z.Points = append(z.Points, i)
			}
		}

		p.PointZones = append(p.PointZones, z)
	}
}
