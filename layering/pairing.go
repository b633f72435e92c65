package layering

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/dynmesh/mesh"
)

// errInvalidLayer reports cells next to a zone that do not form a layer
// that can be collapsed.
var errInvalidLayer = errors.New("invalid cell layer")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidLayer, fmt.Sprintf(format, args...))
}

// layerPairing relates the zone to the far side of its layer of master
// cells.
type layerPairing struct {
	patch       *mesh.ZonePatch
	masterCells []int

	// lidFaces holds, for every zone face, the face of its master cell
	// opposite to it.
	lidFaces []int

	// slaveCells holds, for every zone face, the cell beyond the lid face,
	// or -1 when the lid is on the boundary.
	slaveCells []int

	// lidPoints holds, for every local zone point, the point across the
	// layer.
	lidPoints []int
}

func computePairing(m mesh.Mesh, zone mesh.FaceZone) (*layerPairing, error) {
	faces := m.Faces()
	cells := m.Cells()
	zp := mesh.NewZonePatch(m, zone)

	p := &layerPairing{
		patch:       zp,
		masterCells: mesh.MasterCells(m, zone),
		lidFaces:    make([]int, zone.Size()),
		slaveCells:  make([]int, zone.Size()),
		lidPoints:   make([]int, len(zp.MeshPoints)),
	}

	for i := range p.lidPoints {
		p.lidPoints[i] = -1
	}

	pairedFrom := make(map[int]int)
	seenCell := make(map[int]bool)

	for i, f := range zone.Faces {
		mc := p.masterCells[i]
		if mc < 0 {
			return nil, invalidf("zone face %d has no master cell", f)
		}

		if seenCell[mc] {
			return nil, invalidf("cell %d is the master of two zone faces",
				mc)
		}

		seenCell[mc] = true

		lid, err := lidFace(faces, cells[mc], f)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", mc, err)
		}

		p.lidFaces[i] = lid
		p.slaveCells[i] = mesh.OtherCell(m, lid, mc)

		edges := cellEdges(faces, cells[mc])
		for _, pt := range faces[f] {
			partner, err := edgePartner(edges, pt, faces[f])
			if err != nil {
				return nil, fmt.Errorf("cell %d: %w", mc, err)
			}

			if !faces[lid].Contains(partner) {
				return nil, invalidf("cell %d: point %d pairs with %d, "+
					"which is off the opposite face", mc, pt, partner)
			}

			lp := zp.LocalPoint(pt)
			if p.lidPoints[lp] >= 0 && p.lidPoints[lp] != partner {
				return nil, invalidf("point %d pairs with both %d and %d",
					pt, p.lidPoints[lp], partner)
			}

			if other, ok := pairedFrom[partner]; ok && other != lp {
				return nil, invalidf("point %d pairs with two zone points",
					partner)
			}

			p.lidPoints[lp] = partner
			pairedFrom[partner] = lp
		}
	}

	return p, nil
}

// lidFace finds the only face of the cell that shares no point with the zone
// face.
func lidFace(faces []mesh.Face, cellFaces []int, zoneFace int) (int, error) {
	lid := -1

	for _, g := range cellFaces {
		if g == zoneFace || sharesPoint(faces[g], faces[zoneFace]) {
			continue
		}

		if lid >= 0 {
			return -1, invalidf("faces %d and %d both lie opposite "+
				"face %d", lid, g, zoneFace)
		}

		lid = g
	}

	if lid < 0 {
		return -1, invalidf("no face lies opposite face %d", zoneFace)
	}

	if len(faces[lid]) != len(faces[zoneFace]) {
		return -1, invalidf("opposite face %d has %d points, face %d "+
			"has %d", lid, len(faces[lid]), zoneFace, len(faces[zoneFace]))
	}

	return lid, nil
}

func sharesPoint(a, b mesh.Face) bool {
	for _, p := range a {
		if b.Contains(p) {
			return true
		}
	}

	return false
}

func cellEdges(faces []mesh.Face, cellFaces []int) map[[2]int]bool {
	edges := make(map[[2]int]bool)

	for _, g := range cellFaces {
		f := faces[g]
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			edges[[2]int{min(a, b), max(a, b)}] = true
		}
	}

	return edges
}

// edgePartner finds the only point joined to pt by a cell edge that leaves
// the zone face.
func edgePartner(edges map[[2]int]bool, pt int, zoneFace mesh.Face) (int, error) {
	partner := -1

	for e := range edges {
		var q int

		switch pt {
		case e[0]:
			q = e[1]
		case e[1]:
			q = e[0]
		default:
			continue
		}

		if zoneFace.Contains(q) {
			continue
		}

		if partner >= 0 {
			return -1, invalidf("point %d has more than one edge "+
				"across the layer", pt)
		}

		partner = q
	}

	if partner < 0 {
		return -1, invalidf("point %d has no edge across the layer", pt)
	}

	return partner, nil
}

// validateCollapse checks that the layer can be merged into the cells beyond
// it.
func validateCollapse(
	m mesh.Mesh,
	zone mesh.FaceZone,
	p *layerPairing,
	pinnedPointZone string,
) error {
	isMaster := make(map[int]bool, len(p.masterCells))
	for _, mc := range p.masterCells {
		isMaster[mc] = true
	}

	usedSlave := make(map[int]bool, len(p.slaveCells))
	for i, lid := range p.lidFaces {
		s := p.slaveCells[i]

		if !m.IsInternalFace(lid) {
			return invalidf("face %d opposite the zone lies on the "+
				"boundary", lid)
		}

		if isMaster[s] {
			return invalidf("cell %d would merge into cell %d of the "+
				"same layer", p.masterCells[i], s)
		}

		if usedSlave[s] {
			return invalidf("two cells would merge into cell %d", s)
		}

		usedSlave[s] = true
	}

	err := pinnedPointsMustStay(m, p, pinnedPointZone)
	if err != nil {
		return err
	}

	collapsed := make(map[int]int, len(p.lidPoints))
	for lp, q := range p.lidPoints {
		collapsed[q] = p.patch.MeshPoints[lp]
	}

	for i := range zone.Faces {
		v := collapsedVolume(m, zone, p, i, collapsed)
		if v <= mesh.VSmall {
			return invalidf("cell %d would get volume %g after the "+
				"collapse", p.slaveCells[i], v)
		}
	}

	return nil
}

func pinnedPointsMustStay(
	m mesh.Mesh,
	p *layerPairing,
	pinnedPointZone string,
) error {
	if pinnedPointZone == "" {
		return nil
	}

	zi := m.FindPointZone(pinnedPointZone)
	if zi < 0 {
		return nil
	}

	pinned := m.PointZones()[zi]
	for _, q := range p.lidPoints {
		if pinned.Contains(q) {
			return invalidf("point %d of zone %s cannot be collapsed",
				q, pinnedPointZone)
		}
	}

	return nil
}

// collapsedVolume returns the volume the cell beyond zone face i would have
// once the lid points are moved onto the zone and the lid face is replaced
// by the zone face.
func collapsedVolume(
	m mesh.Mesh,
	zone mesh.FaceZone,
	p *layerPairing,
	i int,
	collapsed map[int]int,
) float64 {
	faces := m.Faces()
	own := m.FaceOwner()
	points := m.Points()

	s := p.slaveCells[i]
	zf := zone.Faces[i]

	var polys [][]r3.Vec
	for _, g := range m.Cells()[s] {
		f := faces[g]

		switch {
		case g == p.lidFaces[i]:
			f = faces[zf]
			if own[zf] != p.masterCells[i] {
				f = f.Reverse()
			}
		case own[g] != s:
			f = f.Reverse()
		}

		pts := make([]r3.Vec, len(f))
		for j, q := range f {
			if z, ok := collapsed[q]; ok {
				q = z
			}

			pts[j] = points[q]
		}

		polys = append(polys, pts)
	}

	return mesh.PolyhedronVolume(polys)
}
