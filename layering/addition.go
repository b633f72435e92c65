package layering

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/topochange"
)

// layerAddition holds the labels of the entities of the new layer.
type layerAddition struct {
	zone        mesh.FaceZone
	patch       *mesh.ZonePatch
	masterCells []int

	addedPoints   []int
	addedPosition []r3.Vec
	addedCells    []int
}

// addCellLayer splits a new layer of cells off the master cells, next to the
// zone.
func (c *Comp) addCellLayer(
	tx *topochange.Transaction,
	zone mesh.FaceZone,
) error {
	a := &layerAddition{
		zone:        zone,
		patch:       mesh.NewZonePatch(c.mesh, zone),
		masterCells: mesh.MasterCells(c.mesh, zone),
	}

	steps := []func(*topochange.Transaction, *layerAddition) error{
		c.addLayerPoints,
		c.addLayerCells,
		c.addOffsetFaces,
		c.attachZoneFaces,
		c.addEdgeFaces,
		c.renumberMasterCellFaces,
	}

	for _, s := range steps {
		err := s(tx, a)
		if err != nil {
			return err
		}
	}

	return nil
}

// layerDirections returns, for every zone point, the vector across the layer
// the new point is placed along.
func (c *Comp) layerDirections(a *layerAddition) []r3.Vec {
	points := c.mesh.Points()
	dirs := make([]r3.Vec, len(a.patch.MeshPoints))

	p := c.pairing
	if p == nil {
		var err error

		p, err = computePairing(c.mesh, a.zone)
		if err != nil {
			c.logf("adding layer along point normals: %v", err)
		}
	}

	if p != nil {
		for lp, mp := range a.patch.MeshPoints {
			dirs[lp] = r3.Sub(points[p.lidPoints[lp]], points[mp])
		}

		return dirs
	}

	normals := a.patch.InwardPointNormals(c.mesh, a.zone)
	for lp := range dirs {
		dirs[lp] = r3.Scale(c.minThickness, normals[lp])
	}

	return dirs
}

func (c *Comp) addLayerPoints(
	tx *topochange.Transaction,
	a *layerAddition,
) error {
	points := c.mesh.Points()
	dirs := c.layerDirections(a)

	a.addedPoints = make([]int, len(a.patch.MeshPoints))
	a.addedPosition = make([]r3.Vec, len(a.patch.MeshPoints))

	for lp, mp := range a.patch.MeshPoints {
		pos := r3.Add(points[mp], r3.Scale(addDelta, dirs[lp]))

		label, err := tx.AddPoint(topochange.AddPoint{
			Position:    pos,
			MasterPoint: mp,
			Zone:        -1,
		})
		if err != nil {
			return err
		}

		a.addedPoints[lp] = label
		a.addedPosition[lp] = pos
	}

	return nil
}

func (c *Comp) addLayerCells(
	tx *topochange.Transaction,
	a *layerAddition,
) error {
	a.addedCells = make([]int, a.zone.Size())

	for i, f := range a.zone.Faces {
		label, err := tx.AddCell(topochange.AddCell{MasterFace: f})
		if err != nil {
			return err
		}

		a.addedCells[i] = label
	}

	return nil
}

// addOffsetFaces adds the face between every new cell and its master cell,
// pointing out of the master cell.
func (c *Comp) addOffsetFaces(
	tx *topochange.Transaction,
	a *layerAddition,
) error {
	for i, f := range a.zone.Faces {
		local := a.patch.LocalFaces[i]

		offset := make(mesh.Face, len(local))
		for j, lp := range local {
			offset[j] = a.addedPoints[lp]
		}

		if a.zone.FlipMap[i] {
			offset = offset.Reverse()
		}

		_, err := tx.AddFace(topochange.AddFace{
			Points:     offset,
			Owner:      a.masterCells[i],
			Neighbour:  a.addedCells[i],
			Patch:      -1,
			Zone:       -1,
			MasterFace: f,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// attachZoneFaces moves the zone faces from the master cells to the new
// cells.
func (c *Comp) attachZoneFaces(
	tx *topochange.Transaction,
	a *layerAddition,
) error {
	m := c.mesh

	for i, f := range a.zone.Faces {
		mod := topochange.ModifyFace{
			Face:      f,
			Points:    m.Faces()[f],
			Owner:     m.FaceOwner()[f],
			Neighbour: m.FaceNeighbour()[f],
			Patch:     m.FacePatch(f),
			Zone:      c.zone.index,
			Flip:      a.zone.FlipMap[i],
		}

		if mod.Owner == a.masterCells[i] {
			mod.Owner = a.addedCells[i]
		} else {
			mod.Neighbour = a.addedCells[i]
		}

		err := tx.ModifyFace(mod)
		if err != nil {
			return err
		}
	}

	return nil
}

// addEdgeFaces closes the new layer with one face per zone edge.
func (c *Comp) addEdgeFaces(
	tx *topochange.Transaction,
	a *layerAddition,
) error {
	for e, edge := range a.patch.Edges {
		edgeFaces := a.patch.EdgeFaces[e]
		if len(edgeFaces) > 2 {
			return fmt.Errorf("zone edge %v is shared by %d faces",
				edge, len(edgeFaces))
		}

		add := topochange.AddFace{
			Points: c.edgeFacePoints(a, edge, edgeFaces[0]),
			Owner:  a.addedCells[edgeFaces[0]],
			Patch:  -1,
			Zone:   -1,
		}

		if len(edgeFaces) == 2 {
			add.Neighbour = a.addedCells[edgeFaces[1]]
			add.MasterFace = -1
		} else {
			side, err := c.sideFace(a, edge, edgeFaces[0])
			if err != nil {
				return err
			}

			add.MasterFace = side
			add.Neighbour = mesh.OtherCell(
				c.mesh, side, a.masterCells[edgeFaces[0]])
			if add.Neighbour < 0 {
				add.Patch = c.mesh.FacePatch(side)
			}
		}

		_, err := tx.AddFace(add)
		if err != nil {
			return err
		}
	}

	return nil
}

// edgeFacePoints returns the quad spanned by a zone edge and its offset copy,
// pointing out of the new cell of zone face i.
func (c *Comp) edgeFacePoints(
	a *layerAddition,
	edge [2]int,
	i int,
) mesh.Face {
	points := c.mesh.Points()
	mp := a.patch.MeshPoints

	f := mesh.Face{
		mp[edge[0]], a.addedPoints[edge[0]],
		a.addedPoints[edge[1]], mp[edge[1]],
	}
	pts := []r3.Vec{
		points[mp[edge[0]]], a.addedPosition[edge[0]],
		a.addedPosition[edge[1]], points[mp[edge[1]]],
	}

	local := a.patch.LocalFaces[i]
	corners := make([]r3.Vec, 0, 2*len(local))
	for _, lp := range local {
		corners = append(corners, points[mp[lp]], a.addedPosition[lp])
	}

	var centre r3.Vec
	for _, p := range corners {
		centre = r3.Add(centre, p)
	}

	centre = r3.Scale(1/float64(len(corners)), centre)

	out := r3.Sub(mesh.FaceCentre(pts), centre)
	if r3.Dot(out, mesh.FaceAreaVector(pts)) < 0 {
		return f.Reverse()
	}

	return f
}

// sideFace finds the face of the master cell of zone face i that holds the
// zone edge.
func (c *Comp) sideFace(a *layerAddition, edge [2]int, i int) (int, error) {
	m := c.mesh
	mp := a.patch.MeshPoints
	zf := a.zone.Faces[i]

	for _, g := range m.Cells()[a.masterCells[i]] {
		if g == zf {
			continue
		}

		f := m.Faces()[g]
		if f.Contains(mp[edge[0]]) && f.Contains(mp[edge[1]]) {
			return g, nil
		}
	}

	return -1, fmt.Errorf("no face of cell %d holds zone edge %d-%d",
		a.masterCells[i], mp[edge[0]], mp[edge[1]])
}

// renumberMasterCellFaces moves the remaining faces of the master cells off
// the zone points onto the added points.
func (c *Comp) renumberMasterCellFaces(
	tx *topochange.Transaction,
	a *layerAddition,
) error {
	m := c.mesh

	isZoneFace := make(map[int]bool, a.zone.Size())
	for _, f := range a.zone.Faces {
		isZoneFace[f] = true
	}

	var faces []int
	seen := make(map[int]bool)
	for _, mc := range a.masterCells {
		for _, g := range m.Cells()[mc] {
			if isZoneFace[g] || seen[g] {
				continue
			}

			seen[g] = true
			faces = append(faces, g)
		}
	}

	slices.Sort(faces)

	for _, g := range faces {
		pts := m.Faces()[g].Clone()
		changed := false

		for j, q := range pts {
			if lp := a.patch.LocalPoint(q); lp >= 0 {
				pts[j] = a.addedPoints[lp]
				changed = true
			}
		}

		if !changed {
			continue
		}

		err := modifyPoints(tx, m, g, pts)
		if err != nil {
			return err
		}
	}

	return nil
}
