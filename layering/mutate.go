package layering

import (
	"fmt"
	"slices"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/modifier"
	"github.com/sarchlab/dynmesh/topochange"
)

// Mutate records the change armed for the step into the transaction and
// clears the trigger. It does nothing when no change is armed.
func (c *Comp) Mutate(tx *topochange.Transaction, step int) error {
	if !c.trigger.Armed() {
		return nil
	}

	if c.trigger.Step != step {
		return fmt.Errorf("%w: %s: %s armed at step %d cannot be applied "+
			"at step %d", modifier.ErrApply, c.name, c.trigger.Kind,
			c.trigger.Step, step)
	}

	zone, err := c.zone.zone(c.mesh)
	if err != nil {
		return err
	}

	switch c.trigger.Kind {
	case TriggerRemoval:
		if c.pairing == nil {
			return fmt.Errorf("%w: %s: layer removal without layer pairing",
				modifier.ErrApply, c.name)
		}

		err = c.removeCellLayer(tx, zone)
	case TriggerAddition:
		err = c.addCellLayer(tx, zone)
	}

	if err != nil {
		return fmt.Errorf("%w: %s: layer %s: %w",
			modifier.ErrApply, c.name, c.trigger.Kind, err)
	}

	consumed := c.trigger
	c.trigger = Trigger{}
	c.ClearAddressing()

	c.logf("layer %s recorded, %d instructions", consumed.Kind, tx.Len())
	c.invoke(HookPosTriggerConsumed, consumed, step)

	return nil
}

func zoneOf(m mesh.Mesh, f int) (int, bool) {
	zi := m.WhichFaceZone(f)
	if zi < 0 {
		return -1, false
	}

	z := m.FaceZones()[zi]
	flip := z.FlipMap[slices.Index(z.Faces, f)]

	return zi, flip
}

// modifyPoints records a face with new points and otherwise unchanged data.
func modifyPoints(
	tx *topochange.Transaction,
	m mesh.Mesh,
	f int,
	points mesh.Face,
) error {
	zi, flip := zoneOf(m, f)

	return tx.ModifyFace(topochange.ModifyFace{
		Face:      f,
		Points:    points,
		Owner:     m.FaceOwner()[f],
		Neighbour: m.FaceNeighbour()[f],
		Patch:     m.FacePatch(f),
		Zone:      zi,
		Flip:      flip,
	})
}

// removeCellLayer merges the master cells into the cells beyond their lid
// faces and moves the lid points onto the zone.
func (c *Comp) removeCellLayer(
	tx *topochange.Transaction,
	zone mesh.FaceZone,
) error {
	m := c.mesh
	p := c.pairing
	cells := m.Cells()

	for i, mc := range p.masterCells {
		err := tx.RemoveCell(topochange.RemoveCell{
			Cell:      mc,
			MergeInto: p.slaveCells[i],
		})
		if err != nil {
			return err
		}
	}

	isZoneFace := make(map[int]bool, zone.Size())
	for _, f := range zone.Faces {
		isZoneFace[f] = true
	}

	removedFace := make(map[int]bool)
	for _, mc := range p.masterCells {
		for _, f := range cells[mc] {
			if isZoneFace[f] || removedFace[f] {
				continue
			}

			err := tx.RemoveFace(topochange.RemoveFace{Face: f})
			if err != nil {
				return err
			}

			removedFace[f] = true
		}
	}

	collapsed := make(map[int]int, len(p.lidPoints))
	for lp, q := range p.lidPoints {
		zonePoint := p.patch.MeshPoints[lp]
		collapsed[q] = zonePoint

		err := tx.RemovePoint(topochange.RemovePoint{
			Point:     q,
			MergeInto: zonePoint,
		})
		if err != nil {
			return err
		}
	}

	err := c.remapFacesOfRemovedPoints(tx, collapsed, removedFace, isZoneFace)
	if err != nil {
		return err
	}

	return c.reconnectZoneFaces(tx, zone)
}

func (c *Comp) remapFacesOfRemovedPoints(
	tx *topochange.Transaction,
	collapsed map[int]int,
	removedFace, isZoneFace map[int]bool,
) error {
	m := c.mesh
	pointFaces := m.PointFaces()

	var affected []int
	seen := make(map[int]bool)
	for q := range collapsed {
		for _, f := range pointFaces[q] {
			if removedFace[f] || isZoneFace[f] || seen[f] {
				continue
			}

			seen[f] = true
			affected = append(affected, f)
		}
	}

	slices.Sort(affected)

	for _, f := range affected {
		pts := m.Faces()[f].Clone()
		for j, q := range pts {
			if z, ok := collapsed[q]; ok {
				pts[j] = z
			}
		}

		err := modifyPoints(tx, m, f, pts)
		if err != nil {
			return err
		}
	}

	return nil
}

// reconnectZoneFaces makes every zone face border the cell its master cell
// merges into.
func (c *Comp) reconnectZoneFaces(
	tx *topochange.Transaction,
	zone mesh.FaceZone,
) error {
	m := c.mesh
	p := c.pairing
	zi := c.zone.index

	for i, f := range zone.Faces {
		own := m.FaceOwner()[f]
		nei := m.FaceNeighbour()[f]

		mod := topochange.ModifyFace{
			Face:   f,
			Points: m.Faces()[f],
			Patch:  -1,
			Zone:   zi,
			Flip:   zone.FlipMap[i],
		}

		if own == p.masterCells[i] {
			mod.Owner = p.slaveCells[i]
			mod.Neighbour = nei

			if nei < 0 {
				mod.Patch = m.FacePatch(f)
			}
		} else {
			mod.Owner = own
			mod.Neighbour = p.slaveCells[i]
		}

		err := tx.ModifyFace(mod)
		if err != nil {
			return err
		}
	}

	return nil
}
