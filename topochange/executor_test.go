package topochange

import (
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/dynmesh/mesh"
)

// collapseBottomLayer merges the bottom cell of a single column into the
// cell above it, moving the mid-plane points down onto the bottom plane.
func collapseBottomLayer(m *mesh.PolyMesh, tx *Transaction) {
	zone := m.FaceZones()[0]
	zoneFace := zone.Faces[0]
	below := m.FaceOwner()[zoneFace]

	var lid int
	for _, f := range m.Cells()[below] {
		if f != zoneFace && m.IsInternalFace(f) {
			lid = f
		}
	}

	above := mesh.OtherCell(m, lid, below)

	// Mid-plane point i sits on top of bottom point i-4.
	Expect(tx.RemoveCell(RemoveCell{Cell: below, MergeInto: above})).
		To(Succeed())

	removedFace := map[int]bool{}
	for _, f := range m.Cells()[below] {
		if f == zoneFace {
			continue
		}

		Expect(tx.RemoveFace(RemoveFace{Face: f})).To(Succeed())
		removedFace[f] = true
	}

	for p := 4; p < 8; p++ {
		Expect(tx.RemovePoint(RemovePoint{Point: p, MergeInto: p - 4})).
			To(Succeed())
	}

	modified := map[int]bool{}
	for p := 4; p < 8; p++ {
		for _, f := range m.PointFaces()[p] {
			if removedFace[f] || modified[f] {
				continue
			}

			pts := m.Faces()[f].Clone()
			for i, q := range pts {
				if q >= 4 && q < 8 {
					pts[i] = q - 4
				}
			}

			Expect(tx.ModifyFace(ModifyFace{
				Face: f, Points: pts,
				Owner: m.FaceOwner()[f], Neighbour: m.FaceNeighbour()[f],
				Patch: m.FacePatch(f), Zone: -1,
			})).To(Succeed())
			modified[f] = true
		}
	}

	Expect(tx.ModifyFace(ModifyFace{
		Face: zoneFace, Points: m.Faces()[zoneFace],
		Owner: above, Neighbour: -1, Patch: m.FacePatch(zoneFace),
		Zone: 0, Flip: false,
	})).To(Succeed())
}

var _ = Describe("Executor", func() {
	var (
		m  *mesh.PolyMesh
		ex *Executor
	)

	BeforeEach(func() {
		var err error
		m, err = mesh.MakeBlockBuilder().
			WithCells(1, 1, 2).
			WithFaceZone("piston", 0, true).
			WithPointZone("low", func(p r3.Vec) bool { return p.Z < 0.75 }).
			Build()
		Expect(err).NotTo(HaveOccurred())

		ex = NewExecutor(m)
	})

	It("should merge a layer into the next one", func() {
		tx := NewTransaction(m)
		collapseBottomLayer(m, tx)

		mpm, err := ex.Execute(tx)

		Expect(err).NotTo(HaveOccurred())
		Expect(m.NCells()).To(Equal(1))
		Expect(m.NPoints()).To(Equal(8))
		Expect(m.NFaces()).To(Equal(6))
		Expect(m.CellVolumes()[0]).To(BeNumerically("~", 1, 1e-12))

		Expect(m.FaceZones()[0].Faces).To(HaveLen(1))
		Expect(mesh.MasterCells(m, m.FaceZones()[0])).To(Equal([]int{0}))
		Expect(m.PointZones()[0].Points).To(HaveLen(4))

		Expect(mpm.NOldCells).To(Equal(2))
		Expect(mpm.CellMap).To(Equal([]int{1}))
		Expect(mpm.ReverseCellMap).To(Equal([]int{-1, 0}))
		Expect(mpm.Count(KindRemovePoint)).To(Equal(4))
		Expect(mpm.AddedCells()).To(BeEmpty())
	})

	It("should add a cell", func() {
		tx := NewTransaction(m)

		top := m.FindPatch(mesh.PatchTop)
		var lid int
		for f := range m.Faces() {
			if m.FacePatch(f) == top {
				lid = f
			}
		}

		lidPts := m.Faces()[lid]
		added := make(mesh.Face, len(lidPts))
		for i, p := range lidPts {
			var err error
			added[i], err = tx.AddPoint(AddPoint{
				Position:    r3.Add(m.Points()[p], r3.Vec{Z: 0.5}),
				MasterPoint: p,
				Zone:        -1,
			})
			Expect(err).NotTo(HaveOccurred())
		}

		c, err := tx.AddCell(AddCell{MasterFace: lid})
		Expect(err).NotTo(HaveOccurred())

		Expect(tx.ModifyFace(ModifyFace{
			Face: lid, Points: lidPts, Owner: m.FaceOwner()[lid],
			Neighbour: c, Patch: -1, Zone: -1,
		})).To(Succeed())

		_, err = tx.AddFace(AddFace{
			Points: added, Owner: c, Neighbour: -1, Patch: top,
			Zone: -1, MasterFace: lid,
		})
		Expect(err).NotTo(HaveOccurred())

		for i := range lidPts {
			j := (i + 1) % len(lidPts)
			side := mesh.Face{lidPts[i], added[i], added[j], lidPts[j]}

			_, err = tx.AddFace(AddFace{
				Points: side.Reverse(), Owner: c, Neighbour: -1,
				Patch: m.FindPatch(mesh.PatchSides), Zone: -1,
				MasterFace: -1,
			})
			Expect(err).NotTo(HaveOccurred())
		}

		mpm, err := ex.Execute(tx)

		Expect(err).NotTo(HaveOccurred())
		Expect(m.NCells()).To(Equal(3))
		Expect(floats.Min(m.CellVolumes())).To(BeNumerically(">", 0))
		Expect(floats.Sum(m.CellVolumes())).
			To(BeNumerically("~", 1.5, 1e-12))
		Expect(mpm.AddedCells()).To(Equal([]int{2}))
		Expect(mpm.PointMap[8:12]).To(Equal([]int{8, 9, 10, 11}))
		Expect(mpm.PointMap[12:]).To(Equal([]int{-1, -1, -1, -1}))
	})

	It("should leave the mesh untouched on failure", func() {
		before := m.Primitives()

		tx := NewTransaction(m)
		Expect(tx.RemoveCell(RemoveCell{Cell: 0, MergeInto: -1})).
			To(Succeed())

		_, err := ex.Execute(tx)

		Expect(err).To(HaveOccurred())
		Expect(cmp.Diff(before, m.Primitives())).To(BeEmpty())
	})

	It("should reject transactions recorded against another mesh", func() {
		other, err := mesh.MakeBlockBuilder().WithCells(3, 1, 1).Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = ex.Execute(NewTransaction(other))

		Expect(err).To(HaveOccurred())
	})
})
