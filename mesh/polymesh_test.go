package mesh

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = Describe("PolyMesh", func() {
	var m *PolyMesh

	BeforeEach(func() {
		var err error
		m, err = MakeBlockBuilder().
			WithCells(2, 2, 3).
			WithSize(2, 2, 3).
			WithFaceZone("piston", 0, true).
			WithFaceZone("mid", 1, false).
			WithPointZone("corner", func(p r3.Vec) bool {
				return p.X == 0 && p.Y == 0
			}).
			Build()
		Expect(err).NotTo(HaveOccurred())
	})

	It("should count entities", func() {
		Expect(m.NPoints()).To(Equal(3 * 3 * 4))
		Expect(m.NCells()).To(Equal(12))
		Expect(m.NFaces()).To(Equal(4*4 + 3*2*3*2))
		Expect(m.Cells()).To(HaveLen(12))

		for _, c := range m.Cells() {
			Expect(c).To(HaveLen(6))
		}
	})

	It("should give positive unit cell volumes", func() {
		vols := m.CellVolumes()

		Expect(floats.Min(vols)).To(BeNumerically("~", 1, 1e-12))
		Expect(floats.Max(vols)).To(BeNumerically("~", 1, 1e-12))
	})

	It("should orient boundary faces outwards", func() {
		sf := m.FaceAreas()
		cf := m.FaceCentres()

		for f := range m.Faces() {
			if m.IsInternalFace(f) {
				continue
			}

			out := r3.Sub(cf[f], r3.Vec{X: 1, Y: 1, Z: 1.5})
			Expect(r3.Dot(out, sf[f])).To(BeNumerically(">", 0))
		}
	})

	It("should find zones", func() {
		Expect(m.FindFaceZone("piston")).To(Equal(0))
		Expect(m.FindFaceZone("mid")).To(Equal(1))
		Expect(m.FindFaceZone("none")).To(Equal(-1))
		Expect(m.FindPointZone("corner")).To(Equal(0))
		Expect(m.PointZones()[0].Points).To(HaveLen(4))

		f := m.FaceZones()[1].Faces[0]
		Expect(m.WhichFaceZone(f)).To(Equal(1))
	})

	It("should find master cells from the flip map", func() {
		bottom := m.FaceZones()[0]
		Expect(MasterCells(m, bottom)).To(ConsistOf(0, 1, 2, 3))

		mid := m.FaceZones()[1]
		Expect(MasterCells(m, mid)).To(ConsistOf(0, 1, 2, 3))

		f := mid.Faces[0]
		Expect(OtherCell(m, f, m.FaceOwner()[f])).
			To(Equal(m.FaceNeighbour()[f]))
	})

	It("should drop geometry when points move", func() {
		top := m.FaceZones()[0]
		zp := NewZonePatch(m, top)

		Expect(floats.Sum(m.CellVolumes())).To(BeNumerically("~", 12, 1e-12))

		m.MovePoints(zp.MeshPoints, r3.Vec{Z: 0.5})

		Expect(floats.Sum(m.CellVolumes())).To(BeNumerically("~", 10, 1e-12))
	})

	It("should reject inconsistent primitives", func() {
		p := m.Primitives()
		p.Neighbour[0] = 3

		err := m.Reset(p)
		Expect(err).To(HaveOccurred())
		Expect(m.NCells()).To(Equal(12))
	})

	It("should copy its primitives", func() {
		c := m.Clone()
		c.MovePoints([]int{0}, r3.Vec{X: -1})

		Expect(m.Points()[0]).To(Equal(r3.Vec{}))
		Expect(c.Points()[0]).To(Equal(r3.Vec{X: -1}))
	})
})

var _ = Describe("BlockBuilder", func() {
	It("should reject a zone without master cells", func() {
		_, err := MakeBlockBuilder().
			WithFaceZone("bottom", 0, false).
			Build()

		Expect(err).To(HaveOccurred())
	})

	It("should reject empty blocks", func() {
		_, err := MakeBlockBuilder().WithCells(0, 1, 1).Build()

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ZonePatch", func() {
	It("should address a zone locally", func() {
		m, err := MakeBlockBuilder().
			WithCells(2, 1, 2).
			WithFaceZone("piston", 0, true).
			Build()
		Expect(err).NotTo(HaveOccurred())

		zone := m.FaceZones()[0]
		zp := NewZonePatch(m, zone)

		Expect(zp.MeshPoints).To(HaveLen(6))
		Expect(zp.Edges).To(HaveLen(7))

		internal := 0
		for e := range zp.Edges {
			if zp.IsInternalEdge(e) {
				internal++
			}
		}
		Expect(internal).To(Equal(1))

		Expect(zp.LocalPoint(zp.MeshPoints[3])).To(Equal(3))
		Expect(zp.LocalPoint(m.NPoints() - 1)).To(Equal(-1))

		for _, n := range zp.InwardPointNormals(m, zone) {
			Expect(n.Z).To(BeNumerically("~", 1, 1e-12))
		}
	})
})
