package mesh

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = Describe("Geometry", func() {
	square := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 2, Y: 0, Z: 0},
		{X: 2, Y: 2, Z: 0},
		{X: 0, Y: 2, Z: 0},
	}

	It("should follow the right-hand rule", func() {
		s := FaceAreaVector(square)

		Expect(s.X).To(BeNumerically("~", 0, 1e-12))
		Expect(s.Y).To(BeNumerically("~", 0, 1e-12))
		Expect(s.Z).To(BeNumerically("~", 4, 1e-12))
	})

	It("should flip the area vector of a reversed face", func() {
		f := Face{0, 1, 2, 3}.Reverse()
		Expect(f).To(Equal(Face{0, 3, 2, 1}))

		pts := make([]r3.Vec, len(f))
		for i, p := range f {
			pts[i] = square[p]
		}

		Expect(FaceAreaVector(pts).Z).To(BeNumerically("~", -4, 1e-12))
	})

	It("should find the centre of a triangle", func() {
		c := FaceCentre([]r3.Vec{{X: 0}, {X: 3}, {Y: 3}})

		Expect(c.X).To(BeNumerically("~", 1, 1e-12))
		Expect(c.Y).To(BeNumerically("~", 1, 1e-12))
	})

	It("should give the volume of a unit cube", func() {
		m, err := MakeBlockBuilder().WithCells(1, 1, 1).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(PolyhedronVolume(m.CellFacePoints(0))).
			To(BeNumerically("~", 1, 1e-12))
	})
})
