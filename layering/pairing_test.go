package layering

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/sim"
)

var _ = Describe("Layer pairing", func() {
	build := func(b mesh.BlockBuilder) (*mesh.PolyMesh, mesh.FaceZone) {
		m, err := b.Build()
		Expect(err).NotTo(HaveOccurred())

		return m, m.FaceZones()[0]
	}

	It("should pair every zone point with the point above it", func() {
		m, zone := build(mesh.MakeBlockBuilder().
			WithCells(3, 2, 3).
			WithSize(3, 2, 3).
			WithFaceZone("piston", 0, true))

		p, err := computePairing(m, zone)
		Expect(err).NotTo(HaveOccurred())

		points := m.Points()
		seen := map[int]bool{}
		for lp, q := range p.lidPoints {
			zp := points[p.patch.MeshPoints[lp]]

			Expect(points[q].X).To(Equal(zp.X))
			Expect(points[q].Y).To(Equal(zp.Y))
			Expect(points[q].Z).To(BeNumerically("~", 1, 1e-12))
			Expect(seen[q]).To(BeFalse())
			seen[q] = true
		}

		Expect(p.lidPoints).To(HaveLen(12))
		Expect(validateCollapse(m, zone, p, "")).To(Succeed())
	})

	It("should pair across a zone inside the mesh", func() {
		m, zone := build(mesh.MakeBlockBuilder().
			WithCells(2, 2, 4).
			WithSize(2, 2, 4).
			WithFaceZone("mid", 2, true))

		p, err := computePairing(m, zone)
		Expect(err).NotTo(HaveOccurred())

		for _, q := range p.lidPoints {
			Expect(m.Points()[q].Z).To(BeNumerically("~", 3, 1e-12))
		}

		for _, s := range p.slaveCells {
			Expect(s).To(BeNumerically(">=", 12))
		}

		Expect(validateCollapse(m, zone, p, "")).To(Succeed())
	})

	It("should refuse to collapse onto the boundary", func() {
		m, zone := build(mesh.MakeBlockBuilder().
			WithCells(1, 1, 1).
			WithFaceZone("piston", 0, true))

		p, err := computePairing(m, zone)
		Expect(err).NotTo(HaveOccurred())

		Expect(validateCollapse(m, zone, p, "")).
			To(MatchError(errInvalidLayer))
	})

	It("should refuse to collapse pinned points", func() {
		m, zone := build(mesh.MakeBlockBuilder().
			WithCells(1, 1, 2).
			WithFaceZone("piston", 0, true).
			WithPointZone("pinned", func(p r3.Vec) bool {
				return p.Z == 0.5 && p.X == 0 && p.Y == 0
			}))

		p, err := computePairing(m, zone)
		Expect(err).NotTo(HaveOccurred())

		Expect(validateCollapse(m, zone, p, "pinned")).
			To(MatchError(errInvalidLayer))
		Expect(validateCollapse(m, zone, p, "")).To(Succeed())
	})

	It("should refuse a collapse that inverts a cell", func() {
		m, zone := build(mesh.MakeBlockBuilder().
			WithCells(1, 1, 2).
			WithFaceZone("piston", 0, true))

		zp := mesh.NewZonePatch(m, zone)
		m.MovePoints(zp.MeshPoints, r3.Vec{Z: 1.5})

		p, err := computePairing(m, zone)
		Expect(err).NotTo(HaveOccurred())

		Expect(validateCollapse(m, zone, p, "")).
			To(MatchError(errInvalidLayer))
	})

	It("should refuse a cell bordering the zone twice", func() {
		prim := mustPrims(mesh.MakeBlockBuilder().WithCells(1, 1, 2))

		// Zone made of a side face and the bottom face of the same cell.
		side := -1
		for f := range prim.Faces {
			if prim.PatchID[f] == 2 && prim.Owner[f] == 0 {
				side = f
				break
			}
		}

		prim.FaceZones = []mesh.FaceZone{{
			Name:    "bent",
			Faces:   []int{0, side},
			FlipMap: []bool{false, false},
		}}

		m, err := mesh.NewPolyMesh(prim)
		Expect(err).NotTo(HaveOccurred())

		_, err = computePairing(m, m.FaceZones()[0])
		Expect(err).To(MatchError(errInvalidLayer))
	})

	It("should reject the removal and report it to hooks", func() {
		m, _ := build(mesh.MakeBlockBuilder().
			WithCells(1, 1, 1).
			WithFaceZone("piston", 0, true))

		comp, err := MakeBuilder().
			WithMesh(m).
			WithFaceZone("piston").
			WithMinLayerThickness(0.5).
			WithMaxLayerThickness(2).
			Build("layers")
		Expect(err).NotTo(HaveOccurred())

		var rejected []error
		comp.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosCollapseRejected {
				rejected = append(rejected, ctx.Item.(error))
			}
		}))

		Expect(comp.Evaluate(1)).To(BeFalse())

		zp := mesh.NewZonePatch(m, m.FaceZones()[0])
		m.MovePoints(zp.MeshPoints, r3.Vec{Z: 0.8})

		Expect(comp.Evaluate(2)).To(BeFalse())
		Expect(rejected).To(HaveLen(1))
		Expect(comp.HasPairing()).To(BeFalse())
		Expect(comp.OldLayerThickness()).To(BeNumerically("~", 1, 1e-12))
	})
})

func mustPrims(b mesh.BlockBuilder) mesh.Primitives {
	m, err := b.Build()
	Expect(err).NotTo(HaveOccurred())

	return m.Primitives()
}
