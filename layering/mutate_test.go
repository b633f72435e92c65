package layering

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/modifier"
	"github.com/sarchlab/dynmesh/sim"
	"github.com/sarchlab/dynmesh/topochange"
)

var _ = Describe("Layer change", func() {
	var (
		m    *mesh.PolyMesh
		ex   *topochange.Executor
		comp *Comp
	)

	build := func(nz int, plane int, masterAbove bool) {
		var err error
		m, err = mesh.MakeBlockBuilder().
			WithCells(2, 2, nz).
			WithSize(2, 2, float64(nz)).
			WithFaceZone("piston", plane, masterAbove).
			Build()
		Expect(err).NotTo(HaveOccurred())

		ex = topochange.NewExecutor(m)

		comp, err = MakeBuilder().
			WithMesh(m).
			WithFaceZone("piston").
			WithMinLayerThickness(0.1).
			WithMaxLayerThickness(1.5).
			Build("layers")
		Expect(err).NotTo(HaveOccurred())
	}

	movePiston := func(dz float64) {
		zp := mesh.NewZonePatch(m, m.FaceZones()[0])
		m.MovePoints(zp.MeshPoints, r3.Vec{Z: dz})
	}

	apply := func(step int) *topochange.MapPolyMesh {
		tx := topochange.NewTransaction(m)
		Expect(comp.Mutate(tx, step)).To(Succeed())

		mpm, err := ex.Execute(tx)
		Expect(err).NotTo(HaveOccurred())

		comp.TopologyChanged(m)

		return mpm
	}

	layerThickness := func() []float64 {
		zone := m.FaceZones()[0]
		v := m.CellVolumes()
		s := m.FaceAreas()

		var t []float64
		for i, mc := range mesh.MasterCells(m, zone) {
			t = append(t, v[mc]/r3.Norm(s[zone.Faces[i]]))
		}

		return t
	}

	Context("when removing a layer next to the boundary", func() {
		BeforeEach(func() {
			build(4, 0, true)

			Expect(comp.Evaluate(1)).To(BeFalse())
			movePiston(0.95)
			Expect(comp.Evaluate(2)).To(BeTrue())
		})

		It("should record the instructions in order", func() {
			tx := topochange.NewTransaction(m)
			Expect(comp.Mutate(tx, 2)).To(Succeed())

			var kinds []topochange.Kind
			for _, i := range tx.Instructions() {
				if len(kinds) == 0 || kinds[len(kinds)-1] != i.Kind() {
					kinds = append(kinds, i.Kind())
				}
			}

			Expect(kinds).To(Equal([]topochange.Kind{
				topochange.KindRemoveCell,
				topochange.KindRemoveFace,
				topochange.KindRemovePoint,
				topochange.KindModifyFace,
			}))
			Expect(tx.Count(topochange.KindRemoveCell)).To(Equal(4))
			Expect(tx.Count(topochange.KindRemovePoint)).To(Equal(9))
			Expect(tx.Count(topochange.KindModifyFace)).To(Equal(12 + 4))

			Expect(comp.Trigger().Armed()).To(BeFalse())
			Expect(comp.HasPairing()).To(BeFalse())
		})

		It("should merge the layer into the next one", func() {
			mpm := apply(2)

			Expect(m.NCells()).To(Equal(12))
			Expect(m.NPoints()).To(Equal(36))
			Expect(mpm.Count(topochange.KindRemoveCell)).To(Equal(4))
			Expect(floats.Min(m.CellVolumes())).To(BeNumerically(">", 0))
			Expect(floats.Sum(m.CellVolumes())).
				To(BeNumerically("~", 16-4*0.95, 1e-9))

			zone := m.FaceZones()[0]
			Expect(zone.Faces).To(HaveLen(4))
			for _, t := range layerThickness() {
				Expect(t).To(BeNumerically("~", 1.05, 1e-9))
			}
		})

		It("should keep watching the layer after the change", func() {
			apply(2)

			Expect(comp.Evaluate(3)).To(BeFalse())
			Expect(comp.OldLayerThickness()).
				To(BeNumerically("~", 1.05, 1e-9))
		})
	})

	Context("when removing a layer inside the mesh", func() {
		BeforeEach(func() {
			build(4, 2, true)

			Expect(comp.Evaluate(1)).To(BeFalse())
			movePiston(0.95)
			Expect(comp.Evaluate(2)).To(BeTrue())
		})

		It("should reconnect the zone to the merged cells", func() {
			apply(2)

			Expect(m.NCells()).To(Equal(12))
			Expect(floats.Min(m.CellVolumes())).To(BeNumerically(">", 0))
			Expect(floats.Sum(m.CellVolumes())).
				To(BeNumerically("~", 16, 1e-9))

			zone := m.FaceZones()[0]
			for _, f := range zone.Faces {
				Expect(m.IsInternalFace(f)).To(BeTrue())
			}

			for _, t := range layerThickness() {
				Expect(t).To(BeNumerically("~", 1.05, 1e-9))
			}
		})
	})

	Context("when adding a layer", func() {
		BeforeEach(func() {
			build(2, 0, true)

			Expect(comp.Evaluate(1)).To(BeFalse())
			movePiston(-1)
			Expect(comp.Evaluate(2)).To(BeTrue())
		})

		It("should record the instructions in order", func() {
			tx := topochange.NewTransaction(m)
			Expect(comp.Mutate(tx, 2)).To(Succeed())

			var kinds []topochange.Kind
			for _, i := range tx.Instructions() {
				if len(kinds) == 0 || kinds[len(kinds)-1] != i.Kind() {
					kinds = append(kinds, i.Kind())
				}
			}

			Expect(kinds).To(Equal([]topochange.Kind{
				topochange.KindAddPoint,
				topochange.KindAddCell,
				topochange.KindAddFace,
				topochange.KindModifyFace,
				topochange.KindAddFace,
				topochange.KindModifyFace,
			}))
			Expect(tx.Count(topochange.KindAddPoint)).To(Equal(9))
			Expect(tx.Count(topochange.KindAddCell)).To(Equal(4))
			Expect(tx.Count(topochange.KindAddFace)).To(Equal(4 + 12))
		})

		It("should split a new layer off the master cells", func() {
			mpm := apply(2)

			Expect(m.NCells()).To(Equal(12))
			Expect(mpm.AddedCells()).To(HaveLen(4))
			Expect(floats.Min(m.CellVolumes())).To(BeNumerically(">", 0))
			Expect(floats.Sum(m.CellVolumes())).
				To(BeNumerically("~", 12, 1e-9))

			zone := m.FaceZones()[0]
			Expect(mesh.MasterCells(m, zone)).
				To(ConsistOf(mpm.AddedCells()))

			for _, t := range layerThickness() {
				Expect(t).To(BeNumerically("~", 0.6, 1e-9))
			}
		})

		It("should offset the new points towards the far side of the cells", func() {
			build(1, 0, true)

			Expect(comp.Evaluate(1)).To(BeFalse())
			movePiston(-1)
			Expect(comp.Evaluate(2)).To(BeTrue())

			apply(2)

			Expect(m.NCells()).To(Equal(8))
			Expect(floats.Min(m.CellVolumes())).To(BeNumerically(">", 0))
			for _, t := range layerThickness() {
				Expect(t).To(BeNumerically("~", 0.6, 1e-9))
			}
		})
	})

	Context("when driven by a registry", func() {
		It("should remove and add layers as the piston moves", func() {
			build(4, 0, true)

			registry := modifier.NewRegistry()
			registry.Add(comp)

			var changes int
			registry.AcceptHook(sim.HookFunc(func(sim.HookCtx) {
				changes++
			}))

			step := 0
			run := func(dz float64) {
				step++
				movePiston(dz)

				_, err := registry.Update(step, sim.VTimeInSec(step), ex)
				Expect(err).NotTo(HaveOccurred())
			}

			run(0)
			run(0.3)
			run(0.3)
			run(0.35)

			Expect(changes).To(Equal(1))
			Expect(m.NCells()).To(Equal(12))

			for range 10 {
				run(-0.3)
			}

			Expect(changes).To(BeNumerically(">=", 2))
			Expect(floats.Min(m.CellVolumes())).To(BeNumerically(">", 0))
		})
	})
})
