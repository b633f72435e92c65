package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/dynmesh/config"
	"github.com/sarchlab/dynmesh/layering"
	"github.com/sarchlab/dynmesh/modifier"
)

const pistonCase = `
mesh:
  cells: [2, 2, 8]
  size: [0.1, 0.1, 0.4]
  faceZones:
    - name: piston
      plane: 0
  pointZones:
    - name: valves
      min: [0, 0, 0.4]
      max: [0.1, 0.1, 0.4]
motion:
  velocity: 0.01
  amplitude: 0.05
  period: 2
run:
  deltaT: 0.01
  endTime: 1
  monitorPort: 32776
modifiers:
  - name: layers
    type: layerAdditionRemoval
    faceZoneName: piston
    minLayerThickness: 0.02
    maxLayerThickness: 0.08
    pinnedPointZone: valves
`

var _ = Describe("Case", func() {
	It("should read all sections", func() {
		c, err := config.Parse([]byte(pistonCase))
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Mesh.Cells).To(Equal([3]int{2, 2, 8}))
		Expect(c.Mesh.FaceZones).To(ConsistOf(config.FaceZoneConfig{
			Name: "piston", Plane: 0,
		}))
		Expect(c.Mesh.FaceZones[0].MasterAbove()).To(BeTrue())
		Expect(c.Motion.Period).To(Equal(2.0))
		Expect(c.Run.DeltaT).To(Equal(0.01))
		Expect(c.Run.MonitorPort).To(Equal(32776))
		Expect(c.MotionZone()).To(Equal("piston"))
	})

	It("should keep the keywords of modifiers in order", func() {
		c, err := config.Parse([]byte(pistonCase))
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Modifiers).To(HaveLen(1))
		Expect(c.Modifiers[0].Name).To(Equal("layers"))

		d := c.ModifierDict().SubDict("layers")
		Expect(d.Keys()).To(Equal([]string{
			"type",
			"faceZoneName",
			"minLayerThickness",
			"maxLayerThickness",
			"pinnedPointZone",
		}))
		Expect(d.Float("maxLayerThickness")).To(Equal(0.08))
	})

	It("should keep the keywords as key/value pairs", func() {
		c, err := config.Parse([]byte(pistonCase))
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Modifiers[0].Entries[0]).To(Equal(config.KeyValue{
			Key:   "type",
			Value: "layerAdditionRemoval",
		}))
	})

	It("should write modifiers back in the same form", func() {
		c, err := config.Parse([]byte(pistonCase))
		Expect(err).NotTo(HaveOccurred())

		out, err := yaml.Marshal(c.Modifiers)
		Expect(err).NotTo(HaveOccurred())

		var back []config.ModifierConfig
		Expect(yaml.Unmarshal(out, &back)).To(Succeed())
		Expect(back).To(Equal(c.Modifiers))

		Expect(config.FromDict(c.Modifiers[0].Dict())).To(Equal(c.Modifiers[0]))
	})

	It("should build the mesh and the modifiers", func() {
		c, err := config.Parse([]byte(pistonCase))
		Expect(err).NotTo(HaveOccurred())

		m, err := c.Mesh.Builder().Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(m.NCells()).To(Equal(32))

		valves := m.PointZones()[m.FindPointZone("valves")]
		Expect(valves.Points).To(HaveLen(9))

		mods, err := modifier.NewAll(c.ModifierDict(), modifier.Env{Mesh: m})
		Expect(err).NotTo(HaveOccurred())
		Expect(mods).To(HaveLen(1))

		comp := mods[0].(*layering.Comp)
		Expect(comp.PinnedPointZone()).To(Equal("valves"))
		Expect(comp.MinLayerThickness()).To(Equal(0.02))
	})

	It("should fill in defaults", func() {
		c, err := config.Parse([]byte("run:\n  endTime: 5\n"))
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Mesh.Cells).To(Equal([3]int{1, 1, 10}))
		Expect(c.Run.DeltaT).To(Equal(1.0))
		Expect(c.Run.EndTime).To(Equal(5.0))
		Expect(c.MotionZone()).To(BeEmpty())
	})

	DescribeTable("should refuse invalid cases",
		func(doc string) {
			_, err := config.Parse([]byte(doc))

			Expect(err).To(MatchError(modifier.ErrConfig))
		},
		Entry("bad yaml", "mesh: [1, 2"),
		Entry("zero cells", "mesh:\n  cells: [0, 1, 1]\n"),
		Entry("negative size", "mesh:\n  size: [1, -1, 1]\n"),
		Entry("no time step", "run:\n  deltaT: 0\n"),
		Entry("end before first step", "run:\n  deltaT: 2\n  endTime: 1\n"),
		Entry("zone above the mesh",
			"mesh:\n  faceZones:\n    - name: z\n      plane: 11\n"),
		Entry("zone on unknown side",
			"mesh:\n  faceZones:\n    - name: z\n      side: left\n"),
		Entry("duplicate zone",
			"mesh:\n  faceZones:\n    - name: z\n    - name: z\n"),
		Entry("motion of unknown zone", "motion:\n  zone: piston\n"),
		Entry("oscillation without period", "motion:\n  amplitude: 1\n"),
		Entry("modifier without name",
			"modifiers:\n  - type: layerAdditionRemoval\n"),
		Entry("modifier without keywords", "modifiers:\n  - name: a\n"),
		Entry("nested modifier keyword",
			"modifiers:\n  - name: a\n    sub: {b: 1}\n"),
		Entry("duplicate modifier",
			"modifiers:\n  - name: a\n    type: t\n  - name: a\n    type: t\n"),
	)

	Context("when loading files", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()

			DeferCleanup(func() {
				for _, k := range []string{"DELTA_T", "END_TIME", "DEBUG"} {
					os.Unsetenv(config.EnvPrefix + k)
				}
			})
		})

		write := func(name, content string) string {
			path := filepath.Join(dir, name)
			Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

			return path
		}

		It("should override the run section from the environment", func() {
			path := write("case.yaml", pistonCase)
			os.Setenv(config.EnvPrefix+"END_TIME", "3")

			c, err := config.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(c.Run.EndTime).To(Equal(3.0))
			Expect(c.Run.DeltaT).To(Equal(0.01))
		})

		It("should read .env files", func() {
			path := write("case.yaml", pistonCase)
			envFile := write(".env", "DYNMESH_DEBUG=true\nDYNMESH_DELTA_T=0.5\n")

			c, err := config.Load(path, envFile, filepath.Join(dir, "missing.env"))

			Expect(err).NotTo(HaveOccurred())
			Expect(c.Run.Debug).To(BeTrue())
			Expect(c.Run.DeltaT).To(Equal(0.5))
		})

		It("should validate after the overrides", func() {
			path := write("case.yaml", pistonCase)
			os.Setenv(config.EnvPrefix+"DELTA_T", "5")

			_, err := config.Load(path)

			Expect(err).To(MatchError(modifier.ErrConfig))
		})

		It("should refuse values that are not numbers", func() {
			path := write("case.yaml", pistonCase)
			os.Setenv(config.EnvPrefix+"DELTA_T", "fast")

			_, err := config.Load(path)

			Expect(err).To(MatchError(modifier.ErrConfig))
		})

		It("should report a missing case file", func() {
			_, err := config.Load(filepath.Join(dir, "none.yaml"))

			Expect(err).To(MatchError(modifier.ErrConfig))
		})
	})
})
