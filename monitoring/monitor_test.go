package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sarchlab/dynmesh/layering"
	"github.com/sarchlab/dynmesh/mesh"
	"github.com/sarchlab/dynmesh/modifier"
	"github.com/sarchlab/dynmesh/sim"
	"github.com/sarchlab/dynmesh/topochange"
)

var _ = Describe("Monitor", func() {
	var (
		engine  *sim.SerialEngine
		m       *mesh.PolyMesh
		comp    *layering.Comp
		metrics *Metrics
		monitor *Monitor
		server  *httptest.Server
	)

	get := func(path string) (int, string) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, string(body)
	}

	BeforeEach(func() {
		var err error
		m, err = mesh.MakeBlockBuilder().
			WithCells(1, 1, 3).
			WithSize(1, 1, 3).
			WithFaceZone("piston", 0, true).
			Build()
		Expect(err).NotTo(HaveOccurred())

		comp, err = layering.MakeBuilder().
			WithMesh(m).
			WithFaceZone("piston").
			WithMinLayerThickness(0.1).
			WithMaxLayerThickness(1.5).
			Build("layers")
		Expect(err).NotTo(HaveOccurred())

		engine = sim.NewSerialEngine()
		metrics = NewMetrics()

		monitor = NewMonitor()
		monitor.RegisterEngine(engine)
		monitor.RegisterModifier(comp)
		monitor.RegisterMetrics(metrics)

		server = httptest.NewServer(monitor.Router())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should refuse low port numbers", func() {
		Expect(monitor.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(monitor.WithPortNumber(32776).portNumber).To(Equal(32776))
	})

	It("should report the current time", func() {
		status, body := get("/api/now")

		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"now":0}`))
	})

	It("should pause and continue the engine", func() {
		get("/api/pause")
		Expect(engine.IsPaused()).To(BeTrue())

		get("/api/continue")
		Expect(engine.IsPaused()).To(BeFalse())
	})

	It("should list the modifiers", func() {
		comp.SetActive(false)

		_, body := get("/api/modifiers")

		Expect(body).To(MatchJSON(
			`[{"name":"layers","type":"layerAdditionRemoval","active":false}]`))
	})

	It("should dump a modifier", func() {
		status, body := get("/api/modifier/layers")

		Expect(status).To(Equal(http.StatusOK))

		var dump any
		Expect(json.Unmarshal([]byte(body), &dump)).To(Succeed())
	})

	It("should write a modifier as a dictionary", func() {
		status, body := get("/api/modifier/layers/dict")

		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("type layerAdditionRemoval;"))
		Expect(body).To(ContainSubstring("faceZoneName piston;"))
	})

	It("should answer 404 for unknown modifiers", func() {
		status, _ := get("/api/modifier/valves")
		Expect(status).To(Equal(http.StatusNotFound))

		status, _ = get("/api/modifier/valves/dict")
		Expect(status).To(Equal(http.StatusNotFound))
	})

	It("should list progress bars until they complete", func() {
		bar := monitor.CreateProgressBar("steps", 10)
		bar.IncrementFinished(4)
		Expect(bar.Fraction()).To(BeNumerically("~", 0.4, 1e-12))

		_, body := get("/api/progress")
		Expect(body).To(ContainSubstring(`"name":"steps"`))
		Expect(body).To(ContainSubstring(`"finished":4`))

		monitor.CompleteProgressBar(bar)

		_, body = get("/api/progress")
		Expect(body).To(MatchJSON(`[]`))
	})

	It("should refuse invalid profile durations", func() {
		status, _ := get("/api/profile?ms=soon")

		Expect(status).To(Equal(http.StatusBadRequest))
	})

	It("should report resources", func() {
		status, body := get("/api/resource")

		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("memory_size"))
	})

	It("should serve the page", func() {
		status, body := get("/")

		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should export layering events", func() {
		comp.AcceptHook(metrics)

		registry := modifier.NewRegistry()
		registry.Add(comp)
		registry.AcceptHook(metrics)

		ex := topochange.NewExecutor(m)

		_, err := registry.Update(1, 1, ex)
		Expect(err).NotTo(HaveOccurred())

		zp := mesh.NewZonePatch(m, m.FaceZones()[0])
		m.MovePoints(zp.MeshPoints, r3.Vec{Z: 0.95})

		_, err = registry.Update(2, 2, ex)
		Expect(err).NotTo(HaveOccurred())

		_, body := get("/metrics")

		Expect(body).To(ContainSubstring(
			`dynmesh_layer_triggers_total{event="armed",kind="removal",modifier="layers"} 1`))
		Expect(body).To(ContainSubstring(
			`dynmesh_layer_triggers_total{event="consumed",kind="removal",modifier="layers"} 1`))
		Expect(body).To(ContainSubstring("dynmesh_mesh_changes_total 1"))
		Expect(body).To(ContainSubstring("dynmesh_mesh_cells 2"))
		Expect(body).To(ContainSubstring("dynmesh_step 2"))
	})
})
