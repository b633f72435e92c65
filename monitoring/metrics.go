package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/dynmesh/layering"
	"github.com/sarchlab/dynmesh/modifier"
	"github.com/sarchlab/dynmesh/sim"
	"github.com/sarchlab/dynmesh/topochange"
)

// Metrics is a hook that exports layering events as Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	thickness   *prometheus.GaugeVec
	triggers    *prometheus.CounterVec
	meshChanges prometheus.Counter
	cells       prometheus.Gauge
	step        prometheus.Gauge
}

// NewMetrics creates the metrics in a registry of their own.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		thickness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dynmesh",
			Name:      "layer_thickness",
			Help:      "Layer thickness measured at the latest step.",
		}, []string{"modifier", "stat"}),
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dynmesh",
			Name:      "layer_triggers_total",
			Help:      "Layer changes armed, recorded and refused.",
		}, []string{"modifier", "kind", "event"}),
		meshChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dynmesh",
			Name:      "mesh_changes_total",
			Help:      "Topology changes executed.",
		}),
		cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dynmesh",
			Name:      "mesh_cells",
			Help:      "Number of cells after the latest topology change.",
		}),
		step: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dynmesh",
			Name:      "step",
			Help:      "Latest time step evaluated.",
		}),
	}

	m.registry.MustRegister(
		m.thickness, m.triggers, m.meshChanges, m.cells, m.step)

	return m
}

// Registry returns the registry the metrics are registered in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Func updates the metrics from a hook context.
func (m *Metrics) Func(ctx sim.HookCtx) {
	name := domainName(ctx.Domain)

	switch ctx.Pos {
	case layering.HookPosThicknessSampled:
		s := ctx.Item.(layering.ThicknessSample)
		m.thickness.WithLabelValues(name, "min").Set(s.Min)
		m.thickness.WithLabelValues(name, "avg").Set(s.Avg)
		m.thickness.WithLabelValues(name, "max").Set(s.Max)

		if step, ok := ctx.Detail.(int); ok {
			m.step.Set(float64(step))
		}
	case layering.HookPosTriggerArmed:
		t := ctx.Item.(layering.Trigger)
		m.triggers.WithLabelValues(name, t.Kind.String(), "armed").Inc()
	case layering.HookPosTriggerConsumed:
		t := ctx.Item.(layering.Trigger)
		m.triggers.WithLabelValues(name, t.Kind.String(), "consumed").Inc()
	case layering.HookPosCollapseRejected:
		m.triggers.WithLabelValues(
			name, layering.TriggerRemoval.String(), "rejected").Inc()
	case modifier.HookPosMeshChanged:
		mpm := ctx.Item.(*topochange.MapPolyMesh)
		m.meshChanges.Inc()
		m.cells.Set(float64(mpm.NCells()))
	}
}

func domainName(d sim.Hookable) string {
	if n, ok := d.(interface{ Name() string }); ok {
		return n.Name()
	}

	return ""
}
