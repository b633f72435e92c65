package datarecording

import (
	"github.com/rs/xid"

	"github.com/sarchlab/dynmesh/layering"
	"github.com/sarchlab/dynmesh/modifier"
	"github.com/sarchlab/dynmesh/sim"
	"github.com/sarchlab/dynmesh/topochange"
)

// Tables written by the LayerRecorder.
const (
	LayerSampleTable  = "layer_samples"
	LayerTriggerTable = "layer_triggers"
	MeshChangeTable   = "mesh_changes"
)

// LayerSample is the layer thickness measured by a modifier at a step.
type LayerSample struct {
	RunID    string
	Modifier string
	Step     int
	Time     float64
	Min      float64
	Avg      float64
	Max      float64
}

// LayerTrigger is a change a modifier decided on, recorded or refused.
type LayerTrigger struct {
	RunID    string
	Modifier string
	Step     int
	Time     float64
	Kind     string
	Event    string
	Reason   string
}

// Events of a LayerTrigger.
const (
	TriggerArmed    = "armed"
	TriggerConsumed = "consumed"
	TriggerRejected = "rejected"
)

// MeshChange is a topology change executed at a step.
type MeshChange struct {
	RunID         string
	Step          int
	Time          float64
	NPoints       int
	NFaces        int
	NCells        int
	AddedCells    int
	RemovedCells  int
	AddedPoints   int
	RemovedPoints int
}

// LayerRecorder is a hook that writes layering events into a DataRecorder.
// Attach it to the layering modifiers and to the modifier registry.
type LayerRecorder struct {
	recorder DataRecorder
	runID    string
}

// NewLayerRecorder creates the layering tables in the recorder. All the rows
// it writes carry a fresh run ID.
func NewLayerRecorder(recorder DataRecorder) *LayerRecorder {
	recorder.CreateTable(LayerSampleTable, LayerSample{})
	recorder.CreateTable(LayerTriggerTable, LayerTrigger{})
	recorder.CreateTable(MeshChangeTable, MeshChange{})

	return &LayerRecorder{
		recorder: recorder,
		runID:    xid.New().String(),
	}
}

// RunID returns the ID written into every row.
func (r *LayerRecorder) RunID() string {
	return r.runID
}

// Func records the event of the hook context.
func (r *LayerRecorder) Func(ctx sim.HookCtx) {
	step, _ := ctx.Detail.(int)

	switch ctx.Pos {
	case layering.HookPosThicknessSampled:
		s := ctx.Item.(layering.ThicknessSample)
		r.recorder.InsertData(LayerSampleTable, LayerSample{
			RunID:    r.runID,
			Modifier: domainName(ctx),
			Step:     step,
			Time:     float64(ctx.Now),
			Min:      s.Min,
			Avg:      s.Avg,
			Max:      s.Max,
		})
	case layering.HookPosTriggerArmed:
		r.recordTrigger(ctx, step, TriggerArmed)
	case layering.HookPosTriggerConsumed:
		r.recordTrigger(ctx, step, TriggerConsumed)
	case layering.HookPosCollapseRejected:
		err, _ := ctx.Item.(error)
		reason := ""
		if err != nil {
			reason = err.Error()
		}

		r.recorder.InsertData(LayerTriggerTable, LayerTrigger{
			RunID:    r.runID,
			Modifier: domainName(ctx),
			Step:     step,
			Time:     float64(ctx.Now),
			Kind:     layering.TriggerRemoval.String(),
			Event:    TriggerRejected,
			Reason:   reason,
		})
	case modifier.HookPosMeshChanged:
		r.recordMeshChange(ctx, step)
	}
}

func (r *LayerRecorder) recordTrigger(
	ctx sim.HookCtx,
	step int,
	event string,
) {
	t := ctx.Item.(layering.Trigger)

	r.recorder.InsertData(LayerTriggerTable, LayerTrigger{
		RunID:    r.runID,
		Modifier: domainName(ctx),
		Step:     step,
		Time:     float64(ctx.Now),
		Kind:     t.Kind.String(),
		Event:    event,
	})
}

func (r *LayerRecorder) recordMeshChange(ctx sim.HookCtx, step int) {
	mpm := ctx.Item.(*topochange.MapPolyMesh)

	r.recorder.InsertData(MeshChangeTable, MeshChange{
		RunID:         r.runID,
		Step:          step,
		Time:          float64(ctx.Now),
		NPoints:       mpm.NPoints(),
		NFaces:        mpm.NFaces(),
		NCells:        mpm.NCells(),
		AddedCells:    mpm.Count(topochange.KindAddCell),
		RemovedCells:  mpm.Count(topochange.KindRemoveCell),
		AddedPoints:   mpm.Count(topochange.KindAddPoint),
		RemovedPoints: mpm.Count(topochange.KindRemovePoint),
	})
}

func domainName(ctx sim.HookCtx) string {
	if n, ok := ctx.Domain.(interface{ Name() string }); ok {
		return n.Name()
	}

	return ""
}
