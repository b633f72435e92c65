package sim

import (
	"log"
	"reflect"
)

// EventLogger is a hook that prints every handled event. Step events are
// printed with their index and failed events with their error.
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns a new EventLogger which will write into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx HookCtx) {
	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosBeforeEvent:
		if step, ok := evt.(StepEvent); ok {
			h.Printf("%.10f, step %d", evt.Time(), step.Index)
			return
		}

		h.Printf("%.10f, %s", evt.Time(), reflect.TypeOf(evt))
	case HookPosAfterEvent:
		if err, ok := ctx.Detail.(error); ok && err != nil {
			h.Printf("%.10f, %s failed: %v", evt.Time(), reflect.TypeOf(evt), err)
		}
	}
}
