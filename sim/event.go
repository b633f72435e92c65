package sim

// VTimeInSec defines the time in the simulated space in the unit of second
type VTimeInSec float64

// An Event is something going to happen in the future.
type Event interface {
	// Return the time that the event should happen
	Time() VTimeInSec

	// Returns the handler that can should handle the event
	Handler() Handler

	// IsSecondary tells if the event is a secondary event. Secondary event are
	// handled after all same-time primary events are handled.
	IsSecondary() bool
}

// EventBase provides the basic fields and getters for other events
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates a new EventBase
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	e.time = t
	e.handler = handler
	e.secondary = false

	return e
}

// Time return the time that the event is going to happen
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary returns true if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler defines a domain for the events.
//
// One event is always constraint to one Handler, which means the event can
// only be scheduled by one handler and can only directly modify that handler.
type Handler interface {
	Handle(e Event) error
}

// StepEvent advances a stepped simulation by one time step.
type StepEvent struct {
	*EventBase

	// Index is the time index the step produces when handled.
	Index int
}

// MakeStepEvent creates a StepEvent for the given step index.
func MakeStepEvent(t VTimeInSec, handler Handler, index int) StepEvent {
	return StepEvent{
		EventBase: NewEventBase(t, handler),
		Index:     index,
	}
}

// MakeSecondaryStepEvent creates a StepEvent that is handled after all the
// primary events of the same time.
func MakeSecondaryStepEvent(
	t VTimeInSec,
	handler Handler,
	index int,
) StepEvent {
	evt := MakeStepEvent(t, handler, index)
	evt.secondary = true

	return evt
}
