package parley

// Event is a sealed interface representing a session event emitted by a
// Transport. Events are delivered on a single ordered channel and applied
// one at a time, which is what makes fragment ordering linearizable.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventConnecting signals that a connection attempt has started.
// Attempt counts from 1 and increases across reconnects.
type EventConnecting struct {
	Attempt int
}

func (EventConnecting) event() {}

// EventOpened signals that the connection is established and ready.
type EventOpened struct{}

func (EventOpened) event() {}

// EventFragment carries one incremental piece of assistant output.
type EventFragment struct {
	Text string
}

func (EventFragment) event() {}

// EventCompleted signals that the in-flight assistant turn is complete.
// Finalization uses the accumulated fragments, not any payload on the
// completion frame itself.
type EventCompleted struct{}

func (EventCompleted) event() {}

// EventServerError carries a human-readable in-band failure from the
// assistant service. It is surfaced as a conversation entry, not retried.
type EventServerError struct {
	Message string
}

func (EventServerError) event() {}

// EventClosed signals that the connection dropped or a connection attempt
// failed; the two are deliberately not distinguished. Err is nil for a
// clean close. The transport schedules its own reconnect after this.
type EventClosed struct {
	Err error
}

func (EventClosed) event() {}

// Interface compliance checks.
var (
	_ Event = EventConnecting{}
	_ Event = EventOpened{}
	_ Event = EventFragment{}
	_ Event = EventCompleted{}
	_ Event = EventServerError{}
	_ Event = EventClosed{}
)
