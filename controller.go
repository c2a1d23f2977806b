package parley

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConnState is the connection state of a session.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	ConnectedIdle
	ConnectedStreaming
)

// String returns a human-readable state name.
func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case ConnectedIdle:
		return "connected"
	case ConnectedStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Connected reports whether the state is one of the Connected/* states.
func (s ConnState) Connected() bool {
	return s == ConnectedIdle || s == ConnectedStreaming
}

// Controller is the session state machine. It consumes session events and
// user intents, mutates the Store, and drives the Transport. One Controller
// owns one Store and at most one Transport; no sharing.
//
// Controller methods that mutate state are not safe for concurrent use.
// The intended scheduling model is a single event loop that applies one
// event or intent to completion before the next. LoadHistory is the only
// method safe to call from another goroutine, because it only reads the
// external collaborator.
type Controller struct {
	key       string
	store     *Store
	history   HistoryService
	transport Transport
	state     ConnState
}

// NewController creates a Controller for the given session key.
func NewController(sessionKey string, store *Store, history HistoryService) *Controller {
	return &Controller{key: sessionKey, store: store, history: history}
}

// Key returns the session key.
func (c *Controller) Key() string { return c.key }

// Store returns the controller's message store for read access.
func (c *Controller) Store() *Store { return c.store }

// State returns the current connection state.
func (c *Controller) State() ConnState { return c.state }

// Streaming reports whether an assistant response is outstanding.
func (c *Controller) Streaming() bool { return c.state == ConnectedStreaming }

// LoadHistory fetches prior turns for the session. It does not mutate the
// store; pass the result to SeedHistory from the event loop. A fetch
// failure must not block chat; callers proceed with an empty store.
func (c *Controller) LoadHistory(ctx context.Context) ([]Turn, error) {
	return c.history.List(ctx, c.key)
}

// SeedHistory populates the store with previously persisted turns,
// preserving server-assigned order. Call it once, before Attach, so no
// live event can interleave with history.
func (c *Controller) SeedHistory(turns []Turn) {
	for _, t := range turns {
		c.store.Append(t)
	}
}

// Attach hands the controller its transport and moves to Connecting.
// The transport must not be constructed until history loading has
// completed or failed.
func (c *Controller) Attach(t Transport) {
	c.transport = t
	c.state = Connecting
}

// Transport returns the attached transport, or nil before Attach.
func (c *Controller) Transport() Transport { return c.transport }

// Apply runs one session event through the state machine. Events must be
// applied in arrival order; fragment order is append order.
func (c *Controller) Apply(evt Event) {
	switch e := evt.(type) {
	case EventConnecting:
		if c.state == Disconnected {
			c.state = Connecting
		}

	case EventOpened:
		// A placeholder surviving from before a disconnect is kept;
		// subsequent fragments resume appending to it.
		c.state = ConnectedIdle

	case EventFragment:
		if !c.state.Connected() {
			return
		}
		c.store.UpsertPlaceholder(e.Text)
		c.state = ConnectedStreaming

	case EventCompleted:
		c.store.FinalizePlaceholder()
		if c.state.Connected() {
			c.state = ConnectedIdle
		}

	case EventServerError:
		// The partial answer is discarded; the failure itself is
		// surfaced in-band so it never silently disappears.
		c.store.DiscardPlaceholder()
		c.appendFailure(e.Message)
		if c.state.Connected() {
			c.state = ConnectedIdle
		}

	case EventClosed:
		// Any in-progress placeholder is left as-is pending reconnect.
		c.state = Disconnected
	}
}

// Submit validates and records a user submission. On success the user turn
// is already appended (before any send) and the state is
// Connected/Streaming; the caller must then transmit the returned turn's
// content over the Transport and report a failure via SendFailed.
func (c *Controller) Submit(text string) (UserTurn, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return UserTurn{}, ErrEmptyMessage
	}
	switch c.state {
	case ConnectedStreaming:
		return UserTurn{}, ErrResponsePending
	case ConnectedIdle:
	default:
		return UserTurn{}, ErrNotConnected
	}

	turn := UserTurn{
		ID:        uuid.NewString(),
		Content:   trimmed,
		CreatedAt: time.Now(),
	}
	c.store.Append(turn)
	c.state = ConnectedStreaming
	return turn, nil
}

// SendFailed surfaces a failed transmission as an in-band conversation
// entry and returns the session to Connected/Idle so input is usable again.
func (c *Controller) SendFailed(err error) {
	msg := "not connected"
	if err != nil {
		msg = err.Error()
	}
	c.appendFailure(msg)
	if c.state.Connected() {
		c.state = ConnectedIdle
	}
}

// ClearHistory calls the external history-clear collaborator. It does not
// touch the store: only after a nil return may the caller invoke ApplyClear.
// Local state is never cleared ahead of server confirmation.
func (c *Controller) ClearHistory(ctx context.Context) error {
	return c.history.Clear(ctx, c.key)
}

// ApplyClear empties the store after a confirmed server-side deletion.
func (c *Controller) ApplyClear() {
	c.store.Clear()
}

// Teardown closes the transport, cancelling any pending reconnect. This is
// the single mandatory cleanup path on unmount or session-key change.
// Idempotent.
func (c *Controller) Teardown() {
	if c.transport != nil {
		c.transport.Close()
		c.transport = nil
	}
	c.state = Disconnected
}

func (c *Controller) appendFailure(msg string) {
	c.store.Append(AssistantTurn{
		ID:        uuid.NewString(),
		Content:   "Error: " + msg,
		CreatedAt: time.Now(),
		Failed:    true,
	})
}
