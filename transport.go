package parley

import "context"

// Transport manages exactly one logical persistent connection per session
// key, translating it into a typed event stream and accepting send requests.
//
// Events() returns the transport's single ordered inbound channel. The
// sequence is unterminated in principle (a session may run indefinitely)
// and is closed only when the transport is torn down via Close().
//
// Reconnection is the transport's job: on any close, whatever the cause, it
// schedules one reconnect attempt after a fixed delay, forever, until
// Close() is called. Close() must cancel a pending reconnect timer so that
// no connection is opened against a session no longer in use.
type Transport interface {
	Events() <-chan Event
	Send(ctx context.Context, text string) error
	Close() error
}

// TokenSource issues a bearer credential on demand. Implementations must
// not cache across calls on behalf of the caller: credentials may expire
// between reconnect attempts, so transports and clients invoke the source
// per connection attempt and per request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}
