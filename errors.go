package parley

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrEmptyMessage indicates a submission with no visible content.
	ErrEmptyMessage = errors.New("empty message")

	// ErrNotConnected indicates an operation that requires an open
	// connection while none exists.
	ErrNotConnected = errors.New("not connected")

	// ErrResponsePending indicates a submission while an assistant
	// response is still streaming. At most one response is outstanding.
	ErrResponsePending = errors.New("response pending")

	// ErrTransportClosed indicates an operation on a torn-down transport.
	ErrTransportClosed = errors.New("transport closed")
)
