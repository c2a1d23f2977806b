// Package mock provides test doubles for parley interfaces using function fields.
package mock

import (
	"context"

	"github.com/parleyhq/parley"
)

// Interface compliance check.
var _ parley.Transport = (*Transport)(nil)

// Transport is a test double for parley.Transport.
// Set the function fields for the methods you need. EventsFn panics when
// nil to catch missing setup. SendFn and CloseFn are nil-safe (no-op)
// because teardown paths commonly call Close without caring about it.
type Transport struct {
	EventsFn func() <-chan parley.Event
	SendFn   func(ctx context.Context, text string) error
	CloseFn  func() error
}

// Events delegates to EventsFn.
func (t *Transport) Events() <-chan parley.Event {
	return t.EventsFn()
}

// Send delegates to SendFn. Returns nil when SendFn is not set.
func (t *Transport) Send(ctx context.Context, text string) error {
	if t.SendFn == nil {
		return nil
	}
	return t.SendFn(ctx, text)
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (t *Transport) Close() error {
	if t.CloseFn == nil {
		return nil
	}
	return t.CloseFn()
}
