package mock

import (
	"context"

	"github.com/parleyhq/parley"
)

// Interface compliance check.
var _ parley.HistoryService = (*HistoryService)(nil)

// HistoryService is a test double for parley.HistoryService.
// ListFn and ClearFn are nil-safe: List returns no turns, Clear succeeds.
type HistoryService struct {
	ListFn  func(ctx context.Context, sessionKey string) ([]parley.Turn, error)
	ClearFn func(ctx context.Context, sessionKey string) error
}

// List delegates to ListFn.
func (h *HistoryService) List(ctx context.Context, sessionKey string) ([]parley.Turn, error) {
	if h.ListFn == nil {
		return nil, nil
	}
	return h.ListFn(ctx, sessionKey)
}

// Clear delegates to ClearFn.
func (h *HistoryService) Clear(ctx context.Context, sessionKey string) error {
	if h.ClearFn == nil {
		return nil
	}
	return h.ClearFn(ctx, sessionKey)
}
