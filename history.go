package parley

import "context"

// HistoryService is the external collaborator holding persisted
// conversation history. List returns prior turns in server-assigned order.
// Clear deletes the history for a session key; local state must only be
// emptied after Clear returns nil.
type HistoryService interface {
	List(ctx context.Context, sessionKey string) ([]Turn, error)
	Clear(ctx context.Context, sessionKey string) error
}
