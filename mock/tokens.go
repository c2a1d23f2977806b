package mock

import (
	"context"

	"github.com/parleyhq/parley"
)

// Interface compliance check.
var _ parley.TokenSource = (*TokenSource)(nil)

// TokenSource is a test double for parley.TokenSource.
// When TokenFn is nil, Token returns "test-token".
type TokenSource struct {
	TokenFn func(ctx context.Context) (string, error)
}

// Token delegates to TokenFn.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if s.TokenFn == nil {
		return "test-token", nil
	}
	return s.TokenFn(ctx)
}
