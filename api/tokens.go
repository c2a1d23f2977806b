package api

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/parleyhq/parley"
)

// StaticTokenSource returns a TokenSource that always yields token.
// Suitable for short-lived sessions where the credential outlives the
// process.
func StaticTokenSource(token string) parley.TokenSource {
	return parley.TokenSourceFunc(func(ctx context.Context) (string, error) {
		if token == "" {
			return "", fmt.Errorf("no credential configured")
		}
		return token, nil
	})
}

// FileTokenSource returns a TokenSource that re-reads path on every call,
// so an external refresher process can rotate the credential without
// restarting the session. Leading and trailing whitespace is trimmed.
func FileTokenSource(path string) parley.TokenSource {
	return parley.TokenSourceFunc(func(ctx context.Context) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read credential file: %w", err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("credential file %s is empty", path)
		}
		return token, nil
	})
}
