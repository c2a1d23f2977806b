// Package api provides the REST client for the assistant service's history
// endpoints and bearer credential sources.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/json"
)

const requestTimeout = 15 * time.Second

// Client implements parley.HistoryService over the backend's REST API.
// Every request acquires a fresh bearer credential from Tokens.
type Client struct {
	// BaseURL of the assistant service, e.g. "https://api.example.com".
	BaseURL string

	// Tokens issues the bearer credential, invoked per request.
	Tokens parley.TokenSource

	// HTTPClient overrides the default client. Nil means a client with
	// a 15s timeout.
	HTTPClient *http.Client
}

// Interface compliance check.
var _ parley.HistoryService = (*Client)(nil)

// List fetches prior turns for a session key in server-assigned order.
func (c *Client) List(ctx context.Context, sessionKey string) ([]parley.Turn, error) {
	resp, err := c.do(ctx, http.MethodGet, sessionKey)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return json.UnmarshalTurns(data)
}

// Clear deletes the persisted history for a session key. A nil return is
// the server confirmation callers must wait for before clearing local
// state.
func (c *Client) Clear(ctx context.Context, sessionKey string) error {
	resp, err := c.do(ctx, http.MethodDelete, sessionKey)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	default:
		return statusError(resp)
	}
}

func (c *Client) do(ctx context.Context, method, sessionKey string) (*http.Response, error) {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire credential: %w", err)
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/api/chat/messages/" + url.PathEscape(sessionKey)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s history: %w", method, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return fmt.Errorf("history request failed: %s", resp.Status)
	}
	return fmt.Errorf("history request failed: %s: %s", resp.Status, detail)
}
