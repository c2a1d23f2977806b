package main

import (
	"fmt"
	"strings"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/api"
)

// config is the fully resolved runtime configuration. All env var values
// are passed into resolveConfig as parameters; env is only read in main().
type config struct {
	baseURL    string
	wsURL      string
	sessionKey string
	tokens     parley.TokenSource
}

func resolveConfig(urlFlag, sessionFlag, tokenFlag, tokenFileFlag, envURL, envSession, envToken string) (config, error) {
	base := urlFlag
	if base == "" {
		base = envURL
	}
	if base == "" {
		base = "http://localhost:8000"
	}
	base = strings.TrimRight(base, "/")

	ws, err := wsBaseURL(base)
	if err != nil {
		return config{}, err
	}

	session := sessionFlag
	if session == "" {
		session = envSession
	}
	if session == "" {
		session = "main"
	}

	// Explicit flags override env; a token file wins over a static token
	// because it supports rotation without restart.
	var tokens parley.TokenSource
	switch {
	case tokenFileFlag != "":
		tokens = api.FileTokenSource(tokenFileFlag)
	case tokenFlag != "":
		tokens = api.StaticTokenSource(tokenFlag)
	case envToken != "":
		tokens = api.StaticTokenSource(envToken)
	default:
		return config{}, fmt.Errorf("no auth token: set PARLEY_TOKEN (or use -token or -token-file)")
	}

	return config{
		baseURL:    base,
		wsURL:      ws,
		sessionKey: session,
		tokens:     tokens,
	}, nil
}

// wsBaseURL maps the HTTP base URL onto the websocket scheme.
func wsBaseURL(base string) (string, error) {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://"), nil
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://"), nil
	default:
		return "", fmt.Errorf("server URL must start with http:// or https://, got %q", base)
	}
}
