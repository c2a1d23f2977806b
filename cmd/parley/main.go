// Command parley is a terminal client for a parley chat server.
//
// Usage:
//
//	PARLEY_TOKEN=... parley [flags]
//
// Flags:
//
//	-url string         Server base URL (default: http://localhost:8000, or PARLEY_URL)
//	-session string     Session key (default: main, or PARLEY_SESSION)
//	-token string       Bearer token (overrides PARLEY_TOKEN)
//	-token-file string  Path to a file holding the bearer token, re-read per request
//	-env string         Path to a .env file to load (default: .env)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/api"
	bt "github.com/parleyhq/parley/bubbletea"
	"github.com/parleyhq/parley/websocket"
)

const defaultEnvPath = ".env"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		urlFlag     = flag.String("url", "", "Server base URL (default: http://localhost:8000)")
		sessionFlag = flag.String("session", "", "Session key (default: main)")
		tokenFlag   = flag.String("token", "", "Bearer token (overrides PARLEY_TOKEN)")
		tokenFile   = flag.String("token-file", "", "Path to a file holding the bearer token")
		envPath     = flag.String("env", defaultEnvPath, "Path to a .env file to load")
	)
	flag.Parse()

	// Load .env before env vars are read. Tolerate a missing default file;
	// fail when an explicitly named file cannot be read.
	if err := godotenv.Load(*envPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) || *envPath != defaultEnvPath {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := resolveConfig(*urlFlag, *sessionFlag, *tokenFlag, *tokenFile,
		os.Getenv("PARLEY_URL"), os.Getenv("PARLEY_SESSION"), os.Getenv("PARLEY_TOKEN"))
	if err != nil {
		return err
	}

	history := &api.Client{BaseURL: cfg.baseURL, Tokens: cfg.tokens}
	store := parley.NewStore()
	controller := parley.NewController(cfg.sessionKey, store, history)
	defer controller.Teardown()

	open := func() parley.Transport {
		return websocket.Open(cfg.sessionKey, cfg.tokens, websocket.Config{BaseURL: cfg.wsURL})
	}

	m := bt.New(controller, open, parley.DefaultTheme())
	if err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}
