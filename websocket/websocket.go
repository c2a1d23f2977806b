// Package websocket implements parley.Transport over a gorilla/websocket
// connection to the assistant service.
package websocket

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/json"
)

// DefaultRetryDelay is the fixed interval between reconnect attempts.
// There is deliberately no backoff ceiling or jitter: the transport serves
// a single long-lived interactive session, not a fleet of clients.
const DefaultRetryDelay = 3 * time.Second

const dialTimeout = 10 * time.Second

// Config carries connection settings for a Client.
type Config struct {
	// BaseURL of the assistant service, e.g. "wss://api.example.com".
	BaseURL string

	// RetryDelay between reconnect attempts. Zero means DefaultRetryDelay.
	RetryDelay time.Duration

	// Dialer overrides the gorilla default dialer. Nil means default.
	Dialer *gorilla.Dialer
}

// Client maintains exactly one logical persistent connection for a session
// key. A failed connection attempt is not distinguished from a
// successful-then-dropped connection: both surface as EventClosed followed
// by a scheduled retry, indefinitely, until Close is called.
type Client struct {
	url        string
	tokens     parley.TokenSource
	dialer     *gorilla.Dialer
	retryDelay time.Duration

	events    chan parley.Event
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex // guards conn and serializes writes
	conn *gorilla.Conn
}

// Interface compliance check.
var _ parley.Transport = (*Client)(nil)

// Open begins maintaining a persistent connection for sessionKey and
// returns immediately. Credentials are acquired from tokens per connection
// attempt and per send, never cached, because they may expire between
// reconnects.
func Open(sessionKey string, tokens parley.TokenSource, cfg Config) *Client {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = gorilla.DefaultDialer
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	c := &Client{
		url:        strings.TrimRight(cfg.BaseURL, "/") + "/api/chat/ws/" + url.PathEscape(sessionKey),
		tokens:     tokens,
		dialer:     dialer,
		retryDelay: delay,
		events:     make(chan parley.Event, 256),
		done:       make(chan struct{}),
	}
	go c.run()
	return c
}

// Events returns the transport's single ordered inbound event channel.
// It is closed when the transport is torn down.
func (c *Client) Events() <-chan parley.Event {
	return c.events
}

// Send transmits one user message as a client frame. It returns
// parley.ErrNotConnected when no connection is open and
// parley.ErrTransportClosed after Close; credential failures surface as
// ErrNotConnected so the caller treats them like any other unavailable
// connection.
func (c *Client) Send(ctx context.Context, text string) error {
	select {
	case <-c.done:
		return parley.ErrTransportClosed
	default:
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return parley.ErrNotConnected
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquire credential: %v", parley.ErrNotConnected, err)
	}
	frame, err := json.MarshalClientFrame(text, token)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(dialTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return parley.ErrNotConnected
	}
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(gorilla.TextMessage, frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close tears the transport down: it closes the active connection and
// cancels any pending reconnect timer, so no connection is ever opened
// against a session no longer in use. The events channel is closed once
// the run loop has exited. Idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
	return nil
}

// run is the connection supervision loop: dial, pump, schedule retry.
func (c *Client) run() {
	defer close(c.events)

	for attempt := 1; ; attempt++ {
		select {
		case <-c.done:
			return
		default:
		}

		c.emit(parley.EventConnecting{Attempt: attempt})

		conn, err := c.dial()
		if err != nil {
			c.emit(parley.EventClosed{Err: err})
		} else {
			c.setConn(conn)
			c.emit(parley.EventOpened{})
			err = c.readLoop(conn)
			c.setConn(nil)
			conn.Close()

			select {
			case <-c.done:
				return
			default:
			}
			c.emit(parley.EventClosed{Err: err})
		}

		timer := time.NewTimer(c.retryDelay)
		select {
		case <-timer.C:
		case <-c.done:
			timer.Stop()
			return
		}
	}
}

// dial performs one connection attempt with a freshly acquired credential.
func (c *Client) dial() (*gorilla.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire credential: %w", err)
	}

	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

// readLoop decodes inbound frames into events until the connection fails.
// Malformed frames are dropped with a diagnostic; they never terminate the
// session.
func (c *Client) readLoop(conn *gorilla.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		evt, err := json.UnmarshalServerFrame(data)
		if err != nil {
			log.Printf("websocket: dropping frame: %v", err)
			continue
		}
		c.emit(evt)
	}
}

func (c *Client) setConn(conn *gorilla.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// emit delivers an event unless the transport has been torn down.
func (c *Client) emit(evt parley.Event) {
	select {
	case c.events <- evt:
	case <-c.done:
	}
}
