package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/mock"
	"github.com/parleyhq/parley/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer is a scripted websocket endpoint. Accepted connections and
// their Authorization headers are delivered on channels so tests can drive
// the server side of the conversation.
type chatServer struct {
	srv   *httptest.Server
	conns chan *gorilla.Conn
	auths chan string
	paths chan string
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()
	s := &chatServer{
		conns: make(chan *gorilla.Conn, 8),
		auths: make(chan string, 8),
		paths: make(chan string, 8),
	}
	upgrader := gorilla.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.auths <- r.Header.Get("Authorization")
		s.paths <- r.URL.Path
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *chatServer) baseURL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *chatServer) accept(t *testing.T) *gorilla.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a connection")
		return nil
	}
}

func nextEvent(t *testing.T, ch <-chan parley.Event) parley.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

func TestClient_StreamEpisode(t *testing.T) {
	t.Parallel()

	server := newChatServer(t)
	client := websocket.Open("sess-1", &mock.TokenSource{}, websocket.Config{BaseURL: server.baseURL()})
	defer client.Close()

	assert.Equal(t, parley.EventConnecting{Attempt: 1}, nextEvent(t, client.Events()))
	assert.Equal(t, parley.EventOpened{}, nextEvent(t, client.Events()))

	assert.Equal(t, "Bearer test-token", <-server.auths)
	assert.Equal(t, "/api/chat/ws/sess-1", <-server.paths)
	conn := server.accept(t)

	require.NoError(t, client.Send(context.Background(), "Status?"))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]string
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "Status?", frame["message"])
	assert.Equal(t, "test-token", frame["token"])

	for _, payload := range []string{
		`{"type":"chunk","content":"Re"}`,
		`{"type":"chunk","content":"sult: "}`,
		`{"type":"chunk","content":"ok"}`,
		`{"type":"done"}`,
	} {
		require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(payload)))
	}

	assert.Equal(t, parley.EventFragment{Text: "Re"}, nextEvent(t, client.Events()))
	assert.Equal(t, parley.EventFragment{Text: "sult: "}, nextEvent(t, client.Events()))
	assert.Equal(t, parley.EventFragment{Text: "ok"}, nextEvent(t, client.Events()))
	assert.Equal(t, parley.EventCompleted{}, nextEvent(t, client.Events()))
}

func TestClient_ServerErrorFrame(t *testing.T) {
	t.Parallel()

	server := newChatServer(t)
	client := websocket.Open("sess-1", &mock.TokenSource{}, websocket.Config{BaseURL: server.baseURL()})
	defer client.Close()

	nextEvent(t, client.Events()) // connecting
	nextEvent(t, client.Events()) // opened
	conn := server.accept(t)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"error","content":"rate limited"}`)))
	assert.Equal(t, parley.EventServerError{Message: "rate limited"}, nextEvent(t, client.Events()))
}

func TestClient_MalformedFrameDropped(t *testing.T) {
	t.Parallel()

	server := newChatServer(t)
	client := websocket.Open("sess-1", &mock.TokenSource{}, websocket.Config{BaseURL: server.baseURL()})
	defer client.Close()

	nextEvent(t, client.Events()) // connecting
	nextEvent(t, client.Events()) // opened
	conn := server.accept(t)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{oops`)))
	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"ping"}`)))
	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"chunk","content":"ok"}`)))

	// Only the well-formed chunk survives; the session keeps running.
	assert.Equal(t, parley.EventFragment{Text: "ok"}, nextEvent(t, client.Events()))
}

func TestClient_ReconnectAfterDrop(t *testing.T) {
	t.Parallel()

	server := newChatServer(t)
	client := websocket.Open("sess-1", &mock.TokenSource{}, websocket.Config{
		BaseURL:    server.baseURL(),
		RetryDelay: 25 * time.Millisecond,
	})
	defer client.Close()

	assert.Equal(t, parley.EventConnecting{Attempt: 1}, nextEvent(t, client.Events()))
	assert.Equal(t, parley.EventOpened{}, nextEvent(t, client.Events()))
	conn := server.accept(t)

	conn.Close()

	closed, ok := nextEvent(t, client.Events()).(parley.EventClosed)
	require.True(t, ok)
	assert.Error(t, closed.Err)

	assert.Equal(t, parley.EventConnecting{Attempt: 2}, nextEvent(t, client.Events()))
	assert.Equal(t, parley.EventOpened{}, nextEvent(t, client.Events()))
	server.accept(t)
}

func TestClient_CloseCancelsPendingReconnect(t *testing.T) {
	t.Parallel()

	server := newChatServer(t)
	client := websocket.Open("sess-1", &mock.TokenSource{}, websocket.Config{
		BaseURL:    server.baseURL(),
		RetryDelay: 60 * time.Millisecond,
	})

	nextEvent(t, client.Events()) // connecting
	nextEvent(t, client.Events()) // opened
	conn := server.accept(t)

	// Drop the connection, then tear down while the reconnect is pending.
	conn.Close()
	_, ok := nextEvent(t, client.Events()).(parley.EventClosed)
	require.True(t, ok)
	require.NoError(t, client.Close())

	// The run loop exits and closes the event channel.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-client.Events():
			if !open {
				goto drained
			}
		case <-deadline:
			t.Fatal("event channel never closed after Close")
		}
	}
drained:

	// No connection may be opened against a torn-down session.
	select {
	case <-server.conns:
		t.Fatal("reconnect fired after Close")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestClient_SendErrors(t *testing.T) {
	t.Parallel()

	t.Run("not connected", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))
		t.Cleanup(srv.Close)

		client := websocket.Open("sess-1", &mock.TokenSource{}, websocket.Config{
			BaseURL:    "ws" + strings.TrimPrefix(srv.URL, "http"),
			RetryDelay: 10 * time.Millisecond,
		})
		defer client.Close()

		nextEvent(t, client.Events()) // connecting
		closed, ok := nextEvent(t, client.Events()).(parley.EventClosed)
		require.True(t, ok)
		assert.Error(t, closed.Err)

		assert.ErrorIs(t, client.Send(context.Background(), "hi"), parley.ErrNotConnected)
	})

	t.Run("after close", func(t *testing.T) {
		t.Parallel()

		server := newChatServer(t)
		client := websocket.Open("sess-1", &mock.TokenSource{}, websocket.Config{BaseURL: server.baseURL()})
		require.NoError(t, client.Close())

		assert.ErrorIs(t, client.Send(context.Background(), "hi"), parley.ErrTransportClosed)
	})
}

func TestClient_CredentialPerAttempt(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	var calls atomic.Int32
	tokens := &mock.TokenSource{
		TokenFn: func(ctx context.Context) (string, error) {
			calls.Add(1)
			return "tok", nil
		},
	}
	client := websocket.Open("sess-1", tokens, websocket.Config{
		BaseURL:    "ws" + strings.TrimPrefix(srv.URL, "http"),
		RetryDelay: 10 * time.Millisecond,
	})
	defer client.Close()

	// Credentials are re-acquired for every attempt, not hoisted above
	// the retry loop.
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestClient_CredentialFailureRoutesThroughClosed(t *testing.T) {
	t.Parallel()

	tokens := &mock.TokenSource{
		TokenFn: func(ctx context.Context) (string, error) {
			return "", context.DeadlineExceeded
		},
	}
	client := websocket.Open("sess-1", tokens, websocket.Config{
		BaseURL:    "ws://127.0.0.1:0",
		RetryDelay: 10 * time.Millisecond,
	})
	defer client.Close()

	nextEvent(t, client.Events()) // connecting
	closed, ok := nextEvent(t, client.Events()).(parley.EventClosed)
	require.True(t, ok)
	assert.Error(t, closed.Err)

	// And the retry loop keeps going.
	assert.Equal(t, parley.EventConnecting{Attempt: 2}, nextEvent(t, client.Events()))
}
