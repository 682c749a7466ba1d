package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pairchat/pkg/types"
)

// WebSocketTransport implements Transport over gorilla/websocket with a
// fixed-interval redial loop. One goroutine owns dialing and reading, so
// all handler callbacks are serialized.
type WebSocketTransport struct {
	url           string
	retryInterval time.Duration

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	cancel  context.CancelFunc
	started bool
	closed  bool
}

// NewWebSocketTransport builds a transport for the server's /ws endpoint.
// The bearer token rides as a query parameter because browser WebSocket
// clients cannot set request headers.
func NewWebSocketTransport(serverURL, token string) (*WebSocketTransport, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	query := u.Query()
	query.Set("token", token)
	u.RawQuery = query.Encode()

	return &WebSocketTransport{
		url:           u.String(),
		retryInterval: 3 * time.Second,
	}, nil
}

// Start launches the dial/read goroutine and returns immediately.
func (t *WebSocketTransport) Start(ctx context.Context, handler EventHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	go t.run(runCtx, handler)
	return nil
}

// run dials, reads until the connection drops, then redials until the
// transport is closed. The attempt counter resets on every successful
// connection.
func (t *WebSocketTransport) run(ctx context.Context, handler EventHandler) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
		if err != nil {
			attempt++
			handler.OnReconnectAttempt(attempt)
			select {
			case <-time.After(t.retryInterval):
				continue
			case <-ctx.Done():
				return
			}
		}

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			_ = conn.Close()
			return
		}
		t.conn = conn
		t.mu.Unlock()

		attempt = 0
		handler.OnConnect()

		readErr := t.readLoop(conn, handler)

		t.mu.Lock()
		t.conn = nil
		closed := t.closed
		t.mu.Unlock()
		if closed || ctx.Err() != nil {
			return
		}

		handler.OnDisconnect(readErr)
		attempt++
		handler.OnReconnectAttempt(attempt)
		select {
		case <-time.After(t.retryInterval):
		case <-ctx.Done():
			return
		}
	}
}

// readLoop delivers inbound events until the connection fails.
func (t *WebSocketTransport) readLoop(conn *websocket.Conn, handler EventHandler) error {
	for {
		var event types.Event
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		handler.OnEvent(&event)
	}
}

// Send transmits one event over the current connection. Writes are
// serialized; the heartbeat goroutine and senders may race otherwise.
func (t *WebSocketTransport) Send(event *types.Event) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return conn.WriteJSON(event)
}

// Close permanently tears the transport down. Idempotent.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.conn = nil
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}
