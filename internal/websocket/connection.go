package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pairchat/pkg/types"
)

// Connection wraps one server-side WebSocket. All writes go through a
// single writer goroutine so broadcasts, acks and pongs never interleave
// on the wire. Identity fields are set once by the session manager after
// authentication and guarded for concurrent readers.
type Connection struct {
	conn         *websocket.Conn
	writeCh      chan []byte
	writeTimeout time.Duration
	readTimeout  time.Duration
	userID       string
	roomID       string
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once
	mu           sync.RWMutex
}

// Options configures connection timeouts and buffering.
type Options struct {
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	SendBuffer   int
}

// DefaultOptions returns the timeouts used in production: the read
// timeout is twice the client heartbeat interval so one lost ping never
// drops a healthy connection.
func DefaultOptions() Options {
	return Options{
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
		SendBuffer:   100,
	}
}

// NewConnection wraps an upgraded WebSocket and starts its writer
// goroutine.
func NewConnection(conn *websocket.Conn, opts Options) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:         conn,
		writeCh:      make(chan []byte, opts.SendBuffer),
		writeTimeout: opts.WriteTimeout,
		readTimeout:  opts.ReadTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}

	go c.writeLoop()

	return c
}

// writeLoop is the single writer for the underlying socket.
func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// WriteEvent queues an event for delivery. Safe for concurrent use.
func (c *Connection) WriteEvent(event *types.Event) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(event)
	if err != nil {
		return ErrInvalidJSON
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(c.writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// ReadEvent reads the next inbound event. The read deadline resets on
// every call, so any client traffic (including heartbeat pings) keeps the
// connection alive.
func (c *Connection) ReadEvent() (*types.Event, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return nil, err
	}

	var event types.Event
	if err := c.conn.ReadJSON(&event); err != nil {
		return nil, err
	}
	return &event, nil
}

// SetIdentity records the authenticated user and resolved room. Called
// exactly once by the session manager before the room join.
func (c *Connection) SetIdentity(userID, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.roomID = roomID
}

// UserID returns the authenticated user's ID.
func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// RoomID returns the joined room's ID.
func (c *Connection) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// CloseWithCode sends a close frame with the given status code before
// tearing the connection down. Used for fatal admission failures.
func (c *Connection) CloseWithCode(code int, reason string) error {
	deadline := time.Now().Add(c.writeTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	return c.Close()
}

// Close tears down the connection. Idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}
