package client

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pairchat/pkg/types"
)

// Phase is the client connection lifecycle state.
type Phase string

const (
	PhaseDisconnected Phase = "disconnected"
	PhaseConnecting   Phase = "connecting"
	PhaseConnected    Phase = "connected"
	PhaseReconnecting Phase = "reconnecting"
)

// ConnectionState is the connection status snapshot surfaced to the UI.
// The UI treats any phase other than connected as "chat unavailable";
// LastError annotates the phase, it is not a phase of its own.
type ConnectionState struct {
	Phase     Phase
	LastError string
}

// Controller owns the transport lifecycle on the client and presents a
// single reconciled message list plus connection status to the UI. All
// state mutations happen under one mutex; transport callbacks arrive on a
// single goroutine and user calls may come from any.
//
// A controller drives one transport for its lifetime: after Disconnect a
// fresh controller (and transport) is built for the next mount, so
// multiple instances can coexist without stomping each other's timers.
type Controller struct {
	transport         Transport
	selfID            string
	heartbeatInterval time.Duration

	mu        sync.Mutex
	phase     Phase
	lastError string
	messages  []*ClientMessage
	confirmed map[string]*ClientMessage // server id -> entry, for idempotent merge
	pending   map[string]*ClientMessage // temp id -> entry, until ack or error
	hbStop    chan struct{}
	lastPong  time.Time
}

// NewController creates a controller for the given local user identity.
// The identity is used to derive each message's display side.
func NewController(transport Transport, selfID string) *Controller {
	return &Controller{
		transport:         transport,
		selfID:            selfID,
		heartbeatInterval: 30 * time.Second,
		phase:             PhaseDisconnected,
		confirmed:         make(map[string]*ClientMessage),
		pending:           make(map[string]*ClientMessage),
	}
}

// Connect opens the transport and starts the heartbeat. Idempotent: a
// second call while connecting or connected is a no-op, so rapid
// mount/remount never establishes a duplicate transport or timer. The
// call returns once the connection attempt is dispatched; success arrives
// asynchronously as a phase transition.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.phase = PhaseConnecting
	c.startHeartbeatLocked()
	c.mu.Unlock()

	if err := c.transport.Start(ctx, c); err != nil {
		c.mu.Lock()
		c.stopHeartbeatLocked()
		c.phase = PhaseDisconnected
		c.lastError = err.Error()
		c.mu.Unlock()
		return err
	}
	return nil
}

// Disconnect stops the heartbeat, closes the transport and resets the
// phase. Idempotent and safe to call from both an unmount path and an
// explicit logout. The heartbeat is stopped synchronously before the
// transport closes, so no late tick can resurrect a torn-down session.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	c.stopHeartbeatLocked()
	c.phase = PhaseDisconnected
	c.lastError = ""
	c.mu.Unlock()

	return c.transport.Close()
}

// SendMessage optimistically appends a sending entry and emits the send
// event carrying a temp id for correlation. It never blocks on the
// network round-trip. Fails with ErrNotConnected, without mutating any
// state, when the connection is not established.
func (c *Controller) SendMessage(content string) (string, error) {
	c.mu.Lock()
	if c.phase != PhaseConnected {
		c.mu.Unlock()
		return "", ErrNotConnected
	}

	tempID := uuid.New().String()
	entry := &ClientMessage{
		TempID:    tempID,
		SenderID:  c.selfID,
		Content:   content,
		CreatedAt: time.Now(),
		Status:    StatusSending,
		Own:       true,
	}
	c.messages = append(c.messages, entry)
	c.pending[tempID] = entry
	c.mu.Unlock()

	err := c.transport.Send(&types.Event{
		Type:    types.EventSendMessage,
		TempID:  tempID,
		Content: content,
	})
	if err != nil {
		// The entry is retained in error state so the user can see the
		// failure and retry.
		c.mu.Lock()
		c.resolvePendingLocked(tempID, StatusError, nil)
		c.mu.Unlock()
		return tempID, err
	}

	return tempID, nil
}

// Messages returns a snapshot of the message list ordered by createdAt,
// not by arrival order, to tolerate out-of-order broadcast delivery under
// concurrent sends.
func (c *Controller) Messages() []ClientMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]ClientMessage, len(c.messages))
	for i, entry := range c.messages {
		snapshot[i] = *entry
	}
	sort.SliceStable(snapshot, func(i, j int) bool {
		if !snapshot[i].CreatedAt.Equal(snapshot[j].CreatedAt) {
			return snapshot[i].CreatedAt.Before(snapshot[j].CreatedAt)
		}
		return snapshot[i].ID < snapshot[j].ID
	})
	return snapshot
}

// State returns the current connection status snapshot.
func (c *Controller) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConnectionState{Phase: c.phase, LastError: c.lastError}
}

// LastPong returns the time of the most recent heartbeat response.
// Advisory only.
func (c *Controller) LastPong() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPong
}

// OnConnect implements EventHandler.
func (c *Controller) OnConnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseDisconnected {
		// Torn down while the transport was still connecting.
		return
	}
	c.phase = PhaseConnected
	c.lastError = ""
}

// OnDisconnect implements EventHandler. The transport's disconnect is
// authoritative: in-flight sends can no longer be acknowledged, so every
// pending sending entry resolves to error.
func (c *Controller) OnDisconnect(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseDisconnected {
		return
	}
	c.phase = PhaseReconnecting
	if err != nil {
		c.lastError = err.Error()
	}

	for tempID := range c.pending {
		c.resolvePendingLocked(tempID, StatusError, nil)
	}
}

// OnReconnectAttempt implements EventHandler. The attempt counter is
// surfaced through LastError for user-facing display.
func (c *Controller) OnReconnectAttempt(attempt int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseDisconnected {
		return
	}
	c.phase = PhaseReconnecting
	c.lastError = fmt.Sprintf("Reconnecting (attempt %d)", attempt)
}

// OnEvent implements EventHandler.
func (c *Controller) OnEvent(event *types.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseDisconnected {
		return
	}

	switch event.Type {
	case types.EventMessageHistory:
		// History is server-confirmed by definition; the idempotent merge
		// tolerates duplicates from a replay after reconnect.
		for _, message := range event.Messages {
			c.mergeConfirmedLocked(message)
		}

	case types.EventReceiveMessage:
		c.mergeConfirmedLocked(event.Message)

	case types.EventMessageAck:
		c.resolvePendingLocked(event.TempID, StatusSent, event.Message)

	case types.EventSendError:
		c.resolvePendingLocked(event.TempID, StatusError, nil)

	case types.EventPong:
		c.lastPong = time.Now()

	case types.EventError:
		// Session-local server error; annotate, never degrade the phase.
		if event.Error != "" {
			c.lastError = event.Error
		}

	default:
		log.Printf("Ignoring unknown event type: %s", event.Type)
	}
}

// mergeConfirmedLocked appends a server-confirmed message, skipping
// records already present so replays and the sender's own broadcast echo
// never duplicate entries.
func (c *Controller) mergeConfirmedLocked(message *types.Message) {
	if message == nil || message.ID == "" {
		return
	}
	if _, exists := c.confirmed[message.ID]; exists {
		return
	}

	entry := &ClientMessage{
		ID:         message.ID,
		RoomID:     message.RoomID,
		SenderID:   message.SenderID,
		ReceiverID: message.ReceiverID,
		Content:    message.Content,
		CreatedAt:  message.CreatedAt,
		Status:     StatusSent,
		Own:        message.SenderID == c.selfID,
	}
	c.confirmed[message.ID] = entry
	c.messages = append(c.messages, entry)
}

// resolvePendingLocked transitions the optimistic entry matching tempID
// to its terminal status and discards the correlation. On an ack the
// server-assigned fields replace the optimistic ones, and the entry is
// registered as confirmed so the broadcast echo merges into it instead of
// duplicating.
func (c *Controller) resolvePendingLocked(tempID string, to Status, message *types.Message) {
	entry, exists := c.pending[tempID]
	if !exists {
		return
	}
	if !entry.transition(to) {
		return
	}
	delete(c.pending, tempID)

	if to == StatusSent && message != nil {
		entry.ID = message.ID
		entry.RoomID = message.RoomID
		entry.ReceiverID = message.ReceiverID
		entry.CreatedAt = message.CreatedAt
		c.confirmed[message.ID] = entry
	}
}

// startHeartbeatLocked launches the heartbeat goroutine if none is
// running. The stop channel is an instance field, never shared state, so
// concurrent controllers cannot stomp each other's timers.
func (c *Controller) startHeartbeatLocked() {
	if c.hbStop != nil {
		return
	}
	stop := make(chan struct{})
	c.hbStop = stop

	go func() {
		ticker := time.NewTicker(c.heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// Ping failures are advisory and do not change phase; the
				// transport's own disconnect event is authoritative.
				_ = c.transport.Send(&types.Event{Type: types.EventPing})
			case <-stop:
				return
			}
		}
	}()
}

// stopHeartbeatLocked stops the heartbeat goroutine synchronously with
// respect to state: once it runs, no further tick can send.
func (c *Controller) stopHeartbeatLocked() {
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
}
