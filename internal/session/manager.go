package session

import (
	"context"
	"errors"
	"log"

	"pairchat/internal/room"
	"pairchat/pkg/interfaces"
	"pairchat/pkg/types"
)

// Close codes for fatal admission failures. Clients must not depend on a
// specific cause; they observe these only as a transport disconnect.
const (
	CloseUnauthorized      = 4401
	CloseNoPartnerRelation = 4404
)

// Conn is the connection surface the session manager needs beyond what
// the room router sees. The concrete WebSocket wrapper satisfies it;
// tests substitute in-memory fakes.
type Conn interface {
	interfaces.Connection

	// SetIdentity records the authenticated user and resolved room.
	SetIdentity(userID, roomID string)

	// ReadEvent blocks for the next inbound event.
	ReadEvent() (*types.Event, error)

	// CloseWithCode closes the connection with a status code.
	CloseWithCode(code int, reason string) error
}

// Manager governs one physical connection end to end: authenticate,
// resolve the partner relation, join the room, replay history, then
// process inbound events until the connection closes.
//
// Failure semantics: authentication and pairing-resolution failures are
// fatal and close the connection before any room is joined. Per-message
// failures are reported back to the sender only; the session stays alive.
type Manager struct {
	identity     interfaces.IdentityProvider
	pairing      interfaces.PairingDirectory
	store        interfaces.MessageStore
	router       *room.Router
	historyLimit int
}

// NewManager creates a session manager with its collaborators.
func NewManager(identity interfaces.IdentityProvider, pairing interfaces.PairingDirectory,
	store interfaces.MessageStore, router *room.Router, historyLimit int) *Manager {
	return &Manager{
		identity:     identity,
		pairing:      pairing,
		store:        store,
		router:       router,
		historyLimit: historyLimit,
	}
}

// Run blocks for the lifetime of the connection.
func (m *Manager) Run(ctx context.Context, conn Conn, token string) {
	userID, err := m.identity.Authenticate(ctx, token)
	if err != nil {
		log.Printf("Connection rejected: unauthenticated: %v", err)
		_ = conn.CloseWithCode(CloseUnauthorized, "unauthorized")
		return
	}

	relation, err := m.pairing.GetPartnerRelation(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNoPartnerRelation) {
			log.Printf("Connection rejected: no partner relation: user=%s", userID)
			_ = conn.CloseWithCode(CloseNoPartnerRelation, "no partner relation")
		} else {
			log.Printf("Pairing lookup failed: user=%s err=%v", userID, err)
			_ = conn.Close()
		}
		return
	}

	conn.SetIdentity(userID, relation.ID)

	if err := m.router.Join(relation.ID, conn); err != nil {
		log.Printf("Room join failed: user=%s room=%s err=%v", userID, relation.ID, err)
		_ = conn.Close()
		return
	}
	defer func() {
		m.router.Leave(conn)
		_ = conn.Close()
		log.Printf("Session ended: user=%s room=%s", userID, relation.ID)
	}()

	log.Printf("Session started: user=%s room=%s", userID, relation.ID)

	// History goes to this connection only, never broadcast, and always
	// before any live message can be observed.
	m.replayHistory(ctx, conn, relation.ID)

	for {
		event, err := conn.ReadEvent()
		if err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		switch event.Type {
		case types.EventPing:
			// Advisory liveness signal; no semantic effect on the session.
			_ = conn.WriteEvent(&types.Event{Type: types.EventPong})

		case types.EventSendMessage:
			m.handleSend(ctx, conn, relation, event)

		default:
			_ = conn.WriteEvent(&types.Event{
				Type:  types.EventError,
				Error: "unknown event type: " + event.Type,
			})
		}
	}
}

// replayHistory pushes the bounded history batch as a single event. A
// store failure here is recoverable: the client is told history is
// unavailable and the session continues.
func (m *Manager) replayHistory(ctx context.Context, conn Conn, roomID string) {
	messages, err := m.store.Recent(ctx, roomID, m.historyLimit)
	if err != nil {
		log.Printf("Failed to load history: room=%s err=%v", roomID, err)
		_ = conn.WriteEvent(&types.Event{
			Type:  types.EventError,
			Error: "message history unavailable",
		})
		return
	}

	_ = conn.WriteEvent(&types.Event{
		Type:     types.EventMessageHistory,
		Messages: messages,
	})
}

// handleSend validates, persists and broadcasts one inbound message.
// Persistence completes before the broadcast so a message is never
// observed live without being durable.
func (m *Manager) handleSend(ctx context.Context, conn Conn, relation *types.PartnerRelation, event *types.Event) {
	content, err := types.ValidateContent(event.Content)
	if err != nil {
		_ = conn.WriteEvent(&types.Event{
			Type:   types.EventSendError,
			TempID: event.TempID,
			Error:  err.Error(),
		})
		return
	}

	receiverID, ok := relation.OtherMember(conn.UserID())
	if !ok {
		_ = conn.WriteEvent(&types.Event{
			Type:   types.EventSendError,
			TempID: event.TempID,
			Error:  "sender is not a member of the room",
		})
		return
	}

	message, err := m.store.Append(ctx, relation.ID, conn.UserID(), receiverID, content)
	if err != nil {
		log.Printf("Failed to persist message: user=%s room=%s err=%v", conn.UserID(), relation.ID, err)
		_ = conn.WriteEvent(&types.Event{
			Type:   types.EventSendError,
			TempID: event.TempID,
			Error:  "failed to store message",
		})
		return
	}

	// Ack carries the persisted record so the sender can reconcile its
	// optimistic entry with the server-assigned id and timestamp.
	_ = conn.WriteEvent(&types.Event{
		Type:    types.EventMessageAck,
		TempID:  event.TempID,
		Message: message,
	})

	// The broadcast includes the sender's own connection so all clients
	// converge on the server-confirmed record.
	m.router.Broadcast(relation.ID, &types.Event{
		Type:    types.EventReceiveMessage,
		Message: message,
	})
}
