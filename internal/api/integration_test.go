package api

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pairchat/internal/session"
	"pairchat/pkg/client"
)

// waitFor polls until check passes or the deadline expires.
func waitFor(t *testing.T, desc string, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", desc)
}

func connectClient(t *testing.T, stack *testStack, userID string) *client.Controller {
	t.Helper()

	transport, err := client.NewWebSocketTransport(stack.server.URL, stack.token(t, userID))
	if err != nil {
		t.Fatalf("Failed to create transport: %v", err)
	}
	controller := client.NewController(transport, userID)
	if err := controller.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect %s: %v", userID, err)
	}
	t.Cleanup(func() { _ = controller.Disconnect() })

	waitFor(t, userID+" to connect", func() bool {
		return controller.State().Phase == client.PhaseConnected
	})
	return controller
}

func TestIntegration_SendAndReceive(t *testing.T) {
	stack := newTestStack(t)
	if _, err := stack.directory.Pair("alice", "bob"); err != nil {
		t.Fatalf("Failed to pair users: %v", err)
	}

	alice := connectClient(t, stack, "alice")
	bob := connectClient(t, stack, "bob")

	tempID, err := alice.SendMessage("hello")
	if err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}

	waitFor(t, "alice's message to be acknowledged", func() bool {
		msgs := alice.Messages()
		return len(msgs) == 1 && msgs[0].Status == client.StatusSent
	})

	sent := alice.Messages()[0]
	if sent.TempID != tempID {
		t.Errorf("Expected temp ID %q, got %q", tempID, sent.TempID)
	}
	if sent.ID == "" {
		t.Error("Expected acknowledged message to carry a server ID")
	}
	if !sent.Own {
		t.Error("Expected sender's copy to be marked own")
	}

	waitFor(t, "bob to receive the message", func() bool {
		return len(bob.Messages()) == 1
	})

	received := bob.Messages()[0]
	if received.Content != "hello" {
		t.Errorf("Expected content %q, got %q", "hello", received.Content)
	}
	if received.SenderID != "alice" {
		t.Errorf("Expected sender alice, got %q", received.SenderID)
	}
	if received.Own {
		t.Error("Expected partner's copy to not be marked own")
	}
	if received.ID != sent.ID {
		t.Errorf("Expected both sides to agree on message ID: %q vs %q", sent.ID, received.ID)
	}

	// The sender also receives the room broadcast. The acknowledged entry
	// must absorb it rather than duplicating.
	time.Sleep(100 * time.Millisecond)
	if got := len(alice.Messages()); got != 1 {
		t.Errorf("Expected exactly 1 message on alice after broadcast echo, got %d", got)
	}
}

func TestIntegration_HistoryReplayAfterReconnect(t *testing.T) {
	stack := newTestStack(t)
	if _, err := stack.directory.Pair("alice", "bob"); err != nil {
		t.Fatalf("Failed to pair users: %v", err)
	}

	// Alice sends while bob is offline.
	alice := connectClient(t, stack, "alice")
	if _, err := alice.SendMessage("are you there?"); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
	waitFor(t, "message to be persisted", func() bool {
		msgs := alice.Messages()
		return len(msgs) == 1 && msgs[0].Status == client.StatusSent
	})

	// Bob connects later and gets the message from history replay.
	bob := connectClient(t, stack, "bob")
	waitFor(t, "bob to replay history", func() bool {
		return len(bob.Messages()) == 1
	})

	replayed := bob.Messages()[0]
	if replayed.Content != "are you there?" {
		t.Errorf("Expected replayed content, got %q", replayed.Content)
	}
	if replayed.SenderID != "alice" {
		t.Errorf("Expected sender alice, got %q", replayed.SenderID)
	}
}

func TestIntegration_EmptyMessageRejected(t *testing.T) {
	stack := newTestStack(t)
	if _, err := stack.directory.Pair("alice", "bob"); err != nil {
		t.Fatalf("Failed to pair users: %v", err)
	}

	alice := connectClient(t, stack, "alice")

	if _, err := alice.SendMessage("   "); err != nil {
		t.Fatalf("SendMessage should dispatch optimistically: %v", err)
	}
	waitFor(t, "server to reject the empty message", func() bool {
		msgs := alice.Messages()
		return len(msgs) == 1 && msgs[0].Status == client.StatusError
	})

	// The session survives the rejection. A valid message still goes through.
	if _, err := alice.SendMessage("real content"); err != nil {
		t.Fatalf("Failed to send follow-up: %v", err)
	}
	waitFor(t, "follow-up message to be acknowledged", func() bool {
		for _, m := range alice.Messages() {
			if m.Content == "real content" && m.Status == client.StatusSent {
				return true
			}
		}
		return false
	})
}

func dialRaw(t *testing.T, stack *testStack, token string) (*websocket.Conn, error) {
	t.Helper()
	wsURL := strings.Replace(stack.server.URL, "http://", "ws://", 1) + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	return conn, err
}

func TestIntegration_InvalidTokenClosed(t *testing.T) {
	stack := newTestStack(t)

	conn, err := dialRaw(t, stack, "not-a-token")
	if err != nil {
		t.Fatalf("Dial should succeed before the auth close: %v", err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, session.CloseUnauthorized) {
		t.Errorf("Expected close code %d, got %v", session.CloseUnauthorized, err)
	}
}

func TestIntegration_UnpairedUserClosed(t *testing.T) {
	stack := newTestStack(t)

	conn, err := dialRaw(t, stack, stack.token(t, "carol"))
	if err != nil {
		t.Fatalf("Dial should succeed before the pairing close: %v", err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, session.CloseNoPartnerRelation) {
		t.Errorf("Expected close code %d, got %v", session.CloseNoPartnerRelation, err)
	}
}
