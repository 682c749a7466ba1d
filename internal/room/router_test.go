package room

import (
	"sync"
	"testing"
	"time"

	"pairchat/pkg/types"
)

// fakeConn records delivered events for assertions.
type fakeConn struct {
	userID string
	roomID string

	mu     sync.Mutex
	events []*types.Event
	closed bool
}

func newFakeConn(userID, roomID string) *fakeConn {
	return &fakeConn{userID: userID, roomID: roomID}
}

func (c *fakeConn) WriteEvent(event *types.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) UserID() string { return c.userID }
func (c *fakeConn) RoomID() string { return c.roomID }

func (c *fakeConn) eventCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestRouter_JoinValidation(t *testing.T) {
	router := NewRouter()

	if err := router.Join("room1", nil); err != ErrNilConnection {
		t.Errorf("Expected ErrNilConnection, got %v", err)
	}

	if err := router.Join("room1", newFakeConn("", "room1")); err != ErrConnectionNotAuthenticated {
		t.Errorf("Expected ErrConnectionNotAuthenticated, got %v", err)
	}
}

func TestRouter_BroadcastReachesAllMembers(t *testing.T) {
	router := NewRouter()
	alice := newFakeConn("alice", "room1")
	bob := newFakeConn("bob", "room1")

	if err := router.Join("room1", alice); err != nil {
		t.Fatalf("Failed to join alice: %v", err)
	}
	if err := router.Join("room1", bob); err != nil {
		t.Fatalf("Failed to join bob: %v", err)
	}

	router.Broadcast("room1", &types.Event{Type: types.EventReceiveMessage})

	if alice.eventCount() != 1 {
		t.Errorf("Expected alice to receive 1 event, got %d", alice.eventCount())
	}
	if bob.eventCount() != 1 {
		t.Errorf("Expected bob to receive 1 event, got %d", bob.eventCount())
	}
}

func TestRouter_BroadcastEmptyRoomIsNoOp(t *testing.T) {
	router := NewRouter()
	// Must not panic or error.
	router.Broadcast("empty-room", &types.Event{Type: types.EventReceiveMessage})
}

func TestRouter_BroadcastSkipsOtherRooms(t *testing.T) {
	router := NewRouter()
	alice := newFakeConn("alice", "room1")
	carol := newFakeConn("carol", "room2")

	_ = router.Join("room1", alice)
	_ = router.Join("room2", carol)

	router.Broadcast("room1", &types.Event{Type: types.EventReceiveMessage})

	if carol.eventCount() != 0 {
		t.Errorf("Expected no delivery outside the room, got %d events", carol.eventCount())
	}
}

func TestRouter_LeaveIsIdempotent(t *testing.T) {
	router := NewRouter()
	alice := newFakeConn("alice", "room1")

	_ = router.Join("room1", alice)
	router.Leave(alice)
	router.Leave(alice) // Second leave is a no-op
	router.Leave(newFakeConn("bob", "room1")) // Never joined

	if count := router.MemberCount("room1"); count != 0 {
		t.Errorf("Expected empty room after leave, got %d members", count)
	}
}

func TestRouter_ReplacementClosesStaleConnection(t *testing.T) {
	router := NewRouter()
	first := newFakeConn("alice", "room1")
	second := newFakeConn("alice", "room1")

	_ = router.Join("room1", first)
	_ = router.Join("room1", second)

	// The stale connection is closed asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for !first.isClosed() {
		if time.Now().After(deadline) {
			t.Fatal("Replaced connection was never closed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if count := router.MemberCount("room1"); count != 1 {
		t.Errorf("Expected exactly one member after replacement, got %d", count)
	}

	// The stale connection leaving must not evict the live replacement.
	router.Leave(first)
	if count := router.MemberCount("room1"); count != 1 {
		t.Errorf("Expected replacement to survive stale leave, got %d members", count)
	}

	router.Broadcast("room1", &types.Event{Type: types.EventReceiveMessage})
	if second.eventCount() != 1 {
		t.Errorf("Expected replacement connection to receive broadcast, got %d", second.eventCount())
	}
}

func TestRouter_ConcurrentJoinLeaveBroadcast(t *testing.T) {
	router := NewRouter()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			conn := newFakeConn("alice", "room1")
			if n%2 == 0 {
				conn = newFakeConn("bob", "room1")
			}
			_ = router.Join("room1", conn)
			router.Broadcast("room1", &types.Event{Type: types.EventReceiveMessage})
			router.Leave(conn)
		}(i)
	}
	wg.Wait()

	stats := router.Stats()
	if stats["total_connections"] != 0 {
		t.Errorf("Expected all connections cleaned up, got %d", stats["total_connections"])
	}
}

func TestRouter_Stats(t *testing.T) {
	router := NewRouter()
	_ = router.Join("room1", newFakeConn("alice", "room1"))
	_ = router.Join("room1", newFakeConn("bob", "room1"))
	_ = router.Join("room2", newFakeConn("carol", "room2"))

	stats := router.Stats()
	if stats["active_rooms"] != 2 {
		t.Errorf("Expected 2 active rooms, got %d", stats["active_rooms"])
	}
	if stats["total_connections"] != 3 {
		t.Errorf("Expected 3 connections, got %d", stats["total_connections"])
	}
}
