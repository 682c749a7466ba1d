package room

import (
	"log"
	"sync"

	"pairchat/pkg/interfaces"
	"pairchat/pkg/types"
)

// Router maintains the set of live connections per room and fans events
// out to all members. Pure connection bookkeeping: no persistence and no
// session logic. Rooms hold at most two members, so a single RWMutex over
// the whole table is sufficient.
type Router struct {
	mu    sync.RWMutex
	rooms map[string]map[string]interfaces.Connection // roomID -> userID -> Connection
}

// NewRouter creates an empty broadcast router.
func NewRouter() *Router {
	return &Router{
		rooms: make(map[string]map[string]interfaces.Connection),
	}
}

// Join adds a connection to its room's set. A connection belongs to at
// most one room, and a user holds at most one live connection per room:
// joining with a user that already has a connection replaces it, and the
// stale connection is closed asynchronously to avoid holding the lock
// through a close.
func (r *Router) Join(roomID string, conn interfaces.Connection) error {
	if conn == nil {
		return ErrNilConnection
	}
	userID := conn.UserID()
	if userID == "" {
		return ErrConnectionNotAuthenticated
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomID]
	if members == nil {
		members = make(map[string]interfaces.Connection)
		r.rooms[roomID] = members
	}

	if existing, exists := members[userID]; exists && existing != conn {
		go func() {
			if err := existing.Close(); err != nil {
				log.Printf("Failed to close replaced connection: user=%s err=%v", userID, err)
			}
		}()
	}

	members[userID] = conn
	return nil
}

// Leave removes a connection from whatever room it is in. No-op if the
// connection never joined, and a no-op if a newer connection for the same
// user has since replaced this one, so stale cleanup can never evict a
// live member.
func (r *Router) Leave(conn interfaces.Connection) {
	if conn == nil {
		return
	}
	roomID := conn.RoomID()
	userID := conn.UserID()
	if roomID == "" || userID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, exists := r.rooms[roomID]
	if !exists {
		return
	}
	if registered, exists := members[userID]; !exists || registered != conn {
		return
	}

	delete(members, userID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Broadcast delivers an event to every connection currently in the room,
// best-effort per connection: a delivery failure to one member must not
// block delivery to the other. Broadcasting to an empty room is a legal
// no-op.
func (r *Router) Broadcast(roomID string, event *types.Event) {
	r.mu.RLock()
	connections := make([]interfaces.Connection, 0, 2)
	for _, conn := range r.rooms[roomID] {
		connections = append(connections, conn)
	}
	r.mu.RUnlock()

	for _, conn := range connections {
		if err := conn.WriteEvent(event); err != nil {
			log.Printf("Failed to deliver broadcast to %s in room %s: %v", conn.UserID(), roomID, err)
		}
	}
}

// MemberCount returns the number of live connections in a room.
func (r *Router) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// Stats returns router statistics for the stats endpoint.
func (r *Router) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, members := range r.rooms {
		total += len(members)
	}

	return map[string]int{
		"active_rooms":      len(r.rooms),
		"total_connections": total,
	}
}
