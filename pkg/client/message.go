package client

import "time"

// Status is the per-message delivery state tracked on the client.
type Status string

const (
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	// Delivered and read are defined as terminal refinements of sent but
	// have no producer yet: nothing in the protocol emits them. They need
	// an explicit acknowledgment channel (e.g. a mark_read event) before
	// any transition can target them.
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusError     Status = "error"
)

// ClientMessage is the client's view of one message: the durable fields
// once known, plus delivery status and the temp id used to correlate an
// optimistic entry with its server-confirmed counterpart.
type ClientMessage struct {
	ID         string    `json:"id,omitempty"`
	TempID     string    `json:"tempId,omitempty"`
	RoomID     string    `json:"roomId,omitempty"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     Status    `json:"status"`
	// Own is true for messages originated by the local user.
	Own bool `json:"own"`
}

// transition advances the delivery state machine. Only an optimistic
// sending entry is mutable, and it may move to exactly one of sent or
// error; once it does, the entry is immutable. Returns false for any
// other requested transition.
func (m *ClientMessage) transition(to Status) bool {
	if m.Status != StatusSending {
		return false
	}
	if to != StatusSent && to != StatusError {
		return false
	}
	m.Status = to
	return true
}
