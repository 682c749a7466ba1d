package types

import (
	"time"
)

// Event type constants defined exactly as specified by the wire protocol
// so both the server session loop and the client controller route on them.
const (
	EventSendMessage    = "send_message"
	EventMessageAck     = "message_ack"
	EventSendError      = "send_error"
	EventMessageHistory = "message_history"
	EventReceiveMessage = "receive_message"
	EventError          = "error"
	EventPing           = "ping"
	EventPong           = "pong"
)

// PartnerRelation is the durable pairing record between exactly two users.
// It is created externally when two users pair; this core only reads it.
type PartnerRelation struct {
	ID      string `json:"id" db:"id"`
	MemberA string `json:"member_a" db:"member_a"`
	MemberB string `json:"member_b" db:"member_b"`
}

// OtherMember resolves the receiver for a message sent by userID.
// The second return is false when userID is not a member of the relation.
func (r *PartnerRelation) OtherMember(userID string) (string, bool) {
	switch userID {
	case r.MemberA:
		return r.MemberB, true
	case r.MemberB:
		return r.MemberA, true
	default:
		return "", false
	}
}

// HasMember reports whether userID is one of the two members.
func (r *PartnerRelation) HasMember(userID string) bool {
	return userID == r.MemberA || userID == r.MemberB
}

// Message is the durable chat record. The server exclusively owns id and
// timestamp assignment; clients never assign a durable id.
type Message struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Event is the single JSON envelope used in both directions over the
// WebSocket transport. Unused fields are omitted on the wire.
type Event struct {
	Type     string     `json:"type"`
	TempID   string     `json:"tempId,omitempty"`
	Content  string     `json:"content,omitempty"`
	Message  *Message   `json:"message,omitempty"`
	Messages []*Message `json:"messages,omitempty"`
	Error    string     `json:"error,omitempty"`
}
