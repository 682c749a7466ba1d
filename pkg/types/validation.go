package types

import (
	"regexp"
	"strings"
)

// Compiled once at package initialization; validation runs on every
// inbound send event.
var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidUserID checks user ID format: 1-50 characters, alphanumeric
// plus underscore and hyphen.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 50 {
		return false
	}
	return userIDRegex.MatchString(userID)
}

// Validate ensures the relation meets the pairing invariant: exactly two
// distinct, well-formed members.
func (r *PartnerRelation) Validate() error {
	if r.ID == "" {
		return ErrInvalidRoomID
	}
	if !IsValidUserID(r.MemberA) || !IsValidUserID(r.MemberB) {
		return ErrInvalidUserID
	}
	if r.MemberA == r.MemberB {
		return ErrInvalidRelation
	}
	return nil
}

// ValidateContent rejects empty or whitespace-only content and enforces
// the 64KB content ceiling. Returns the trimmed content on success.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if len(trimmed) > 65536 {
		return "", ErrContentTooLarge
	}
	return trimmed, nil
}
