package types

import (
	"strings"
	"testing"
)

func TestPartnerRelation_OtherMember(t *testing.T) {
	relation := &PartnerRelation{ID: "room1", MemberA: "alice", MemberB: "bob"}

	other, ok := relation.OtherMember("alice")
	if !ok || other != "bob" {
		t.Errorf("Expected bob for alice, got %q ok=%v", other, ok)
	}

	other, ok = relation.OtherMember("bob")
	if !ok || other != "alice" {
		t.Errorf("Expected alice for bob, got %q ok=%v", other, ok)
	}

	_, ok = relation.OtherMember("mallory")
	if ok {
		t.Error("Expected no receiver for a non-member")
	}
}

func TestPartnerRelation_Validate(t *testing.T) {
	valid := &PartnerRelation{ID: "room1", MemberA: "alice", MemberB: "bob"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid relation, got %v", err)
	}

	sameMember := &PartnerRelation{ID: "room1", MemberA: "alice", MemberB: "alice"}
	if err := sameMember.Validate(); err != ErrInvalidRelation {
		t.Errorf("Expected ErrInvalidRelation, got %v", err)
	}

	noID := &PartnerRelation{MemberA: "alice", MemberB: "bob"}
	if err := noID.Validate(); err != ErrInvalidRoomID {
		t.Errorf("Expected ErrInvalidRoomID, got %v", err)
	}

	badMember := &PartnerRelation{ID: "room1", MemberA: "alice!", MemberB: "bob"}
	if err := badMember.Validate(); err != ErrInvalidUserID {
		t.Errorf("Expected ErrInvalidUserID, got %v", err)
	}
}

func TestIsValidUserID(t *testing.T) {
	validIDs := []string{"alice", "user_1", "a-b-c", "X"}
	for _, id := range validIDs {
		if !IsValidUserID(id) {
			t.Errorf("Expected %q to be valid", id)
		}
	}

	invalidIDs := []string{"", "user with space", "user@host", strings.Repeat("a", 51)}
	for _, id := range invalidIDs {
		if IsValidUserID(id) {
			t.Errorf("Expected %q to be invalid", id)
		}
	}
}

func TestValidateContent(t *testing.T) {
	content, err := ValidateContent("  hello  ")
	if err != nil {
		t.Fatalf("Expected valid content, got %v", err)
	}
	if content != "hello" {
		t.Errorf("Expected trimmed content, got %q", content)
	}

	if _, err := ValidateContent(""); err != ErrEmptyMessage {
		t.Errorf("Expected ErrEmptyMessage for empty content, got %v", err)
	}

	if _, err := ValidateContent("   \t\n "); err != ErrEmptyMessage {
		t.Errorf("Expected ErrEmptyMessage for whitespace content, got %v", err)
	}

	if _, err := ValidateContent(strings.Repeat("x", 65537)); err != ErrContentTooLarge {
		t.Errorf("Expected ErrContentTooLarge, got %v", err)
	}
}
