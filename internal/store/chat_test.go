package store

import (
	"fmt"
	"testing"
)

func TestChatListRecentAscending(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChatStore(db)
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	h, _ := NewHouseholdStore(db).Create("Baggins", alice.ID)

	for i := 1; i <= 5; i++ {
		if _, err := cs.Create(h.ID, alice.ID, fmt.Sprintf("message %d", i), false); err != nil {
			t.Fatalf("create message %d: %v", i, err)
		}
	}

	messages, err := cs.ListRecent(h.ID, 3)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("count = %d, want 3", len(messages))
	}

	// Newest 3 messages, returned oldest-first.
	want := []string{"message 3", "message 4", "message 5"}
	for i, w := range want {
		if messages[i].Message != w {
			t.Errorf("messages[%d] = %q, want %q", i, messages[i].Message, w)
		}
	}
}

func TestChatAnonymousMasksSenderName(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChatStore(db)
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	h, _ := NewHouseholdStore(db).Create("Baggins", alice.ID)

	cs.Create(h.ID, alice.ID, "who ate my cake", true)
	cs.Create(h.ID, alice.ID, "hello", false)

	messages, err := cs.ListRecent(h.ID, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("count = %d, want 2", len(messages))
	}

	anon := messages[0]
	if anon.SenderName != "Anonymous" {
		t.Errorf("anonymous sender name = %q, want Anonymous", anon.SenderName)
	}
	if anon.SenderID != alice.ID {
		t.Error("sender_id must be stored untouched for anonymous messages")
	}
	if messages[1].SenderName != "Alice" {
		t.Errorf("sender name = %q, want Alice", messages[1].SenderName)
	}
}

func TestChatScopedToHousehold(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChatStore(db)
	hs := NewHouseholdStore(db)
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	h1, _ := hs.Create("Baggins", alice.ID)
	h2, _ := hs.Create("Took", bob.ID)

	cs.Create(h1.ID, alice.ID, "ours", false)
	cs.Create(h2.ID, bob.ID, "theirs", false)

	messages, err := cs.ListRecent(h1.ID, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(messages) != 1 || messages[0].Message != "ours" {
		t.Errorf("expected only household 1 messages, got %v", messages)
	}
}
