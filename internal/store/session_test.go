package store

import "testing"

func TestSessionCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	alice := createTestUser(t, db, "alice@example.com", "Alice")

	sess, err := ss.Create(alice.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.UserID != alice.ID {
		t.Fatalf("got = %v, want session for user %d", got, alice.ID)
	}
}

func TestSessionGetUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)

	got, err := ss.GetByToken("nope")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("unknown token should return nil")
	}
}

func TestSessionExpiry(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	alice := createTestUser(t, db, "alice@example.com", "Alice")

	sess, _ := ss.Create(alice.ID)
	db.Exec(`UPDATE sessions SET expires_at = datetime('now', '-1 hour') WHERE id = ?`, sess.ID)

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expired session should not resolve")
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

func TestSessionDelete(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	alice := createTestUser(t, db, "alice@example.com", "Alice")

	sess, _ := ss.Create(alice.ID)
	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := ss.GetByToken(sess.Token)
	if got != nil {
		t.Error("deleted session should not resolve")
	}
}
