package store

import (
	"database/sql"
	"testing"

	"github.com/chippn/chippn/internal/database"
	"github.com/chippn/chippn/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email, name string) *model.User {
	t.Helper()
	user, err := NewUserStore(db).Create(email, name, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}
