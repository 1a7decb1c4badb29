package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chippn/chippn/internal/auth"
	"github.com/chippn/chippn/internal/database"
	"github.com/chippn/chippn/internal/store"
)

func setupAuthTest(t *testing.T) (*store.SessionStore, *store.HouseholdStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewHouseholdStore(db), store.NewUserStore(db)
}

func TestRequireAuthMissingToken(t *testing.T) {
	ss, hs, _ := setupAuthTest(t)
	mw := RequireAuth(ss, hs)

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/api/chores", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Error("inner handler must not run")
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	ss, hs, _ := setupAuthTest(t)
	mw := RequireAuth(ss, hs)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/api/chores", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthPopulatesContext(t *testing.T) {
	ss, hs, us := setupAuthTest(t)
	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	h, _ := hs.Create("Baggins", alice.ID)
	sess, _ := ss.Create(alice.ID)

	mw := RequireAuth(ss, hs)
	var got auth.AuthContext
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/chores", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.UserID != alice.ID {
		t.Errorf("user id = %d, want %d", got.UserID, alice.ID)
	}
	if got.HouseholdID != h.ID {
		t.Errorf("household id = %d, want %d", got.HouseholdID, h.ID)
	}
	if got.SessionID != sess.ID {
		t.Errorf("session id = %d, want %d", got.SessionID, sess.ID)
	}
}

func TestRequireAuthNoHousehold(t *testing.T) {
	ss, hs, us := setupAuthTest(t)
	bob, _ := us.Create("bob@example.com", "Bob", "hash")
	sess, _ := ss.Create(bob.ID)

	mw := RequireAuth(ss, hs)
	var got auth.AuthContext
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/households/current", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for member-less user", rec.Code)
	}
	if got.HouseholdID != 0 {
		t.Errorf("household id = %d, want 0", got.HouseholdID)
	}
}

func TestRequireAuthQueryTokenFallback(t *testing.T) {
	ss, hs, us := setupAuthTest(t)
	alice, _ := us.Create("alice@example.com", "Alice", "hash")
	sess, _ := ss.Create(alice.ID)

	mw := RequireAuth(ss, hs)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// WebSocket clients pass the token as a query parameter.
	req := httptest.NewRequest("GET", "/ws?token="+sess.Token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireHousehold(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest("GET", "/api/chores", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1}))
	rec := httptest.NewRecorder()
	RequireHousehold(inner).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 without household", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/chores", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1, HouseholdID: 2}))
	rec = httptest.NewRecorder()
	RequireHousehold(inner).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with household", rec.Code)
	}
}
