package handler

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/chippn/chippn/internal/auth"
	"github.com/chippn/chippn/internal/database"
	"github.com/chippn/chippn/internal/model"
	"github.com/chippn/chippn/internal/store"
)

type choreFixture struct {
	db     *sql.DB
	chores *store.ChoreStore
	h      *model.Household
	alice  *model.User
	bob    *model.User
}

func setupChoreHandler(t *testing.T) (*ChoreHandler, choreFixture) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	alice, err := users.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := users.Create("bob@example.com", "Bob", "hash")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	households := store.NewHouseholdStore(db)
	h, err := households.Create("Baggins", alice.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := households.Join(h.InviteCode, bob.ID); err != nil {
		t.Fatalf("join household: %v", err)
	}

	chores := store.NewChoreStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewChoreHandler(chores, households, nil, logger)
	return handler, choreFixture{db: db, chores: chores, h: h, alice: alice, bob: bob}
}

func postComplete(h *ChoreHandler, fx choreFixture, assignmentID int64, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	id := strconv.FormatInt(assignmentID, 10)
	req := httptest.NewRequest("POST", "/api/assignments/"+id+"/complete", reader)
	req.SetPathValue("id", id)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{
		UserID:      fx.alice.ID,
		HouseholdID: fx.h.ID,
	}))
	rec := httptest.NewRecorder()
	h.Complete(rec, req)
	return rec
}

func TestCompleteRotatingChoreCreatesNextAssignment(t *testing.T) {
	h, fx := setupChoreHandler(t)

	c, err := fx.chores.Create(fx.h.ID, "Trash", "", model.FreqWeekly, model.AssignRotating, nil, false, "")
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	dueDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	first, err := fx.chores.CreateAssignment(c.ID, fx.alice.ID, dueDate)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	rec := postComplete(h, fx, first.ID, "")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	next, err := fx.chores.LastAssignment(c.ID)
	if err != nil {
		t.Fatalf("last assignment: %v", err)
	}
	if next == nil || next.ID == first.ID {
		t.Fatal("completing a rotating chore should create a new assignment")
	}
	if next.AssignedTo != fx.bob.ID {
		t.Errorf("next assignee = %d, want Bob (%d)", next.AssignedTo, fx.bob.ID)
	}
	if next.Status != model.StatusPending {
		t.Errorf("next status = %q, want pending", next.Status)
	}
	wantDue := dueDate.AddDate(0, 0, 7)
	if !next.DueDate.Equal(wantDue) {
		t.Errorf("next due date = %v, want %v", next.DueDate, wantDue)
	}
}

func TestCompleteRotationWrapsToFirstMember(t *testing.T) {
	h, fx := setupChoreHandler(t)

	c, _ := fx.chores.Create(fx.h.ID, "Trash", "", model.FreqDaily, model.AssignRotating, nil, false, "")
	dueDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	// Bob holds the last turn, so the rotation wraps back to Alice.
	first, _ := fx.chores.CreateAssignment(c.ID, fx.bob.ID, dueDate)

	rec := postComplete(h, fx, first.ID, "")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	next, _ := fx.chores.LastAssignment(c.ID)
	if next == nil || next.AssignedTo != fx.alice.ID {
		t.Fatalf("rotation should wrap to Alice, got %+v", next)
	}
}

func TestCompleteSingleChoreDoesNotRotate(t *testing.T) {
	h, fx := setupChoreHandler(t)

	c, _ := fx.chores.Create(fx.h.ID, "Dishes", "", model.FreqDaily, model.AssignSingle, &fx.alice.ID, false, "")
	a, _ := fx.chores.CreateAssignment(c.ID, fx.alice.ID, time.Now())

	rec := postComplete(h, fx, a.ID, "")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	last, _ := fx.chores.LastAssignment(c.ID)
	if last == nil || last.ID != a.ID {
		t.Error("single-assignee completion should not create a new assignment")
	}
}

func TestCompleteRejectsMalformedBody(t *testing.T) {
	h, fx := setupChoreHandler(t)

	c, _ := fx.chores.Create(fx.h.ID, "Dishes", "", model.FreqDaily, model.AssignSingle, &fx.alice.ID, false, "")
	a, _ := fx.chores.CreateAssignment(c.ID, fx.alice.ID, time.Now())

	rec := postComplete(h, fx, a.ID, `{"photo_url": `)
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	got, _ := fx.chores.GetAssignment(a.ID)
	if got == nil || got.Status != model.StatusPending {
		t.Error("a rejected request must leave the assignment pending")
	}
}

func TestCompleteAlreadyCompletedConflict(t *testing.T) {
	h, fx := setupChoreHandler(t)

	c, _ := fx.chores.Create(fx.h.ID, "Dishes", "", model.FreqDaily, model.AssignSingle, &fx.alice.ID, false, "")
	a, _ := fx.chores.CreateAssignment(c.ID, fx.alice.ID, time.Now())
	if _, err := fx.chores.Complete(a.ID, nil, nil); err != nil {
		t.Fatalf("pre-complete: %v", err)
	}

	rec := postComplete(h, fx, a.ID, "")
	if rec.Code != 409 {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
