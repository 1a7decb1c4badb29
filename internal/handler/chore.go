package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chippn/chippn/internal/auth"
	"github.com/chippn/chippn/internal/chore"
	"github.com/chippn/chippn/internal/model"
	"github.com/chippn/chippn/internal/store"
	"github.com/chippn/chippn/internal/websocket"
)

type ChoreHandler struct {
	choreStore     *store.ChoreStore
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{
		choreStore:     cs,
		householdStore: hs,
		hub:            hub,
		logger:         logger,
	}
}

func (h *ChoreHandler) broadcast(householdID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

type choreRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Frequency      string `json:"frequency"`
	AssignmentType string `json:"assignment_type"`
	AssignedTo     *int64 `json:"assigned_to"`
	RequiresPhoto  bool   `json:"requires_photo"`
	PhotoGuidance  string `json:"photo_guidance"`
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !chore.ValidFrequency(req.Frequency) {
		writeError(w, http.StatusBadRequest, "invalid frequency")
		return
	}
	if !chore.ValidAssignmentType(req.AssignmentType) {
		writeError(w, http.StatusBadRequest, "invalid assignment type")
		return
	}

	if req.AssignmentType == model.AssignSingle && req.AssignedTo != nil {
		member, err := h.householdStore.GetMember(householdID, *req.AssignedTo)
		if err != nil {
			h.logger.Error("check assignee", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to check assignee")
			return
		}
		if member == nil {
			writeError(w, http.StatusBadRequest, "assignee is not a household member")
			return
		}
	}
	// Rotating chores leave assigned_to empty; assignment rows carry the turn.
	if req.AssignmentType == model.AssignRotating {
		req.AssignedTo = nil
	}

	created, err := h.choreStore.Create(
		householdID, req.Name, req.Description, req.Frequency,
		req.AssignmentType, req.AssignedTo, req.RequiresPhoto, req.PhotoGuidance,
	)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	if err := h.createFirstAssignment(created); err != nil {
		h.logger.Error("create first assignment", "chore_id", created.ID, "error", err)
	}

	h.broadcast(householdID, websocket.NewMessage("chore", "created", created.ID, nil))

	writeJSON(w, http.StatusCreated, created)
}

// createFirstAssignment seeds the assignment row for a new chore, due
// tomorrow. Rotating chores start with the earliest-joined member; single
// chores need an explicit assignee to get one.
func (h *ChoreHandler) createFirstAssignment(c *model.Chore) error {
	dueDate := time.Now().AddDate(0, 0, 1)

	var assignee int64
	switch c.AssignmentType {
	case model.AssignRotating:
		members, err := h.householdStore.ListMembers(c.HouseholdID)
		if err != nil {
			return err
		}
		next, ok := chore.NextAssignee(members, 0)
		if !ok {
			return nil
		}
		assignee = next
	case model.AssignSingle:
		if c.AssignedTo == nil {
			return nil
		}
		assignee = *c.AssignedTo
	default:
		return nil
	}

	_, err := h.choreStore.CreateAssignment(c.ID, assignee, dueDate)
	return err
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.choreStore.ListByHousehold(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	if chores == nil {
		chores = []model.ChoreWithAssignee{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.choreStore.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil || existing.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	if err := h.choreStore.Delete(id); err != nil {
		h.logger.Error("delete chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	h.broadcast(existing.HouseholdID, websocket.NewMessage("chore", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

type assignmentResponse struct {
	model.AssignmentWithChore
	DerivedStatus chore.Status `json:"derived_status"`
}

// Mine returns the caller's assignments with their display status. Overdue
// is computed here, never stored.
func (h *ChoreHandler) Mine(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.choreStore.ListAssignmentsForUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}

	today := time.Now()
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, assignmentResponse{
			AssignmentWithChore: a,
			DerivedStatus:       chore.DeriveStatus(a.ChoreAssignment, today),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type completeRequest struct {
	PhotoURL      *string `json:"photo_url"`
	PhotoVerified *bool   `json:"photo_verified"`
}

// Complete marks an assignment done. For rotating chores the next assignment
// row is created for the next member in rotation.
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	assignment, c, ok := h.assignmentForHousehold(w, r, id)
	if !ok {
		return
	}

	// An empty body completes without photo fields; malformed JSON is rejected.
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	completed, err := h.choreStore.Complete(assignment.ID, req.PhotoURL, req.PhotoVerified)
	if err != nil {
		if errors.Is(err, store.ErrNotPending) {
			writeError(w, http.StatusConflict, "assignment already completed")
			return
		}
		h.logger.Error("complete assignment", "assignment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete assignment")
		return
	}

	if c.AssignmentType == model.AssignRotating {
		if err := h.rotate(c, completed); err != nil {
			h.logger.Error("rotate assignment", "chore_id", c.ID, "error", err)
		}
	}

	h.broadcast(c.HouseholdID, websocket.NewMessage("assignment", "completed", completed.ID, map[string]any{
		"chore_id": c.ID,
	}))

	writeJSON(w, http.StatusOK, completed)
}

func (h *ChoreHandler) rotate(c *model.Chore, completed *model.ChoreAssignment) error {
	members, err := h.householdStore.ListMembers(c.HouseholdID)
	if err != nil {
		return err
	}
	next, ok := chore.NextAssignee(members, completed.AssignedTo)
	if !ok {
		return nil
	}
	_, err = h.choreStore.CreateAssignment(c.ID, next, chore.NextDueDate(completed.DueDate, c.Frequency))
	return err
}

// assignmentForHousehold loads an assignment and its chore, rejecting
// assignments that belong to another household.
func (h *ChoreHandler) assignmentForHousehold(w http.ResponseWriter, r *http.Request, id int64) (*model.ChoreAssignment, *model.Chore, bool) {
	assignment, err := h.choreStore.GetAssignment(id)
	if err != nil {
		h.logger.Error("get assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return nil, nil, false
	}
	if assignment == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return nil, nil, false
	}

	c, err := h.choreStore.GetByID(assignment.ChoreID)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return nil, nil, false
	}
	if c == nil || c.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "assignment not found")
		return nil, nil, false
	}
	return assignment, c, true
}
