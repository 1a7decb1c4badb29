package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chippn/chippn/internal/auth"
	"github.com/chippn/chippn/internal/model"
	"github.com/chippn/chippn/internal/store"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	logger         *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{householdStore: hs, logger: logger}
}

type createHouseholdRequest struct {
	Name string `json:"name"`
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if ac.HouseholdID != 0 {
		writeError(w, http.StatusConflict, "already in a household")
		return
	}

	var req createHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	household, err := h.householdStore.Create(req.Name, ac.UserID)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	writeJSON(w, http.StatusCreated, household)
}

type joinHouseholdRequest struct {
	InviteCode string `json:"invite_code"`
}

func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req joinHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.InviteCode) == "" {
		writeError(w, http.StatusBadRequest, "invite code is required")
		return
	}

	household, err := h.householdStore.Join(req.InviteCode, ac.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidInviteCode):
			writeError(w, http.StatusNotFound, "invalid invite code")
		case errors.Is(err, store.ErrAlreadyMember):
			writeError(w, http.StatusConflict, "already a member of this household")
		default:
			h.logger.Error("join household", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to join household")
		}
		return
	}

	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if ac.HouseholdID == 0 {
		writeError(w, http.StatusNotFound, "no household")
		return
	}

	if err := h.householdStore.Leave(ac.HouseholdID, ac.UserID); err != nil {
		h.logger.Error("leave household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to leave household")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Current returns the caller's household. A user without a membership gets a
// 404, not a 500.
func (h *HouseholdHandler) Current(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if ac.HouseholdID == 0 {
		writeError(w, http.StatusNotFound, "no household")
		return
	}

	household, err := h.householdStore.GetByID(ac.HouseholdID)
	if err != nil {
		h.logger.Error("get household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "no household")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.householdStore.ListMembers(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.MemberWithUser{}
	}
	writeJSON(w, http.StatusOK, members)
}
