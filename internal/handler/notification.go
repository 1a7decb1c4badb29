package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chippn/chippn/internal/auth"
	"github.com/chippn/chippn/internal/model"
	"github.com/chippn/chippn/internal/store"
)

type NotificationHandler struct {
	tokenStore *store.NotificationTokenStore
	logger     *slog.Logger
}

func NewNotificationHandler(ts *store.NotificationTokenStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{tokenStore: ts, logger: logger}
}

type tokenRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

// Register upserts a device push token for the caller.
func (h *NotificationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if req.DeviceType != model.DeviceIOS && req.DeviceType != model.DeviceAndroid {
		writeError(w, http.StatusBadRequest, "device type must be ios or android")
		return
	}

	token, err := h.tokenStore.Upsert(auth.UserID(r.Context()), req.Token, req.DeviceType)
	if err != nil {
		h.logger.Error("upsert token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register token")
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// Unregister removes a device token, typically on logout.
func (h *NotificationHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.tokenStore.DeleteByToken(req.Token); err != nil {
		h.logger.Error("delete token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
