package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/chippn/chippn/internal/auth"
	"github.com/chippn/chippn/internal/model"
	"github.com/chippn/chippn/internal/store"
	"github.com/chippn/chippn/internal/websocket"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
	maxMessageLen       = 2000
)

type ChatHandler struct {
	chatStore *store.ChatStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewChatHandler(cs *store.ChatStore, hub *websocket.Hub, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chatStore: cs, hub: hub, logger: logger}
}

// List returns the newest messages in ascending chronological order.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultMessageLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n > maxMessageLimit {
			n = maxMessageLimit
		}
		limit = n
	}

	messages, err := h.chatStore.ListRecent(auth.HouseholdID(r.Context()), limit)
	if err != nil {
		h.logger.Error("list messages", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []model.MessageWithSender{}
	}
	writeJSON(w, http.StatusOK, messages)
}

type sendMessageRequest struct {
	Message     string `json:"message"`
	IsAnonymous bool   `json:"is_anonymous"`
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(req.Message) > maxMessageLen {
		writeError(w, http.StatusBadRequest, "message too long")
		return
	}

	msg, err := h.chatStore.Create(ac.HouseholdID, ac.UserID, req.Message, req.IsAnonymous)
	if err != nil {
		h.logger.Error("create message", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("message", "created", msg.ID, nil))
	}

	writeJSON(w, http.StatusCreated, msg)
}
