package websocket

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/chippn/chippn/internal/auth"
)

// Handler upgrades authenticated HTTP requests to WebSocket connections.
type Handler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// ServeHTTP accepts the WebSocket upgrade and runs the client until it
// disconnects. The request must carry auth context with a household.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if ac.HouseholdID == 0 {
		http.Error(w, "no household", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Clients connect from app webviews with varying origins
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	h.logger.Debug("websocket connected", "user_id", ac.UserID, "household_id", ac.HouseholdID)

	client := NewClient(h.hub, conn, ac.HouseholdID, ac.UserID, h.logger)
	client.Run(r.Context())
}
