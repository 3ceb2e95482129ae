package server

import (
	"context"
	"net/http"

	"github.com/FALLENEZER/Spotik-sub003/core/auth"
	"github.com/FALLENEZER/Spotik-sub003/core/room"
	"github.com/FALLENEZER/Spotik-sub003/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades participants onto the room's event stream.
type WSHandler struct {
	manager  *room.Manager
	hub      *room.Hub
	tokens   *auth.TokenManager
	upgrader websocket.Upgrader
}

// NewWSHandler creates the WebSocket handler.
func NewWSHandler(manager *room.Manager, hub *room.Hub, tokens *auth.TokenManager) *WSHandler {
	return &WSHandler{
		manager: manager,
		hub:     hub,
		tokens:  tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP authenticates via the token query parameter (browsers cannot
// set headers on WebSocket dials), verifies participancy, and registers
// the connection with the hub.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]
	if roomID == "" {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "room id is required"})
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "missing token"})
		return
	}
	claims, err := h.tokens.Verify(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "invalid token"})
		return
	}

	// only participants may subscribe; Status carries the membership check
	if _, err := h.manager.Status(r.Context(), roomID, claims.UserID); err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &room.Client{
		Hub:      h.hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		RoomID:   roomID,
		UserID:   claims.UserID,
		Username: claims.Username,
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(context.Background())

	logger.Info("websocket connected",
		logger.String("roomId", roomID),
		logger.Int64("userId", claims.UserID))
}
