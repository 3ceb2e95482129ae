package server

import (
	"encoding/json"
	"net/http"

	"github.com/FALLENEZER/Spotik-sub003/core/room"
	"github.com/FALLENEZER/Spotik-sub003/logger"
	"github.com/FALLENEZER/Spotik-sub003/model"

	"github.com/gorilla/mux"
)

// RoomHandler serves the room lifecycle and membership endpoints.
type RoomHandler struct {
	manager *room.Manager
}

// NewRoomHandler creates a room handler.
func NewRoomHandler(manager *room.Manager) *RoomHandler {
	return &RoomHandler{manager: manager}
}

// CreateRoomRequest is the create-room payload.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// CreateRoomResponse wraps the created room.
type CreateRoomResponse struct {
	Room *model.Room `json:"room"`
}

// CreateRoomHandler creates a room with the caller as administrator.
func (h *RoomHandler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "invalid request body"})
		return
	}

	rm, err := h.manager.CreateRoom(ctx, userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, &CreateRoomResponse{Room: rm})
}

// JoinRoomRequest is the join payload.
type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

// JoinRoomResponse wraps the new membership.
type JoinRoomResponse struct {
	Participant *model.Participant `json:"participant"`
}

// JoinRoomHandler adds the caller to a room.
func (h *RoomHandler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.RoomID == "" {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "roomId is required"})
		return
	}

	participant, err := h.manager.Join(ctx, req.RoomID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &JoinRoomResponse{Participant: participant})
}

// LeaveRoomRequest is the leave payload.
type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
}

// LeaveRoomHandler removes the caller from a room.
func (h *RoomHandler) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	var req LeaveRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.manager.Leave(ctx, req.RoomID, userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "left room"})
}

// GetRoomHandler returns the room with its participant count.
func (h *RoomHandler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["room_id"]

	info, err := h.manager.GetRoomInfo(ctx, roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// DeleteRoomHandler deletes the room. Administrator only.
func (h *RoomHandler) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["room_id"]

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := h.manager.DeleteRoom(ctx, roomID, userID); err != nil {
		writeError(w, err)
		return
	}

	logger.Info("room deleted via API",
		logger.String("roomId", roomID),
		logger.Int64("userId", userID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "room deleted"})
}

// ListParticipantsHandler returns the room's members.
func (h *RoomHandler) ListParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["room_id"]

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	participants, err := h.manager.ListParticipants(ctx, roomID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, participants)
}
