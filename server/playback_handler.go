package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/FALLENEZER/Spotik-sub003/core/room"

	"github.com/gorilla/mux"
)

// PlaybackHandler serves the administrator playback controls and the
// participant status query.
type PlaybackHandler struct {
	manager *room.Manager
}

// NewPlaybackHandler creates a playback handler.
func NewPlaybackHandler(manager *room.Manager) *PlaybackHandler {
	return &PlaybackHandler{manager: manager}
}

// StartRequest is the start-track payload.
type StartRequest struct {
	TrackID int64 `json:"trackId"`
}

// StartHandler begins playback of a track.
func (h *PlaybackHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["room_id"]

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "invalid request body"})
		return
	}

	status, err := h.manager.Start(ctx, roomID, req.TrackID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// PauseHandler pauses playback.
func (h *PlaybackHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	h.simpleControl(w, r, h.manager.Pause)
}

// ResumeHandler resumes paused playback.
func (h *PlaybackHandler) ResumeHandler(w http.ResponseWriter, r *http.Request) {
	h.simpleControl(w, r, h.manager.Resume)
}

// SkipHandler advances to the next queued track.
func (h *PlaybackHandler) SkipHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["room_id"]

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	result, err := h.manager.Skip(ctx, roomID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// StopHandler clears playback.
func (h *PlaybackHandler) StopHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["room_id"]

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := h.manager.Stop(ctx, roomID, userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "playback stopped"})
}

// StatusHandler returns the authoritative playback position.
func (h *PlaybackHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["room_id"]

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	status, err := h.manager.Status(ctx, roomID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *PlaybackHandler) simpleControl(
	w http.ResponseWriter,
	r *http.Request,
	control func(ctx context.Context, roomID string, callerID int64) (*room.PlaybackStatus, error),
) {
	ctx := r.Context()
	roomID := mux.Vars(r)["room_id"]

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	status, err := control(ctx, roomID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
