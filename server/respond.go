package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/FALLENEZER/Spotik-sub003/core/playback"
	"github.com/FALLENEZER/Spotik-sub003/core/queue"
	"github.com/FALLENEZER/Spotik-sub003/core/room"
	"github.com/FALLENEZER/Spotik-sub003/logger"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a core error onto an HTTP status. Authorization,
// state-conflict, not-found and validation failures each keep their reason
// string; anything else is reported as a generic failure.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case isForbidden(err):
		writeJSON(w, http.StatusForbidden, &ErrorResponse{Error: err.Error()})
	case isConflict(err):
		writeJSON(w, http.StatusConflict, &ErrorResponse{Error: err.Error()})
	case isNotFound(err):
		writeJSON(w, http.StatusNotFound, &ErrorResponse{Error: err.Error()})
	case isValidation(err):
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
	default:
		logger.Error("internal error", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, &ErrorResponse{Error: "internal error"})
	}
}

func isForbidden(err error) bool {
	return errors.Is(err, room.ErrNotAdministrator) ||
		errors.Is(err, room.ErrNotParticipant) ||
		errors.Is(err, room.ErrNotTrackOwner) ||
		errors.Is(err, room.ErrAdminCannotLeave)
}

func isConflict(err error) bool {
	return errors.Is(err, room.ErrAlreadyParticipant) ||
		errors.Is(err, queue.ErrAlreadyVoted) ||
		errors.Is(err, playback.ErrAlreadyPlaying) ||
		errors.Is(err, playback.ErrNoActivePlayback) ||
		errors.Is(err, playback.ErrNoPausedPlayback) ||
		errors.Is(err, playback.ErrNoCurrentTrack)
}

func isNotFound(err error) bool {
	return errors.Is(err, room.ErrRoomNotFound) ||
		errors.Is(err, room.ErrTrackNotFound) ||
		errors.Is(err, room.ErrTrackNotInRoom) ||
		errors.Is(err, queue.ErrNotVoted)
}

func isValidation(err error) bool {
	return errors.Is(err, room.ErrRoomNameEmpty) ||
		errors.Is(err, room.ErrRoomNameTooLong)
}
