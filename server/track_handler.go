package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/FALLENEZER/Spotik-sub003/core/queue"
	"github.com/FALLENEZER/Spotik-sub003/core/room"
	"github.com/FALLENEZER/Spotik-sub003/logger"
	"github.com/FALLENEZER/Spotik-sub003/model"
	"github.com/FALLENEZER/Spotik-sub003/storage"

	"github.com/gorilla/mux"
)

const maxUploadBytes = 64 << 20 // 64 MB

// VoteErrorResponse is the body of a rejected vote/unvote: the reason plus
// the unchanged score.
type VoteErrorResponse struct {
	Error  string            `json:"error"`
	Result *queue.VoteResult `json:"result"`
}

// TrackHandler serves track upload/removal, queue listing and voting.
type TrackHandler struct {
	manager *room.Manager
	store   *storage.AudioStore
}

// NewTrackHandler creates a track handler. store may be nil in tests.
func NewTrackHandler(manager *room.Manager, store *storage.AudioStore) *TrackHandler {
	return &TrackHandler{manager: manager, store: store}
}

// UploadTrackHandler accepts a multipart upload: an "audio" file plus
// "title" and "duration" fields. Duration arrives as client-supplied
// metadata; extraction is not this service's job.
func (h *TrackHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["room_id"]

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "audio file is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "unsupported file type"})
		return
	}

	duration, err := strconv.ParseFloat(r.FormValue("duration"), 64)
	if err != nil || duration <= 0 {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "a positive duration is required"})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}

	objectKey := ""
	if h.store != nil {
		objectKey, err = h.store.Put(ctx, roomID, header.Filename, contentType, header.Size, file)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	track := &model.Track{
		Title:        title,
		OriginalName: header.Filename,
		StoragePath:  objectKey,
		MimeType:     contentType,
		FileSize:     header.Size,
		Duration:     duration,
	}
	if err := h.manager.AddTrack(ctx, roomID, userID, track); err != nil {
		// the record failed; don't leave the object orphaned
		if h.store != nil && objectKey != "" {
			if rmErr := h.store.Remove(ctx, objectKey); rmErr != nil {
				logger.Warn("failed to clean up orphaned object",
					logger.ErrorField(rmErr),
					logger.String("object", objectKey))
			}
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, track)
}

// RemoveTrackHandler deletes a track. Uploader or administrator only.
func (h *TrackHandler) RemoveTrackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	roomID := vars["room_id"]

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	trackID, err := strconv.ParseInt(vars["track_id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "invalid track id"})
		return
	}

	if err := h.manager.RemoveTrack(ctx, roomID, trackID, userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "track removed"})
}

// GetQueueHandler returns the room's vote-ordered queue.
func (h *TrackHandler) GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["room_id"]

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	entries, err := h.manager.Queue(ctx, roomID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// VoteHandler registers the caller's vote for a track.
func (h *TrackHandler) VoteHandler(w http.ResponseWriter, r *http.Request) {
	h.handleVote(w, r, true)
}

// UnvoteHandler removes the caller's vote for a track.
func (h *TrackHandler) UnvoteHandler(w http.ResponseWriter, r *http.Request) {
	h.handleVote(w, r, false)
}

func (h *TrackHandler) handleVote(w http.ResponseWriter, r *http.Request, vote bool) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, &ErrorResponse{Error: "unauthorized"})
		return
	}

	trackID, err := strconv.ParseInt(mux.Vars(r)["track_id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: "invalid track id"})
		return
	}

	var result *queue.VoteResult
	if vote {
		result, err = h.manager.Vote(ctx, trackID, userID)
	} else {
		result, err = h.manager.Unvote(ctx, trackID, userID)
	}
	if err != nil {
		// a duplicate vote or missing vote still reports the current score
		if result != nil && errors.Is(err, queue.ErrAlreadyVoted) {
			writeJSON(w, http.StatusConflict, &VoteErrorResponse{Error: err.Error(), Result: result})
			return
		}
		if result != nil && errors.Is(err, queue.ErrNotVoted) {
			writeJSON(w, http.StatusNotFound, &VoteErrorResponse{Error: err.Error(), Result: result})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
