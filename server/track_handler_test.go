package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FALLENEZER/Spotik-sub003/core/playback"
	"github.com/FALLENEZER/Spotik-sub003/core/room"
	"github.com/FALLENEZER/Spotik-sub003/model"

	"github.com/gorilla/mux"
)

// Stub repositories carrying just enough state for the vote path.

type stubRoomRepo struct {
	room *model.Room
}

func (r *stubRoomRepo) CreateWithAdmin(context.Context, *model.Room, *model.Participant) error {
	return nil
}

func (r *stubRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	if r.room != nil && r.room.ID == id {
		return r.room, nil
	}
	return nil, nil
}

func (r *stubRoomRepo) SavePlayback(context.Context, *model.Room) error { return nil }

func (r *stubRoomRepo) Delete(context.Context, string) error { return nil }

func (r *stubRoomRepo) ExistsByID(context.Context, string) (bool, error) {
	return r.room != nil, nil
}
func (r *stubRoomRepo) AddParticipant(context.Context, *model.Participant) error { return nil }
func (r *stubRoomRepo) GetParticipant(context.Context, string, int64) (*model.Participant, error) {
	return nil, nil
}
func (r *stubRoomRepo) RemoveParticipant(context.Context, string, int64) error { return nil }
func (r *stubRoomRepo) ListParticipants(context.Context, string) ([]*model.Participant, error) {
	return nil, nil
}
func (r *stubRoomRepo) CountParticipants(context.Context, string) (int64, error) { return 0, nil }

type stubTrackRepo struct {
	track   *model.Track
	already bool
	removed bool
}

func (r *stubTrackRepo) Create(context.Context, *model.Track) error { return nil }

func (r *stubTrackRepo) GetByID(_ context.Context, id int64) (*model.Track, error) {
	if r.track != nil && r.track.ID == id {
		return r.track, nil
	}
	return nil, nil
}

func (r *stubTrackRepo) Delete(context.Context, int64) error { return nil }
func (r *stubTrackRepo) ListByRoom(context.Context, string) ([]model.Track, error) {
	return nil, nil
}

func (r *stubTrackRepo) Vote(context.Context, int64, int64) (int, bool, error) {
	return r.track.VoteScore, r.already, nil
}

func (r *stubTrackRepo) Unvote(context.Context, int64, int64) (int, bool, error) {
	return r.track.VoteScore, r.removed, nil
}

func (r *stubTrackRepo) VotedTrackIDs(context.Context, string, int64) (map[int64]bool, error) {
	return nil, nil
}

func newVoteTestHandler(tracks *stubTrackRepo, rm *model.Room) http.Handler {
	manager := room.NewManager(&stubRoomRepo{room: rm}, tracks, nil,
		playback.NewClock(), nil, nil, room.NopBroadcaster{}, 100)

	handler := NewTrackHandler(manager, nil)
	router := mux.NewRouter()
	router.HandleFunc("/api/tracks/{track_id}/vote", handler.VoteHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{track_id}/vote", handler.UnvoteHandler).Methods(http.MethodDelete)
	return router
}

func TestDuplicateVoteConflictCarriesScore(t *testing.T) {
	rm := &model.Room{ID: "424242", AdminID: 7}
	track := &model.Track{ID: 11, RoomID: rm.ID, UploaderID: 7, Title: "looped", VoteScore: 3}
	router := newVoteTestHandler(&stubTrackRepo{track: track, already: true}, rm)

	req := httptest.NewRequest(http.MethodPost, "/api/tracks/11/vote", nil)
	req = req.WithContext(WithUser(req.Context(), rm.AdminID, "alice"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	mustStatus(t, rec.Code, http.StatusConflict)

	var body VoteErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode conflict body: %v", err)
	}
	if body.Error == "" {
		t.Fatal("expected an error message in the conflict body")
	}
	if body.Result == nil {
		t.Fatal("expected the current score in the conflict body")
	}
	if body.Result.NewScore != 3 || !body.Result.UserHasVoted {
		t.Fatalf("unexpected result in conflict body: %+v", body.Result)
	}
}

func TestUnvoteWithoutVoteCarriesScore(t *testing.T) {
	rm := &model.Room{ID: "424242", AdminID: 7}
	track := &model.Track{ID: 11, RoomID: rm.ID, UploaderID: 7, Title: "looped", VoteScore: 3}
	router := newVoteTestHandler(&stubTrackRepo{track: track, removed: false}, rm)

	req := httptest.NewRequest(http.MethodDelete, "/api/tracks/11/vote", nil)
	req = req.WithContext(WithUser(req.Context(), rm.AdminID, "alice"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	mustStatus(t, rec.Code, http.StatusNotFound)

	var body VoteErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Result == nil || body.Result.NewScore != 3 {
		t.Fatalf("expected unchanged score in body, got %+v", body.Result)
	}
}
