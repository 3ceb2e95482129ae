package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FALLENEZER/Spotik-sub003/core/auth"
	"github.com/FALLENEZER/Spotik-sub003/core/playback"
	"github.com/FALLENEZER/Spotik-sub003/core/queue"
	"github.com/FALLENEZER/Spotik-sub003/core/room"
)

const testSecret = "spotik_test_secret_1234567890"

func mustStatus(t *testing.T, actual, expected int) {
	t.Helper()
	if actual != expected {
		t.Fatalf("expected status %d, got %d", expected, actual)
	}
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	token, err := tokens.Issue(42, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var gotID int64
	var gotName string
	handler := AuthMiddleware(tokens)(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		gotName = UsernameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/100001", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler(resp, req)

	mustStatus(t, resp.Code, http.StatusOK)
	if gotID != 42 || gotName != "alice" {
		t.Fatalf("expected identity 42/alice, got %d/%q", gotID, gotName)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	handler := AuthMiddleware(tokens)(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a valid token")
	})

	// no header at all
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/100001", nil)
	resp := httptest.NewRecorder()
	handler(resp, req)
	mustStatus(t, resp.Code, http.StatusUnauthorized)

	// malformed token
	req = httptest.NewRequest(http.MethodGet, "/api/rooms/100001", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp = httptest.NewRecorder()
	handler(resp, req)
	mustStatus(t, resp.Code, http.StatusUnauthorized)

	// token signed with a different secret
	foreign, err := auth.NewTokenManager("other_secret", time.Hour).Issue(42, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/rooms/100001", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	resp = httptest.NewRecorder()
	handler(resp, req)
	mustStatus(t, resp.Code, http.StatusUnauthorized)
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	handler := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/rooms", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusOK)
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{room.ErrNotAdministrator, http.StatusForbidden},
		{room.ErrNotParticipant, http.StatusForbidden},
		{room.ErrNotTrackOwner, http.StatusForbidden},
		{room.ErrAdminCannotLeave, http.StatusForbidden},
		{room.ErrAlreadyParticipant, http.StatusConflict},
		{queue.ErrAlreadyVoted, http.StatusConflict},
		{playback.ErrAlreadyPlaying, http.StatusConflict},
		{playback.ErrNoActivePlayback, http.StatusConflict},
		{playback.ErrNoPausedPlayback, http.StatusConflict},
		{playback.ErrNoCurrentTrack, http.StatusConflict},
		{room.ErrRoomNotFound, http.StatusNotFound},
		{room.ErrTrackNotFound, http.StatusNotFound},
		{room.ErrTrackNotInRoom, http.StatusNotFound},
		{queue.ErrNotVoted, http.StatusNotFound},
		{room.ErrRoomNameEmpty, http.StatusBadRequest},
		{room.ErrRoomNameTooLong, http.StatusBadRequest},
		{errors.New("database went away"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		resp := httptest.NewRecorder()
		writeError(resp, tc.err)
		if resp.Code != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, resp.Code)
		}

		var body ErrorResponse
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("%v: bad error body: %v", tc.err, err)
		}
		if body.Error == "" {
			t.Fatalf("%v: empty error message", tc.err)
		}
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	resp := httptest.NewRecorder()
	writeError(resp, fmt.Errorf("dial tcp 10.0.0.5:3306: connection refused"))

	var body ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad error body: %v", err)
	}
	if body.Error != "internal error" {
		t.Fatalf("internal detail leaked: %q", body.Error)
	}
}

func TestWriteErrorUnwrapsWrappedSentinels(t *testing.T) {
	resp := httptest.NewRecorder()
	writeError(resp, fmt.Errorf("vote failed: %w", queue.ErrAlreadyVoted))
	mustStatus(t, resp.Code, http.StatusConflict)
}
