package room

import (
	"encoding/json"
	"time"

	"github.com/FALLENEZER/Spotik-sub003/model"
)

// EventType names a broadcast event.
type EventType string

const (
	EventUserJoined EventType = "user_joined"
	EventUserLeft   EventType = "user_left"

	EventTrackAdded   EventType = "track_added"
	EventTrackRemoved EventType = "track_removed"

	EventTrackVoted   EventType = "track_voted"
	EventTrackUnvoted EventType = "track_unvoted"

	EventPlaybackStarted EventType = "playback_started"
	EventPlaybackPaused  EventType = "playback_paused"
	EventPlaybackResumed EventType = "playback_resumed"
	EventPlaybackStopped EventType = "playback_stopped"
	EventTrackSkipped    EventType = "track_skipped"

	EventRoomDeleted EventType = "room_deleted"
)

// Event is the broadcast envelope. ServerTime is stamped when the event is
// built; for any two events produced by successive operations the later
// operation never carries an earlier timestamp.
type Event struct {
	Type       EventType       `json:"type"`
	RoomID     string          `json:"roomId"`
	ServerTime int64           `json:"serverTime"` // unix milliseconds, UTC
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an envelope around the payload. A payload that fails to
// marshal yields an envelope without data rather than an error; broadcast
// is fire-and-forget.
func NewEvent(roomID string, eventType EventType, payload interface{}) *Event {
	evt := &Event{
		Type:       eventType,
		RoomID:     roomID,
		ServerTime: time.Now().UTC().UnixMilli(),
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			evt.Data = data
		}
	}
	return evt
}

// Broadcaster fans a room event out to connected clients. Implementations
// must be fire-and-forget: a failed publish is logged and swallowed, never
// surfaced to the operation that produced the event.
type Broadcaster interface {
	Notify(roomID string, eventType EventType, payload interface{})
}

// NopBroadcaster drops every event. Used when no transport is wired.
type NopBroadcaster struct{}

// Notify discards the event.
func (NopBroadcaster) Notify(string, EventType, interface{}) {}

// ========== event payloads ==========

// UserRef identifies a user in event payloads.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// MembershipPayload accompanies user_joined and user_left.
type MembershipPayload struct {
	User UserRef `json:"user"`
}

// TrackPayload accompanies track_added and track_removed.
type TrackPayload struct {
	Track    *model.Track `json:"track"`
	Uploader UserRef      `json:"uploader"`
}

// VotePayload accompanies track_voted and track_unvoted.
type VotePayload struct {
	Track        *model.Track `json:"track"`
	Voter        UserRef      `json:"voter"`
	NewVoteScore int          `json:"newVoteScore"`
}

// PlaybackStartedPayload accompanies playback_started.
type PlaybackStartedPayload struct {
	Track     *model.Track `json:"track"`
	StartedAt time.Time    `json:"startedAt"`
}

// PlaybackPausedPayload accompanies playback_paused.
type PlaybackPausedPayload struct {
	PausedAt time.Time `json:"pausedAt"`
	Position float64   `json:"position"`
}

// PlaybackResumedPayload accompanies playback_resumed.
type PlaybackResumedPayload struct {
	Position float64 `json:"position"`
}

// TrackSkippedPayload accompanies track_skipped. NextTrack is null when the
// queue ran empty and the room stopped.
type TrackSkippedPayload struct {
	SkippedTrack *model.Track `json:"skippedTrack"`
	NextTrack    *model.Track `json:"nextTrack"`
}
