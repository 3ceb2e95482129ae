package model

import "time"

// Room is a collaborative listening session owned by exactly one
// administrator. The playback columns are the authoritative clock state:
// PlaybackStartedAt is the wall-clock instant elapsed time is computed
// from, PlaybackPausedAt is set only while paused.
//
// Invariants: IsPlaying implies CurrentTrackID and PlaybackStartedAt are
// non-null; PlaybackPausedAt is non-null only while IsPlaying is false.
type Room struct {
	ID                string     `json:"id" gorm:"primaryKey;size:8"`
	Name              string     `json:"name" gorm:"size:100;not null"`
	AdminID           int64      `json:"adminId" gorm:"index;not null"`
	CurrentTrackID    *int64     `json:"currentTrackId,omitempty"`
	IsPlaying         bool       `json:"isPlaying" gorm:"default:false"`
	PlaybackStartedAt *time.Time `json:"playbackStartedAt,omitempty"`
	PlaybackPausedAt  *time.Time `json:"playbackPausedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// TableName sets the table name.
func (Room) TableName() string {
	return "rooms"
}

// Participant is a room membership record, unique per (room, user).
// The administrator is always a participant and cannot leave.
type Participant struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	RoomID   string    `json:"roomId" gorm:"size:8;not null;uniqueIndex:idx_room_user"`
	UserID   int64     `json:"userId" gorm:"not null;uniqueIndex:idx_room_user"`
	JoinedAt time.Time `json:"joinedAt"`
}

// TableName sets the table name.
func (Participant) TableName() string {
	return "participants"
}

// ========== non-persistent structures (Redis / API responses) ==========

// PlaybackSnapshot is the cached playback view served to polling clients.
// The MySQL Room row stays authoritative; this is a read-side copy.
type PlaybackSnapshot struct {
	RoomID         string  `json:"roomId"`
	IsPlaying      bool    `json:"isPlaying"`
	CurrentTrackID *int64  `json:"currentTrackId,omitempty"`
	Position       float64 `json:"position"`
	ServerTime     int64   `json:"serverTime"` // unix milliseconds
}

// RoomInfo is the room detail returned by the API. OnlineCount and Playback
// come from the Redis read-side cache and are best-effort.
type RoomInfo struct {
	Room
	AdminName        string            `json:"adminName,omitempty"`
	ParticipantCount int               `json:"participantCount"`
	OnlineCount      int64             `json:"onlineCount"`
	Playback         *PlaybackSnapshot `json:"playback,omitempty"`
}

// ParticipantInfo is a participant entry with the username resolved.
type ParticipantInfo struct {
	UserID   int64     `json:"userId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}
