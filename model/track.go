package model

import "time"

// Track is an uploaded audio item queued for playback in a room.
// VoteScore is denormalized and must always equal the number of Vote rows
// referencing the track; it is mutated only inside the vote/unvote
// transactions. CreatedAt doubles as the upload order and the tie-break
// key for queue ordering.
type Track struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	RoomID       string    `json:"roomId" gorm:"size:8;index;not null"`
	UploaderID   int64     `json:"uploaderId" gorm:"not null"`
	Title        string    `json:"title" gorm:"size:255;not null"`
	OriginalName string    `json:"originalName" gorm:"size:255"`
	StoragePath  string    `json:"-" gorm:"size:512"` // object key in MinIO, not exposed
	MimeType     string    `json:"mimeType" gorm:"size:64"`
	FileSize     int64     `json:"fileSize"`
	Duration     float64   `json:"duration"` // seconds
	VoteScore    int       `json:"voteScore" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"createdAt" gorm:"index"`
}

// TableName sets the table name.
func (Track) TableName() string {
	return "tracks"
}

// Vote records one user's vote for one track, unique per (track, user).
type Vote struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TrackID   int64     `json:"trackId" gorm:"not null;uniqueIndex:idx_track_user"`
	UserID    int64     `json:"userId" gorm:"not null;uniqueIndex:idx_track_user"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName sets the table name.
func (Vote) TableName() string {
	return "votes"
}

// QueueEntry is a queue listing row with the caller's vote state resolved.
type QueueEntry struct {
	Track
	UserHasVoted bool `json:"userHasVoted"`
}
