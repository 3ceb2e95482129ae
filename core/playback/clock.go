// Package playback implements the server-authoritative playback clock for a
// room. The clock has three states, all derived from the four playback
// columns on the room row:
//
//	Stopped: CurrentTrackID == nil
//	Playing: IsPlaying, StartedAt set, PausedAt clear
//	Paused:  !IsPlaying, StartedAt and PausedAt set
//
// Position never needs an accumulator: on resume the start timestamp is
// back-dated by the paused duration, so `now - started_at` stays correct
// across any number of pause/resume cycles.
package playback

import (
	"errors"
	"time"

	"github.com/FALLENEZER/Spotik-sub003/model"
)

var (
	// ErrAlreadyPlaying is returned when starting the track that is
	// already the current playing track.
	ErrAlreadyPlaying = errors.New("track is already playing")

	// ErrNoActivePlayback is returned by pause when nothing is playing.
	ErrNoActivePlayback = errors.New("no active playback")

	// ErrNoPausedPlayback is returned by resume when nothing is paused.
	ErrNoPausedPlayback = errors.New("no paused playback")

	// ErrNoCurrentTrack is returned by skip when no track is current.
	ErrNoCurrentTrack = errors.New("no current track")
)

// Clock mutates a room's playback columns. The time source is injectable
// for tests; everything else is pure arithmetic on the row.
type Clock struct {
	now func() time.Time
}

// NewClock creates a clock on the wall clock.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockAt creates a clock on a supplied time source.
func NewClockAt(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the clock's current time in UTC.
func (c *Clock) Now() time.Time {
	return c.now().UTC()
}

// Start begins playback of track. Valid from Stopped, or from Playing or
// Paused on a different track (the previous track is implicitly dropped).
// Starting the currently playing track is rejected, not restarted.
func (c *Clock) Start(room *model.Room, track *model.Track) (time.Time, error) {
	if room.IsPlaying && room.CurrentTrackID != nil && *room.CurrentTrackID == track.ID {
		return time.Time{}, ErrAlreadyPlaying
	}

	startedAt := c.Now()
	trackID := track.ID
	room.CurrentTrackID = &trackID
	room.IsPlaying = true
	room.PlaybackStartedAt = &startedAt
	room.PlaybackPausedAt = nil
	return startedAt, nil
}

// Pause freezes playback. Valid only while Playing. StartedAt is left
// untouched: the position at pause stays recoverable as pausedAt - startedAt.
func (c *Clock) Pause(room *model.Room) (time.Time, error) {
	if !room.IsPlaying || room.PlaybackStartedAt == nil {
		return time.Time{}, ErrNoActivePlayback
	}

	pausedAt := c.Now()
	room.IsPlaying = false
	room.PlaybackPausedAt = &pausedAt
	return pausedAt, nil
}

// Resume continues paused playback. The start timestamp is back-dated by
// the paused duration so the position formula keeps working unchanged.
func (c *Clock) Resume(room *model.Room) (time.Time, error) {
	if room.IsPlaying || room.PlaybackPausedAt == nil || room.PlaybackStartedAt == nil {
		return time.Time{}, ErrNoPausedPlayback
	}

	now := c.Now()
	elapsed := room.PlaybackPausedAt.Sub(*room.PlaybackStartedAt)
	startedAt := now.Add(-elapsed)
	room.IsPlaying = true
	room.PlaybackStartedAt = &startedAt
	room.PlaybackPausedAt = nil
	return now, nil
}

// Stop clears all playback state. Valid from any state.
func (c *Clock) Stop(room *model.Room) {
	room.CurrentTrackID = nil
	room.IsPlaying = false
	room.PlaybackStartedAt = nil
	room.PlaybackPausedAt = nil
}

// Position computes elapsed playback seconds into the current track,
// clamped to [0, track duration]. The clamp models natural end-of-track.
// track may be nil when the room is stopped.
func (c *Clock) Position(room *model.Room, track *model.Track) float64 {
	if room.CurrentTrackID == nil || room.PlaybackStartedAt == nil {
		return 0
	}

	var elapsed time.Duration
	if room.IsPlaying {
		elapsed = c.Now().Sub(*room.PlaybackStartedAt)
	} else if room.PlaybackPausedAt != nil {
		elapsed = room.PlaybackPausedAt.Sub(*room.PlaybackStartedAt)
	} else {
		return 0
	}

	position := elapsed.Seconds()
	if position < 0 {
		return 0
	}
	if track != nil && position > track.Duration {
		return track.Duration
	}
	return position
}
