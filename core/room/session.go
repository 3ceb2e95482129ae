// Package room owns the per-room session logic: it guards every clock and
// queue mutation behind authorization and membership checks, persists the
// result, and fans the transition out to connected clients.
package room

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FALLENEZER/Spotik-sub003/cache"
	"github.com/FALLENEZER/Spotik-sub003/core/playback"
	"github.com/FALLENEZER/Spotik-sub003/core/queue"
	"github.com/FALLENEZER/Spotik-sub003/logger"
	"github.com/FALLENEZER/Spotik-sub003/model"
	"github.com/FALLENEZER/Spotik-sub003/repository"
)

// PlaybackStatus is the authoritative playback view returned by the
// state-changing operations and the status query. ServerTime lets clients
// compute network latency without trusting their own clock.
type PlaybackStatus struct {
	RoomID       string       `json:"roomId"`
	IsPlaying    bool         `json:"isPlaying"`
	CurrentTrack *model.Track `json:"currentTrack,omitempty"`
	Position     float64      `json:"position"`
	StartedAt    *time.Time   `json:"startedAt,omitempty"`
	PausedAt     *time.Time   `json:"pausedAt,omitempty"`
	ServerTime   int64        `json:"serverTime"` // unix milliseconds, UTC
}

// ObjectStore removes stored audio payloads when their owning records go
// away. Implemented by storage.AudioStore; may be nil when no object
// storage is wired.
type ObjectStore interface {
	Remove(ctx context.Context, objectKey string) error
	RemoveRoomObjects(ctx context.Context, roomID string) error
}

// SkipResult reports the outcome of a skip. NextTrackID is nil when the
// queue ran empty and playback stopped.
type SkipResult struct {
	SkippedTrackID int64  `json:"skippedTrackId"`
	NextTrackID    *int64 `json:"nextTrackId"`
	ServerTime     int64  `json:"serverTime"`
}

// Manager is the room session. All mutations flow through it: authorize,
// delegate to the clock or ranker, persist, then broadcast.
type Manager struct {
	rooms       repository.RoomRepository
	tracks      repository.TrackRepository
	users       repository.UserRepository
	ranker      *queue.Ranker
	clock       *playback.Clock
	cache       *cache.RoomCache // optional; nil disables the read-side cache
	objects     ObjectStore      // optional; nil skips object cleanup
	broadcaster Broadcaster
	maxNameLen  int
}

// NewManager creates a room session manager. broadcaster may be a
// NopBroadcaster; cache and objects may be nil.
func NewManager(
	rooms repository.RoomRepository,
	tracks repository.TrackRepository,
	users repository.UserRepository,
	clock *playback.Clock,
	roomCache *cache.RoomCache,
	objects ObjectStore,
	broadcaster Broadcaster,
	maxNameLen int,
) *Manager {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	if maxNameLen <= 0 {
		maxNameLen = 100
	}
	return &Manager{
		rooms:       rooms,
		tracks:      tracks,
		users:       users,
		ranker:      queue.NewRanker(tracks),
		clock:       clock,
		cache:       roomCache,
		objects:     objects,
		broadcaster: broadcaster,
		maxNameLen:  maxNameLen,
	}
}

// Ranker exposes the queue ranker, mainly for wiring and tests.
func (m *Manager) Ranker() *queue.Ranker {
	return m.ranker
}

// ========== room lifecycle ==========

// CreateRoom creates a room; the creator becomes administrator and first
// participant.
func (m *Manager) CreateRoom(ctx context.Context, adminID int64, name string) (*model.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrRoomNameEmpty
	}
	// the name column is character-sized, so count runes, not bytes
	if utf8.RuneCountInString(name) > m.maxNameLen {
		return nil, ErrRoomNameTooLong
	}

	roomID, err := m.generateUniqueRoomID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate room id: %w", err)
	}

	now := time.Now().UTC()
	rm := &model.Room{
		ID:        roomID,
		Name:      name,
		AdminID:   adminID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	participant := &model.Participant{RoomID: roomID, UserID: adminID, JoinedAt: now}

	// one transaction: a room must never exist without its administrator
	// membership
	if err := m.rooms.CreateWithAdmin(ctx, rm, participant); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	logger.Info("room created",
		logger.String("roomId", roomID),
		logger.Int64("adminId", adminID))
	return rm, nil
}

// generateUniqueRoomID generates a 6-digit room id with collision retry.
func (m *Manager) generateUniqueRoomID(ctx context.Context) (string, error) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("%06d", r.Intn(900000)+100000)

		exists, err := m.rooms.ExistsByID(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not find a free room id")
}

// DeleteRoom deletes the room and everything it owns. Administrator only.
func (m *Manager) DeleteRoom(ctx context.Context, roomID string, callerID int64) error {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if rm.AdminID != callerID {
		return ErrNotAdministrator
	}

	// notify before the room disappears; deletion does not depend on it
	m.notify(roomID, EventRoomDeleted, nil)

	if err := m.rooms.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	m.clearCache(ctx, roomID)

	// stored audio is swept by room prefix, best-effort: the rows are gone
	// and a failed sweep only leaves orphaned objects to retry
	if m.objects != nil {
		if err := m.objects.RemoveRoomObjects(ctx, roomID); err != nil {
			logger.Warn("failed to sweep room audio objects",
				logger.ErrorField(err),
				logger.String("roomId", roomID))
		}
	}

	logger.Info("room deleted",
		logger.String("roomId", roomID),
		logger.Int64("adminId", callerID))
	return nil
}

// GetRoomInfo returns the room with its participant count.
func (m *Manager) GetRoomInfo(ctx context.Context, roomID string) (*model.RoomInfo, error) {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	count, err := m.rooms.CountParticipants(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	info := &model.RoomInfo{Room: *rm, ParticipantCount: int(count)}
	if admin, err := m.users.GetByID(ctx, rm.AdminID); err == nil && admin != nil {
		info.AdminName = admin.Username
	}

	// read-side cache data, best-effort
	if m.cache != nil {
		if online, err := m.cache.GetOnlineCount(ctx, roomID); err == nil {
			info.OnlineCount = online
		}
		if snap, err := m.cache.GetPlaybackSnapshot(ctx, roomID); err == nil {
			info.Playback = snap
		}
	}
	return info, nil
}

// ListParticipants returns the room's members with usernames resolved.
// Participants only.
func (m *Manager) ListParticipants(ctx context.Context, roomID string, callerID int64) ([]model.ParticipantInfo, error) {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := m.requireParticipant(ctx, rm, callerID); err != nil {
		return nil, err
	}

	participants, err := m.rooms.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	ids := make([]int64, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	users, err := m.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}

	infos := make([]model.ParticipantInfo, 0, len(participants))
	for _, p := range participants {
		info := model.ParticipantInfo{UserID: p.UserID, JoinedAt: p.JoinedAt}
		if u := users[p.UserID]; u != nil {
			info.Username = u.Username
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ========== membership ==========

// Join adds the user to the room. Joining twice is a conflict.
func (m *Manager) Join(ctx context.Context, roomID string, userID int64) (*model.Participant, error) {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	existing, err := m.rooms.GetParticipant(ctx, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up participant: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyParticipant
	}

	participant := &model.Participant{RoomID: rm.ID, UserID: userID, JoinedAt: time.Now().UTC()}
	if err := m.rooms.AddParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	m.notify(roomID, EventUserJoined, &MembershipPayload{User: m.userRef(ctx, userID)})

	logger.Info("user joined room",
		logger.String("roomId", roomID),
		logger.Int64("userId", userID))
	return participant, nil
}

// Leave removes the user from the room. The administrator cannot leave.
func (m *Manager) Leave(ctx context.Context, roomID string, userID int64) error {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if rm.AdminID == userID {
		return ErrAdminCannotLeave
	}

	existing, err := m.rooms.GetParticipant(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to look up participant: %w", err)
	}
	if existing == nil {
		return ErrNotParticipant
	}

	if err := m.rooms.RemoveParticipant(ctx, roomID, userID); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	if m.cache != nil {
		if err := m.cache.RemoveUserPresence(ctx, roomID, userID); err != nil {
			logger.Warn("failed to drop presence", logger.ErrorField(err))
		}
	}

	m.notify(roomID, EventUserLeft, &MembershipPayload{User: m.userRef(ctx, userID)})

	logger.Info("user left room",
		logger.String("roomId", roomID),
		logger.Int64("userId", userID))
	return nil
}

// ========== tracks ==========

// AddTrack registers an uploaded track in the room. Participants only; the
// upload itself (object storage, metadata) happens before this call.
func (m *Manager) AddTrack(ctx context.Context, roomID string, uploaderID int64, track *model.Track) error {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := m.requireParticipant(ctx, rm, uploaderID); err != nil {
		return err
	}

	track.RoomID = rm.ID
	track.UploaderID = uploaderID
	track.VoteScore = 0
	if track.CreatedAt.IsZero() {
		track.CreatedAt = time.Now().UTC()
	}
	if err := m.tracks.Create(ctx, track); err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}

	m.notify(roomID, EventTrackAdded, &TrackPayload{
		Track:    track,
		Uploader: m.userRef(ctx, uploaderID),
	})

	logger.Info("track added",
		logger.String("roomId", roomID),
		logger.Int64("trackId", track.ID),
		logger.Int64("uploaderId", uploaderID))
	return nil
}

// RemoveTrack deletes the track and its votes. Allowed for the uploader and
// the administrator. If the track is current, playback stops first.
func (m *Manager) RemoveTrack(ctx context.Context, roomID string, trackID, callerID int64) error {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	track, err := m.getRoomTrack(ctx, rm, trackID)
	if err != nil {
		return err
	}
	if callerID != track.UploaderID && callerID != rm.AdminID {
		return ErrNotTrackOwner
	}

	if rm.CurrentTrackID != nil && *rm.CurrentTrackID == trackID {
		m.clock.Stop(rm)
		if err := m.rooms.SavePlayback(ctx, rm); err != nil {
			return fmt.Errorf("failed to stop playback before removal: %w", err)
		}
		m.cacheSnapshot(ctx, rm, nil)
		m.notify(roomID, EventPlaybackStopped, nil)
	}

	if err := m.tracks.Delete(ctx, trackID); err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	if m.objects != nil && track.StoragePath != "" {
		if err := m.objects.Remove(ctx, track.StoragePath); err != nil {
			logger.Warn("failed to remove audio object",
				logger.ErrorField(err),
				logger.String("object", track.StoragePath))
		}
	}

	m.notify(roomID, EventTrackRemoved, &TrackPayload{
		Track:    track,
		Uploader: m.userRef(ctx, track.UploaderID),
	})

	logger.Info("track removed",
		logger.String("roomId", roomID),
		logger.Int64("trackId", trackID),
		logger.Int64("callerId", callerID))
	return nil
}

// Queue returns the room's vote-ordered queue with the caller's vote flags.
// Participants only.
func (m *Manager) Queue(ctx context.Context, roomID string, callerID int64) ([]model.QueueEntry, error) {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := m.requireParticipant(ctx, rm, callerID); err != nil {
		return nil, err
	}

	tracks, err := m.ranker.OrderedQueue(ctx, roomID)
	if err != nil {
		return nil, err
	}
	voted, err := m.tracks.VotedTrackIDs(ctx, roomID, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vote flags: %w", err)
	}

	entries := make([]model.QueueEntry, 0, len(tracks))
	for _, t := range tracks {
		entries = append(entries, model.QueueEntry{Track: t, UserHasVoted: voted[t.ID]})
	}
	return entries, nil
}

// ========== votes ==========

// Vote adds the caller's vote for the track. Participants of the track's
// room only. A duplicate vote is a conflict; the current score is still
// reported.
func (m *Manager) Vote(ctx context.Context, trackID, callerID int64) (*queue.VoteResult, error) {
	track, rm, err := m.getTrackAndRoom(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if err := m.requireParticipant(ctx, rm, callerID); err != nil {
		return nil, err
	}

	result, err := m.ranker.Vote(ctx, trackID, callerID)
	if err != nil {
		return result, err
	}

	track.VoteScore = result.NewScore
	m.notify(rm.ID, EventTrackVoted, &VotePayload{
		Track:        track,
		Voter:        m.userRef(ctx, callerID),
		NewVoteScore: result.NewScore,
	})
	return result, nil
}

// Unvote removes the caller's vote for the track.
func (m *Manager) Unvote(ctx context.Context, trackID, callerID int64) (*queue.VoteResult, error) {
	track, rm, err := m.getTrackAndRoom(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if err := m.requireParticipant(ctx, rm, callerID); err != nil {
		return nil, err
	}

	result, err := m.ranker.Unvote(ctx, trackID, callerID)
	if err != nil {
		return result, err
	}

	track.VoteScore = result.NewScore
	m.notify(rm.ID, EventTrackUnvoted, &VotePayload{
		Track:        track,
		Voter:        m.userRef(ctx, callerID),
		NewVoteScore: result.NewScore,
	})
	return result, nil
}

// ========== playback ==========

// Start begins playback of the given track. Administrator only; the track
// must belong to the room.
func (m *Manager) Start(ctx context.Context, roomID string, trackID, callerID int64) (*PlaybackStatus, error) {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm.AdminID != callerID {
		return nil, ErrNotAdministrator
	}
	track, err := m.getRoomTrack(ctx, rm, trackID)
	if err != nil {
		return nil, err
	}

	startedAt, err := m.clock.Start(rm, track)
	if err != nil {
		return nil, err
	}
	if err := m.rooms.SavePlayback(ctx, rm); err != nil {
		return nil, fmt.Errorf("failed to persist playback state: %w", err)
	}

	status := m.status(rm, track)
	m.cacheSnapshot(ctx, rm, track)
	m.notify(roomID, EventPlaybackStarted, &PlaybackStartedPayload{
		Track:     track,
		StartedAt: startedAt,
	})

	logger.Info("playback started",
		logger.String("roomId", roomID),
		logger.Int64("trackId", trackID))
	return status, nil
}

// Pause freezes playback. Administrator only.
func (m *Manager) Pause(ctx context.Context, roomID string, callerID int64) (*PlaybackStatus, error) {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm.AdminID != callerID {
		return nil, ErrNotAdministrator
	}
	track := m.currentTrack(ctx, rm)

	pausedAt, err := m.clock.Pause(rm)
	if err != nil {
		return nil, err
	}
	if err := m.rooms.SavePlayback(ctx, rm); err != nil {
		return nil, fmt.Errorf("failed to persist playback state: %w", err)
	}

	status := m.status(rm, track)
	m.cacheSnapshot(ctx, rm, track)
	m.notify(roomID, EventPlaybackPaused, &PlaybackPausedPayload{
		PausedAt: pausedAt,
		Position: status.Position,
	})
	return status, nil
}

// Resume continues paused playback. Administrator only.
func (m *Manager) Resume(ctx context.Context, roomID string, callerID int64) (*PlaybackStatus, error) {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm.AdminID != callerID {
		return nil, ErrNotAdministrator
	}
	track := m.currentTrack(ctx, rm)

	if _, err := m.clock.Resume(rm); err != nil {
		return nil, err
	}
	if err := m.rooms.SavePlayback(ctx, rm); err != nil {
		return nil, fmt.Errorf("failed to persist playback state: %w", err)
	}

	status := m.status(rm, track)
	m.cacheSnapshot(ctx, rm, track)
	m.notify(roomID, EventPlaybackResumed, &PlaybackResumedPayload{
		Position: status.Position,
	})
	return status, nil
}

// Skip drops the current track and starts the head of the queue, or stops
// when the queue is empty. Administrator only. Track-end uses the same path.
func (m *Manager) Skip(ctx context.Context, roomID string, callerID int64) (*SkipResult, error) {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm.AdminID != callerID {
		return nil, ErrNotAdministrator
	}
	if rm.CurrentTrackID == nil {
		return nil, playback.ErrNoCurrentTrack
	}

	skippedID := *rm.CurrentTrackID
	skipped := m.currentTrack(ctx, rm)

	next, err := m.ranker.NextAfter(ctx, roomID, skippedID)
	if err != nil {
		return nil, err
	}

	if next == nil {
		m.clock.Stop(rm)
	} else {
		if _, err := m.clock.Start(rm, next); err != nil {
			return nil, err
		}
	}
	if err := m.rooms.SavePlayback(ctx, rm); err != nil {
		return nil, fmt.Errorf("failed to persist playback state: %w", err)
	}

	m.cacheSnapshot(ctx, rm, next)
	m.notify(roomID, EventTrackSkipped, &TrackSkippedPayload{
		SkippedTrack: skipped,
		NextTrack:    next,
	})

	result := &SkipResult{
		SkippedTrackID: skippedID,
		ServerTime:     m.clock.Now().UnixMilli(),
	}
	if next != nil {
		nextID := next.ID
		result.NextTrackID = &nextID
	}

	logger.Info("track skipped",
		logger.String("roomId", roomID),
		logger.Int64("skippedTrackId", skippedID))
	return result, nil
}

// Stop clears playback. Administrator only; valid from any state.
func (m *Manager) Stop(ctx context.Context, roomID string, callerID int64) error {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if rm.AdminID != callerID {
		return ErrNotAdministrator
	}

	m.clock.Stop(rm)
	if err := m.rooms.SavePlayback(ctx, rm); err != nil {
		return fmt.Errorf("failed to persist playback state: %w", err)
	}

	m.cacheSnapshot(ctx, rm, nil)
	m.notify(roomID, EventPlaybackStopped, nil)
	return nil
}

// Status returns the authoritative playback view. Participants only.
func (m *Manager) Status(ctx context.Context, roomID string, callerID int64) (*PlaybackStatus, error) {
	rm, err := m.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := m.requireParticipant(ctx, rm, callerID); err != nil {
		return nil, err
	}

	track := m.currentTrack(ctx, rm)
	return m.status(rm, track), nil
}

// ========== helpers ==========

func (m *Manager) getRoom(ctx context.Context, roomID string) (*model.Room, error) {
	rm, err := m.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch room: %w", err)
	}
	if rm == nil {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// getRoomTrack fetches a track and verifies it belongs to the room.
func (m *Manager) getRoomTrack(ctx context.Context, rm *model.Room, trackID int64) (*model.Track, error) {
	track, err := m.tracks.GetByID(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch track: %w", err)
	}
	if track == nil {
		return nil, ErrTrackNotFound
	}
	if track.RoomID != rm.ID {
		return nil, ErrTrackNotInRoom
	}
	return track, nil
}

func (m *Manager) getTrackAndRoom(ctx context.Context, trackID int64) (*model.Track, *model.Room, error) {
	track, err := m.tracks.GetByID(ctx, trackID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch track: %w", err)
	}
	if track == nil {
		return nil, nil, ErrTrackNotFound
	}
	rm, err := m.getRoom(ctx, track.RoomID)
	if err != nil {
		return nil, nil, err
	}
	return track, rm, nil
}

// requireParticipant admits the administrator and any membership holder.
func (m *Manager) requireParticipant(ctx context.Context, rm *model.Room, userID int64) error {
	if rm.AdminID == userID {
		return nil
	}
	p, err := m.rooms.GetParticipant(ctx, rm.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to look up participant: %w", err)
	}
	if p == nil {
		return ErrNotParticipant
	}
	return nil
}

// currentTrack fetches the room's current track, nil when stopped or gone.
func (m *Manager) currentTrack(ctx context.Context, rm *model.Room) *model.Track {
	if rm.CurrentTrackID == nil {
		return nil
	}
	track, err := m.tracks.GetByID(ctx, *rm.CurrentTrackID)
	if err != nil {
		logger.Warn("failed to fetch current track", logger.ErrorField(err))
		return nil
	}
	return track
}

func (m *Manager) status(rm *model.Room, track *model.Track) *PlaybackStatus {
	return &PlaybackStatus{
		RoomID:       rm.ID,
		IsPlaying:    rm.IsPlaying,
		CurrentTrack: track,
		Position:     m.clock.Position(rm, track),
		StartedAt:    rm.PlaybackStartedAt,
		PausedAt:     rm.PlaybackPausedAt,
		ServerTime:   m.clock.Now().UnixMilli(),
	}
}

// cacheSnapshot refreshes the read-side playback cache, best-effort.
func (m *Manager) cacheSnapshot(ctx context.Context, rm *model.Room, track *model.Track) {
	if m.cache == nil {
		return
	}
	snap := &model.PlaybackSnapshot{
		RoomID:         rm.ID,
		IsPlaying:      rm.IsPlaying,
		CurrentTrackID: rm.CurrentTrackID,
		Position:       m.clock.Position(rm, track),
		ServerTime:     m.clock.Now().UnixMilli(),
	}
	if err := m.cache.SetPlaybackSnapshot(ctx, rm.ID, snap); err != nil {
		logger.Warn("failed to cache playback snapshot",
			logger.ErrorField(err),
			logger.String("roomId", rm.ID))
	}
}

func (m *Manager) clearCache(ctx context.Context, roomID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.ClearRoom(ctx, roomID); err != nil {
		logger.Warn("failed to clear room cache",
			logger.ErrorField(err),
			logger.String("roomId", roomID))
	}
}

// notify publishes an event, isolated from the originating operation: a
// broadcaster that panics or fails must never roll back committed state.
func (m *Manager) notify(roomID string, eventType EventType, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("broadcast panic",
				logger.String("roomId", roomID),
				logger.String("event", string(eventType)),
				logger.Any("panic", r))
		}
	}()
	m.broadcaster.Notify(roomID, eventType, payload)
}

// userRef resolves a username for event payloads, best-effort.
func (m *Manager) userRef(ctx context.Context, userID int64) UserRef {
	ref := UserRef{ID: userID}
	if m.users == nil {
		return ref
	}
	if u, err := m.users.GetByID(ctx, userID); err == nil && u != nil {
		ref.Username = u.Username
	}
	return ref
}
