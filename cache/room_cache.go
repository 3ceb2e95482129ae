package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FALLENEZER/Spotik-sub003/model"

	"github.com/go-redis/redis/v8"
)

const (
	roomPlaybackKey = "room:%s:playback"    // String: PlaybackSnapshot JSON
	roomPresenceKey = "room:%s:presence:%d" // String: per-user heartbeat
	roomOnlineKey   = "room:%s:online"      // Set: online user ids
	roomTTL         = 24 * time.Hour
	presenceTTL     = 60 * time.Second
)

// RoomCache is the read-side cache for room state: the last playback
// snapshot and per-user presence heartbeats. MySQL stays authoritative.
type RoomCache struct {
	client *redis.Client
}

// NewRoomCache creates a room cache on the shared Redis client.
func NewRoomCache() *RoomCache {
	return &RoomCache{client: RedisClient}
}

// ========== playback snapshot ==========

// SetPlaybackSnapshot stores the latest playback view for the room.
func (c *RoomCache) SetPlaybackSnapshot(ctx context.Context, roomID string, snap *model.PlaybackSnapshot) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := fmt.Sprintf(roomPlaybackKey, roomID)
	return c.client.Set(ctx, key, data, roomTTL).Err()
}

// GetPlaybackSnapshot returns the cached playback view, (nil, nil) on miss.
func (c *RoomCache) GetPlaybackSnapshot(ctx context.Context, roomID string) (*model.PlaybackSnapshot, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	key := fmt.Sprintf(roomPlaybackKey, roomID)
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var snap model.PlaybackSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ========== presence ==========

// UpdateUserPresence refreshes the user's heartbeat in the room.
func (c *RoomCache) UpdateUserPresence(ctx context.Context, roomID string, userID int64) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, fmt.Sprintf(roomPresenceKey, roomID, userID), time.Now().UnixMilli(), presenceTTL)
	pipe.SAdd(ctx, fmt.Sprintf(roomOnlineKey, roomID), userID)
	pipe.Expire(ctx, fmt.Sprintf(roomOnlineKey, roomID), roomTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// RemoveUserPresence drops the user's presence in the room.
func (c *RoomCache) RemoveUserPresence(ctx context.Context, roomID string, userID int64) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, fmt.Sprintf(roomPresenceKey, roomID, userID))
	pipe.SRem(ctx, fmt.Sprintf(roomOnlineKey, roomID), userID)
	_, err := pipe.Exec(ctx)
	return err
}

// GetOnlineCount counts users whose heartbeat has not expired. Stale set
// members are pruned as a side effect.
func (c *RoomCache) GetOnlineCount(ctx context.Context, roomID string) (int64, error) {
	if c.client == nil {
		return 0, fmt.Errorf("Redis client not initialized")
	}

	members, err := c.client.SMembers(ctx, fmt.Sprintf(roomOnlineKey, roomID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}

	var online int64
	for _, member := range members {
		var userID int64
		if _, err := fmt.Sscanf(member, "%d", &userID); err != nil {
			continue
		}
		exists, err := c.client.Exists(ctx, fmt.Sprintf(roomPresenceKey, roomID, userID)).Result()
		if err != nil {
			continue
		}
		if exists > 0 {
			online++
		} else {
			c.client.SRem(ctx, fmt.Sprintf(roomOnlineKey, roomID), member)
		}
	}
	return online, nil
}

// ClearRoom removes everything cached for the room.
func (c *RoomCache) ClearRoom(ctx context.Context, roomID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	onlineKey := fmt.Sprintf(roomOnlineKey, roomID)
	members, _ := c.client.SMembers(ctx, onlineKey).Result()

	pipe := c.client.Pipeline()
	pipe.Del(ctx, fmt.Sprintf(roomPlaybackKey, roomID))
	pipe.Del(ctx, onlineKey)
	for _, member := range members {
		var userID int64
		if _, err := fmt.Sscanf(member, "%d", &userID); err == nil {
			pipe.Del(ctx, fmt.Sprintf(roomPresenceKey, roomID, userID))
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}
