package room

import (
	"encoding/json"

	"github.com/FALLENEZER/Spotik-sub003/logger"
)

// HubBroadcaster publishes events through the WebSocket hub. Every publish
// attempt is isolated: a marshal failure is logged and the event dropped.
type HubBroadcaster struct {
	hub *Hub
}

// NewHubBroadcaster creates a hub-backed broadcaster.
func NewHubBroadcaster(hub *Hub) *HubBroadcaster {
	return &HubBroadcaster{hub: hub}
}

// Notify marshals the event envelope and queues it for the room's clients.
func (b *HubBroadcaster) Notify(roomID string, eventType EventType, payload interface{}) {
	evt := NewEvent(roomID, eventType, payload)
	data, err := json.Marshal(evt)
	if err != nil {
		logger.Error("failed to marshal event",
			logger.ErrorField(err),
			logger.String("roomId", roomID),
			logger.String("event", string(eventType)))
		return
	}
	b.hub.Broadcast(roomID, data)
}
