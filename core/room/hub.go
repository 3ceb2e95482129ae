package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FALLENEZER/Spotik-sub003/cache"
	"github.com/FALLENEZER/Spotik-sub003/logger"

	"github.com/gorilla/websocket"
)

// Client is one WebSocket connection into a room. Clients only listen;
// all control flows over the HTTP API. The only inbound frames handled
// are heartbeat pings.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	RoomID   string
	UserID   int64
	Username string
}

// Hub tracks the WebSocket clients of every room and fans event frames out
// to them.
type Hub struct {
	// room id -> client set
	rooms map[string]map[*Client]bool

	// roomID:userID -> client; one connection per user per room
	userClients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *frame

	cache *cache.RoomCache // presence bookkeeping, may be nil

	mu   sync.RWMutex
	done chan struct{}
}

type frame struct {
	roomID  string
	message []byte
}

// NewHub creates a hub. roomCache may be nil; presence updates are then
// skipped.
func NewHub(roomCache *cache.RoomCache) *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Client]bool),
		userClients: make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *frame, 256),
		cache:       roomCache,
		done:        make(chan struct{}),
	}
}

// Run drives the hub loop until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case f := <-h.broadcast:
			h.broadcastToRoom(f)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop shuts the hub down.
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a message for every client in the room.
func (h *Hub) Broadcast(roomID string, message []byte) {
	h.broadcast <- &frame{roomID: roomID, message: message}
}

// ClientCount reports the number of connections in a room.
func (h *Hub) ClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userKey := h.userKey(client.RoomID, client.UserID)

	// one connection per user per room: a new connection evicts the old one
	if old, exists := h.userClients[userKey]; exists {
		h.removeClient(old)
	}

	if h.rooms[client.RoomID] == nil {
		h.rooms[client.RoomID] = make(map[*Client]bool)
	}
	h.rooms[client.RoomID][client] = true
	h.userClients[userKey] = client

	if h.cache != nil {
		if err := h.cache.UpdateUserPresence(context.Background(), client.RoomID, client.UserID); err != nil {
			logger.Warn("failed to update presence on register",
				logger.ErrorField(err),
				logger.String("roomId", client.RoomID),
				logger.Int64("userId", client.UserID))
		}
	}

	logger.Info("client registered",
		logger.String("roomId", client.RoomID),
		logger.Int64("userId", client.UserID))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClient(client)
}

// removeClient assumes the hub lock is held.
func (h *Hub) removeClient(client *Client) {
	userKey := h.userKey(client.RoomID, client.UserID)

	if clients, ok := h.rooms[client.RoomID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.Send)
			if len(clients) == 0 {
				delete(h.rooms, client.RoomID)
			}
		}
	}
	delete(h.userClients, userKey)

	if h.cache != nil {
		if err := h.cache.RemoveUserPresence(context.Background(), client.RoomID, client.UserID); err != nil {
			logger.Warn("failed to remove presence on unregister",
				logger.ErrorField(err),
				logger.String("roomId", client.RoomID),
				logger.Int64("userId", client.UserID))
		}
	}

	logger.Info("client unregistered",
		logger.String("roomId", client.RoomID),
		logger.Int64("userId", client.UserID))
}

func (h *Hub) broadcastToRoom(f *frame) {
	h.mu.RLock()
	clients, ok := h.rooms[f.roomID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// copy so the lock is not held while sending
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	for _, client := range clientList {
		select {
		case client.Send <- f.message:
		default:
			// send buffer full, drop the connection; inline because this
			// runs on the hub goroutine itself
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.rooms {
		for client := range clients {
			close(client.Send)
		}
	}
	h.rooms = make(map[string]map[*Client]bool)
	h.userClients = make(map[string]*Client)
}

func (h *Hub) userKey(roomID string, userID int64) string {
	return fmt.Sprintf("%s:%d", roomID, userID)
}

// ========== client pumps ==========

// ReadPump consumes inbound frames. Pings refresh presence; everything
// else is discarded.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	c.Conn.SetPingHandler(func(appData string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if c.Hub.cache != nil {
			if err := c.Hub.cache.UpdateUserPresence(ctx, c.RoomID, c.UserID); err != nil {
				logger.Warn("failed to refresh presence",
					logger.ErrorField(err),
					logger.String("roomId", c.RoomID),
					logger.Int64("userId", c.UserID))
			}
		}
		return c.Conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if _, _, err := c.Conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Warn("websocket read error",
						logger.ErrorField(err),
						logger.String("roomId", c.RoomID),
						logger.Int64("userId", c.UserID))
				}
				return
			}
		}
	}
}

// WritePump pushes queued frames to the connection and keeps it alive with
// periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// flush whatever else is queued
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
