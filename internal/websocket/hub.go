package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

const (
	maxMessagesPerSecond = 10
	sendBufferSize       = 256
)

// Notification is pushed to every open session of a user
type Notification struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ClientMessage is what a client may send up the socket
type ClientMessage struct {
	Type string `json:"type"` // ping
}

type Client struct {
	Hub           *Hub
	Conn          *Conn
	UserID        uuid.UUID
	Send          chan []byte
	MessageCount  int
	LastResetTime time.Time
	rateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn, userID uuid.UUID) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		UserID:        userID,
		Send:          make(chan []byte, sendBufferSize),
		LastResetTime: time.Now(),
	}
}

type delivery struct {
	userID  uuid.UUID
	message []byte
}

// Hub tracks open sessions per user; one user may have several devices
type Hub struct {
	clients    map[uuid.UUID][]*Client
	register   chan *Client
	unregister chan *Client
	deliver    chan *delivery
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		deliver:    make(chan *delivery, 1024),
	}
}

// Run serves registrations and deliveries until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.mu.RLock()
			clientList := h.clients[d.userID]
			h.mu.RUnlock()

			for _, client := range clientList {
				select {
				case client.Send <- d.message:
				default:
					// Slow consumer
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"user_id": d.userID,
					})
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientList, ok := h.clients[client.UserID]
	if !ok {
		return
	}

	remaining := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return
	}

	if len(remaining) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = remaining
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(remaining),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clientList := range h.clients {
		for _, c := range clientList {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
}

// NotifyUser queues a notification for every session of userID. Offline
// users are skipped; a full queue drops the message.
func (h *Hub) NotifyUser(userID uuid.UUID, notificationType string, data interface{}) error {
	if !h.IsUserOnline(userID) {
		return nil
	}

	payload, err := json.Marshal(Notification{Type: notificationType, Data: data})
	if err != nil {
		logger.Error("Failed to marshal notification", err)
		return err
	}

	select {
	case h.deliver <- &delivery{userID: userID, message: payload}:
	default:
		logger.Warn("Delivery channel full, notification dropped", map[string]interface{}{
			"user_id": userID,
			"type":    notificationType,
		})
	}
	return nil
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// HandleClientMessage answers pings; anything else is ignored
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.rateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.rateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("WebSocket rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		h.reply(client, Notification{Type: "pong"})
	}
}

// reply queues a message for one session only. Holding the read lock keeps
// remove from closing Send underneath the write.
func (h *Hub) reply(client *Client, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Error("Failed to marshal reply", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.isRegistered(client) {
		return
	}
	select {
	case client.Send <- payload:
	default:
		logger.Warn("Client send buffer full, reply dropped", map[string]interface{}{
			"user_id": client.UserID,
			"type":    n.Type,
		})
	}
}

// isRegistered must be called with h.mu held
func (h *Hub) isRegistered(client *Client) bool {
	for _, c := range h.clients[client.UserID] {
		if c == client {
			return true
		}
	}
	return false
}
