package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/pkg/logger"
)

// ClientMessage is a control message sent by a feed subscriber.
type ClientMessage struct {
	Type   string `json:"type"` // watch_sale, unwatch_sale
	SaleID uint   `json:"sale_id"`
}

// Hub fans committed sale events out to connected clients.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *envelope

	mu sync.RWMutex
}

type envelope struct {
	saleID uint
	data   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *envelope, 1024),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			logger.Info("Sale event hub stopped", nil)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			remaining := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"user_id":            client.UserID,
				"remaining_sessions": remaining,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.wants(message.saleID) {
					continue
				}
				select {
				case client.Send <- message.data:
				default:
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"user_id": client.UserID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues a sale event for broadcast. It never blocks; events are
// dropped when the hub is saturated.
func (h *Hub) Publish(event model.SaleEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal sale event", err, map[string]interface{}{
			"sale_id": event.SaleID,
		})
		return
	}

	select {
	case h.broadcast <- &envelope{saleID: event.SaleID, data: data}:
	default:
		logger.Warn("Broadcast channel full, sale event dropped", map[string]interface{}{
			"sale_id": event.SaleID,
			"type":    event.Type,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleClientMessage applies watch and unwatch requests, rate limited per client.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	if !client.limiter.Allow() {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
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

	switch msg.Type {
	case "watch_sale":
		client.watch(msg.SaleID, true)
	case "unwatch_sale":
		client.watch(msg.SaleID, false)
	default:
		logger.Warn("Unknown client message type", map[string]interface{}{
			"user_id": client.UserID,
			"type":    msg.Type,
		})
	}
}
