package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"golang.org/x/time/rate"
)

// Connection limits for feed subscribers.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10 // must stay below pongWait

	// Subscribers only send small watch/unwatch messages.
	maxMessageSize       = 4 * 1024
	maxMessagesPerSecond = 10

	sendBuffer = 256
)

// Client is one websocket session of a staff member. A client without
// watched sales receives every event.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID uint
	Send   chan []byte

	mu      sync.RWMutex
	watched map[uint]bool

	limiter *rate.Limiter
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		UserID:  userID,
		Send:    make(chan []byte, sendBuffer),
		watched: make(map[uint]bool),
		limiter: rate.NewLimiter(rate.Limit(maxMessagesPerSecond), maxMessagesPerSecond),
	}
}

func (c *Client) wants(saleID uint) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.watched) == 0 || c.watched[saleID]
}

func (c *Client) watch(saleID uint, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.watched[saleID] = true
	} else {
		delete(c.watched, saleID)
	}
}

// Serve runs the session until the peer disconnects or the hub closes Send.
func (c *Client) Serve() {
	go c.writeEvents()
	c.readControl()
}

func (c *Client) readControl() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	extend := func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	c.Conn.SetReadLimit(maxMessageSize)
	_ = extend("")
	c.Conn.SetPongHandler(extend)

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Sale feed read failed", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			return
		}
		c.Hub.HandleClientMessage(c, message)
	}
}

func (c *Client) writeFrame(messageType int, data []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

func (c *Client) writeEvents() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if !ok {
				_ = c.writeFrame(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeFrame(websocket.TextMessage, event); err != nil {
				logger.Warn("Sale feed write failed", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
				return
			}
		case <-ticker.C:
			if err := c.writeFrame(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
