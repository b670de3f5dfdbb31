package ws

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// pongWait: three missed 30s heartbeats.
	pongWait = 90 * time.Second

	maxMessageSize = 4096
	sendBufferSize = 256

	// typingInterval throttles chat_typing relays per connection.
	typingInterval = 2 * time.Second
)

// Client is one WebSocket connection. ReadPump and WritePump run on their
// own goroutines since gorilla/websocket allows one reader and one writer.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   string
	username string
	send     chan []byte
	mu       sync.Mutex

	lastTyping time.Time
}

// ReadPump reads client frames until the connection fails, then leaves
// the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Warn().Err(err).Str("user_id", c.userID).Msg("failed to set read deadline")
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("user_id", c.userID).Msg("unexpected close")
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Debug().Err(err).Str("user_id", c.userID).Msg("invalid frame")
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpTyping:
		c.handleTyping()

	default:
		log.Debug().Str("user_id", c.userID).Str("op", event.Op).Msg("unknown op")
	}
}

func (c *Client) handleTyping() {
	now := time.Now()
	if now.Sub(c.lastTyping) < typingInterval {
		return
	}
	c.lastTyping = now

	c.hub.BroadcastToAllExcept(c.userID, Event{
		Op:   OpChatTyping,
		Data: ChatTypingData{UserID: c.userID, Username: c.username},
	})
}

// sendEvent queues an event for this connection only.
func (c *Client) sendEvent(event Event) {
	data := c.hub.encode(event)
	if data == nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.hub.clients[c.userID][c] {
		c.hub.deliver(c, data)
	}
}

// WritePump writes queued frames until the hub closes the send channel.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
