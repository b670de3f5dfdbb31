package ws

import (
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
)

var log = logger.Component("ws")

// EventPublisher is what services use to push events. Services depend on
// this interface, not on *Hub, so tests can pass a recorder.
type EventPublisher interface {
	BroadcastToAll(event Event)
	BroadcastToAllExcept(excludeUserID string, event Event)
	BroadcastToUser(userID string, event Event)
	GetOnlineUserIDs() []string
	IsOnline(userID string) bool
	// DisconnectUser sends force_disconnect to every connection of the user
	// and closes them.
	DisconnectUser(userID, reason string)
}

// Hub tracks live connections by user. A user may hold several connections
// (tabs); presence changes only on the first connect and the last disconnect.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	seq atomic.Int64

	onFirstConnect   func(userID string)
	onLastDisconnect func(userID string)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// OnUserFirstConnect sets the callback fired when a user goes from zero to
// one connection. Callbacks run on their own goroutine.
func (h *Hub) OnUserFirstConnect(fn func(userID string)) {
	h.onFirstConnect = fn
}

// OnUserLastDisconnect sets the callback fired when a user's last
// connection goes away.
func (h *Hub) OnUserLastDisconnect(fn func(userID string)) {
	h.onLastDisconnect = fn
}

// Run is the hub's event loop. It returns after Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.clients[client.userID]
	if !ok {
		clients = make(map[*Client]bool)
		h.clients[client.userID] = clients
	}
	clients[client] = true
	n := len(clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	log.Debug().Str("user_id", client.userID).Int("connections", n).Msg("client connected")

	if n == 1 && h.onFirstConnect != nil {
		go h.onFirstConnect(client.userID)
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	last := h.detach(client)
	h.mu.Unlock()

	if last && h.onLastDisconnect != nil {
		go h.onLastDisconnect(client.userID)
	}
}

// detach removes client and closes its send channel. Caller holds h.mu.
// It reports whether this was the user's last connection.
func (h *Hub) detach(client *Client) bool {
	clients, ok := h.clients[client.userID]
	if !ok || !clients[client] {
		return false
	}

	delete(clients, client)
	close(client.send)
	metrics.WSConnections.Dec()

	if len(clients) == 0 {
		delete(h.clients, client.userID)
		log.Debug().Str("user_id", client.userID).Msg("user fully disconnected")
		return true
	}
	return false
}

// leave asks the loop to drop client. It never blocks after Shutdown.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) encode(event Event) []byte {
	event.Seq = h.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("op", event.Op).Msg("failed to marshal event")
		return nil
	}
	return data
}

// deliver queues data for client. A full buffer means the client is stuck;
// it is dropped. Caller holds h.mu for reading.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		log.Warn().Str("user_id", client.userID).Msg("send buffer full, dropping connection")
		go h.leave(client)
	}
}

func (h *Hub) BroadcastToAll(event Event) {
	h.BroadcastToAllExcept("", event)
}

// BroadcastToAllExcept skips every connection of excludeUserID.
func (h *Hub) BroadcastToAllExcept(excludeUserID string, event Event) {
	data := h.encode(event)
	if data == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, clients := range h.clients {
		if userID == excludeUserID {
			continue
		}
		for client := range clients {
			h.deliver(client, data)
		}
	}
}

func (h *Hub) BroadcastToUser(userID string, event Event) {
	data := h.encode(event)
	if data == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		h.deliver(client, data)
	}
}

func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

func (h *Hub) DisconnectUser(userID, reason string) {
	data := h.encode(Event{Op: OpForceDisconnect, Data: ForceDisconnectData{Reason: reason}})

	h.mu.Lock()
	last := false
	for client := range h.clients[userID] {
		if data != nil {
			select {
			case client.send <- data:
			default:
			}
		}
		// WritePump drains the buffered force_disconnect before it sees the
		// closed channel and sends the close frame.
		last = h.detach(client)
	}
	h.mu.Unlock()

	if last {
		log.Info().Str("user_id", userID).Str("reason", reason).Msg("user force disconnected")
		if h.onLastDisconnect != nil {
			go h.onLastDisconnect(userID)
		}
	}
}

// Shutdown closes every connection and stops Run.
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for _, clients := range h.clients {
			for client := range clients {
				close(client.send)
				metrics.WSConnections.Dec()
			}
		}
		h.clients = make(map[string]map[*Client]bool)
		log.Info().Msg("hub shut down, all connections closed")
	})
}
