// Package ws keeps the WebSocket connections and fans server events out to
// them.
//
// Flow of a chat message:
//  1. POST /api/chat/messages -> ChatService -> database
//  2. ChatService calls Hub.BroadcastToAll
//  3. the hub copies the encoded event into every client's send buffer
//  4. each client's WritePump writes it to its socket
//
// Clients that miss an event (offline, slow) recover through the polling
// endpoint, so the socket is a fast path and never the source of truth.
package ws

// Event is one frame on the socket. Seq increases by one for every outbound
// event so a client can detect gaps.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client -> server.
const (
	OpHeartbeat = "heartbeat"
	OpTyping    = "typing"
)

// Server -> client.
const (
	OpReady              = "ready"
	OpHeartbeatAck       = "heartbeat_ack"
	OpChatMessageCreate  = "chat_message_create"
	OpChatMessageDelete  = "chat_message_delete"
	OpChatTyping         = "chat_typing"
	OpPresenceUpdate     = "presence_update"
	OpEntityStatusUpdate = "entity_status_update"
	OpVerificationUpdate = "verification_update"
	OpForceDisconnect    = "force_disconnect"
)

// ReadyData is sent once right after the connection is accepted.
type ReadyData struct {
	UserID        string   `json:"user_id"`
	Username      string   `json:"username"`
	Role          string   `json:"role"`
	OnlineUserIDs []string `json:"online_user_ids"`
}

type ChatTypingData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type ChatDeleteData struct {
	ID  string `json:"id"`
	Seq int64  `json:"seq"`
}

type PresenceData struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

type EntityStatusData struct {
	EntityID string  `json:"entity_id"`
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Reason   *string `json:"reason,omitempty"`
}

type VerificationUpdateData struct {
	RequestID string  `json:"request_id"`
	Status    string  `json:"status"`
	Note      *string `json:"note,omitempty"`
}

type ForceDisconnectData struct {
	Reason string `json:"reason"`
}
