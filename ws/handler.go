package ws

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// TokenValidator is the slice of the auth service the socket needs. Using
// services.AuthService here would create an import cycle.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// BanChecker refuses banned users at connect time.
type BanChecker interface {
	IsBanned(ctx context.Context, userID string) (bool, error)
}

type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	bans           BanChecker
	upgrader       websocket.Upgrader
}

// NewHandler builds the /ws handler. allowedOrigins limits the Origin header;
// empty or "*" accepts any origin.
func NewHandler(hub *Hub, tokenValidator TokenValidator, bans BanChecker, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub, tokenValidator: tokenValidator, bans: bans}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// HandleConnection authenticates with ?token=<access token>, since browsers
// cannot set headers on a WebSocket handshake, then upgrades and registers
// the client.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if h.bans != nil {
		banned, err := h.bans.IsBanned(r.Context(), claims.UserID)
		if err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("ban check failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if banned {
			http.Error(w, "account is banned", http.StatusForbidden)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("upgrade failed")
		return
	}

	client := &Client{
		hub:      h.hub,
		conn:     conn,
		userID:   claims.UserID,
		username: claims.Username,
		send:     make(chan []byte, sendBufferSize),
	}

	// ready goes into the buffer before registering so it is always the
	// first frame the client sees.
	online := h.hub.GetOnlineUserIDs()
	if !h.hub.IsOnline(claims.UserID) {
		online = append(online, claims.UserID)
	}
	if data := h.hub.encode(Event{
		Op: OpReady,
		Data: ReadyData{
			UserID:        claims.UserID,
			Username:      claims.Username,
			Role:          string(claims.Role),
			OnlineUserIDs: online,
		},
	}); data != nil {
		client.send <- data
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}
