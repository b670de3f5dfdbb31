package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

func newTestClient(h *Hub, userID string) *Client {
	return &Client{hub: h, userID: userID, username: userID, send: make(chan []byte, sendBufferSize)}
}

func readEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var e Event
		require.NoError(t, json.Unmarshal(raw, &e))
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestHub_BroadcastAndPresenceCallbacks(t *testing.T) {
	h := NewHub()

	var mu sync.Mutex
	var events []string
	record := func(kind string) func(string) {
		return func(userID string) {
			mu.Lock()
			events = append(events, kind+":"+userID)
			mu.Unlock()
		}
	}
	h.OnUserFirstConnect(record("online"))
	h.OnUserLastDisconnect(record("offline"))

	a1, a2, b := newTestClient(h, "a"), newTestClient(h, "a"), newTestClient(h, "b")
	h.addClient(a1)
	h.addClient(a2)
	h.addClient(b)

	assert.True(t, h.IsOnline("a"))
	assert.ElementsMatch(t, []string{"a", "b"}, h.GetOnlineUserIDs())
	assert.Equal(t, 3, h.ConnectionCount())

	h.BroadcastToAllExcept("a", Event{Op: OpChatTyping})
	assert.Equal(t, OpChatTyping, readEvent(t, b).Op)
	assert.Empty(t, a1.send)

	h.BroadcastToUser("a", Event{Op: OpVerificationUpdate})
	first := readEvent(t, a1)
	second := readEvent(t, a2)
	assert.Equal(t, first.Seq, second.Seq)

	h.BroadcastToAll(Event{Op: OpPresenceUpdate})
	assert.Greater(t, readEvent(t, b).Seq, first.Seq)

	h.removeClient(a1)
	h.removeClient(a1)
	assert.True(t, h.IsOnline("a"))
	h.removeClient(a2)
	assert.False(t, h.IsOnline("a"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 3
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.ElementsMatch(t, []string{"online:a", "online:b", "offline:a"}, events)
	mu.Unlock()
}

func TestHub_DisconnectUser(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "spammer")
	h.addClient(c)

	h.DisconnectUser("spammer", "banned")

	e := readEvent(t, c)
	assert.Equal(t, OpForceDisconnect, e.Op)
	_, ok := <-c.send
	assert.False(t, ok, "send channel should be closed")
	assert.False(t, h.IsOnline("spammer"))
}

type stubValidator struct{}

func (stubValidator) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	if token == "good" || token == "banned" {
		return &models.TokenClaims{UserID: token + "-id", Username: token, Role: models.RoleAffiliate}, nil
	}
	return nil, errors.New("bad token")
}

type stubBans struct{}

func (stubBans) IsBanned(_ context.Context, userID string) (bool, error) {
	return userID == "banned-id", nil
}

func TestHandler_Connection(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Shutdown()

	srv := httptest.NewServer(http.HandlerFunc(NewHandler(h, stubValidator{}, stubBans{}, nil).HandleConnection))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=nope", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token=banned", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	var ready struct {
		Op string    `json:"op"`
		D  ReadyData `json:"d"`
	}
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, OpReady, ready.Op)
	assert.Equal(t, "good-id", ready.D.UserID)
	assert.Contains(t, ready.D.OnlineUserIDs, "good-id")

	require.NoError(t, conn.WriteJSON(Event{Op: OpHeartbeat}))
	var ack Event
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, OpHeartbeatAck, ack.Op)

	assert.Eventually(t, func() bool { return h.IsOnline("good-id") }, time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://adbond.net"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://adbond.net")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))

	assert.True(t, originChecker(nil)(r))
	assert.True(t, originChecker([]string{"*"})(r))
}
