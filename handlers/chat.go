package handlers

import (
	"fmt"
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
	"github.com/vignesh0909/adbond.net-sub002/pkg/ratelimit"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

// ChatHandler serves the community chat. New messages also arrive over the
// WebSocket; polling is the fallback and the way to load history.
type ChatHandler struct {
	chatService services.ChatService
	limiter     *ratelimit.MessageRateLimiter
}

// NewChatHandler builds the handler. A nil limiter disables spam protection.
func NewChatHandler(chatService services.ChatService, limiter *ratelimit.MessageRateLimiter) *ChatHandler {
	return &ChatHandler{chatService: chatService, limiter: limiter}
}

// Poll godoc
// GET /api/chat/messages?after=<seq>&before=<seq>&deleted_after=<seq>&limit=
func (h *ChatHandler) Poll(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := models.ChatPollParams{
		After:        q.int64("after"),
		Before:       q.int64("before"),
		DeletedAfter: q.int64("deleted_after"),
		Limit:        q.int("limit"),
	}
	if q.err != nil {
		pkg.Error(w, q.err)
		return
	}

	page, err := h.chatService.Poll(r.Context(), params)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// Send godoc
// POST /api/chat/messages
// Body: { "content": "...", "reply_to_id": "<id>", "client_nonce": "..." }
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if h.limiter != nil && !h.limiter.Allow(user.ID) {
		cooldown := h.limiter.CooldownSeconds(user.ID)
		metrics.RecordRateLimited("chat")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", cooldown))
		pkg.Error(w, fmt.Errorf("%w: you are sending messages too fast, please wait %s",
			pkg.ErrTooManyRequests, ratelimit.FormatRetryMessage(cooldown)))
		return
	}

	var req models.SendChatMessageRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	msg, err := h.chatService.Send(r.Context(), user, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, msg)
}

// Delete godoc
// DELETE /api/chat/messages/{id}
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.chatService.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}

// Online godoc
// GET /api/chat/online
func (h *ChatHandler) Online(w http.ResponseWriter, r *http.Request) {
	users, err := h.chatService.Online(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, users)
}
