package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
	"github.com/vignesh0909/adbond.net-sub002/repository"
	"github.com/vignesh0909/adbond.net-sub002/ws"
)

var chatLog = logger.Component("chat")

// ChatService is the community chat. Clients poll by seq and also receive
// pushes over the WebSocket; both paths see the same messages.
type ChatService interface {
	Send(ctx context.Context, actor *models.User, req *models.SendChatMessageRequest) (*models.ChatMessage, error)
	Poll(ctx context.Context, params models.ChatPollParams) (*models.ChatPage, error)
	Delete(ctx context.Context, actor *models.User, id string) error
	Online(ctx context.Context) ([]models.Author, error)
}

type chatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	hub      ws.EventPublisher
	now      func() time.Time
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, hub ws.EventPublisher) ChatService {
	return &chatService{chatRepo: chatRepo, userRepo: userRepo, hub: hub, now: time.Now}
}

// Send stores the message and pushes it to everyone, the sender included, so
// other tabs of the same user stay in sync. ClientNonce is echoed for the
// sender to match its optimistic copy.
func (s *chatService) Send(ctx context.Context, actor *models.User, req *models.SendChatMessageRequest) (*models.ChatMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.ReplyToID != nil {
		parent, err := s.chatRepo.GetByID(ctx, *req.ReplyToID)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				return nil, fmt.Errorf("%w: replied message does not exist", pkg.ErrBadRequest)
			}
			return nil, err
		}
		if parent.DeletedAt != nil {
			return nil, fmt.Errorf("%w: replied message was deleted", pkg.ErrBadRequest)
		}
	}

	msg := &models.ChatMessage{
		UserID:      actor.ID,
		Content:     req.Content,
		ReplyToID:   req.ReplyToID,
		ClientNonce: req.ClientNonce,
	}
	if err := s.chatRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	stored, err := s.chatRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	stored.ClientNonce = req.ClientNonce

	metrics.ChatMessagesTotal.Inc()
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpChatMessageCreate, Data: stored})
	return stored, nil
}

func (s *chatService) Poll(ctx context.Context, params models.ChatPollParams) (*models.ChatPage, error) {
	params.Normalize()

	// Read the head first: a message inserted between the two queries then
	// shows up on the next poll instead of being skipped.
	latest, err := s.chatRepo.LatestSeq(ctx)
	if err != nil {
		return nil, err
	}
	latestDeleted, err := s.chatRepo.LatestDeletionSeq(ctx)
	if err != nil {
		return nil, err
	}

	msgs, hasMore, err := s.chatRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	if n := len(msgs); n > 0 && msgs[n-1].Seq > latest {
		latest = msgs[n-1].Seq
	}

	page := &models.ChatPage{
		Messages:   msgs,
		HasMore:    hasMore,
		LatestSeq:  latest,
		Deleted:    []string{},
		DeletedSeq: latestDeleted,
	}

	// A fresh load already shows tombstones in place, so only incremental
	// polls need the deletion log.
	if params.Incremental() {
		ids, cursor, err := s.chatRepo.DeletedSince(ctx, params.DeletedAfter, models.MaxChatDeletions)
		if err != nil {
			return nil, err
		}
		page.Deleted = ids
		if len(ids) == models.MaxChatDeletions || cursor > latestDeleted {
			page.DeletedSeq = cursor
		}
	}
	return page, nil
}

func (s *chatService) Delete(ctx context.Context, actor *models.User, id string) error {
	msg, err := s.chatRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if msg.DeletedAt != nil {
		return fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	if msg.UserID != actor.ID && !actor.IsAdmin() {
		return fmt.Errorf("%w: only the author or an admin can delete this message", pkg.ErrForbidden)
	}

	if err := s.chatRepo.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		return err
	}

	if msg.UserID != actor.ID {
		metrics.RecordModeration("chat_delete")
		chatLog.Info().Str("message_id", id).Str("admin_id", actor.ID).Msg("chat message deleted by admin")
	}

	s.hub.BroadcastToAll(ws.Event{
		Op:   ws.OpChatMessageDelete,
		Data: ws.ChatDeleteData{ID: id, Seq: msg.Seq},
	})
	return nil
}

// Online lists the users with at least one live WebSocket connection.
func (s *chatService) Online(ctx context.Context) ([]models.Author, error) {
	ids := s.hub.GetOnlineUserIDs()
	authors := make([]models.Author, 0, len(ids))
	for _, id := range ids {
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				continue
			}
			return nil, err
		}
		authors = append(authors, models.Author{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			AvatarURL:   u.AvatarURL,
			Role:        u.Role,
			IsVerified:  u.IsVerified,
		})
	}
	return authors, nil
}
