package repository

import (
	"context"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// ChatRepository stores the community chat. Messages are addressed by id for
// writes and by seq for polling.
type ChatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	GetByID(ctx context.Context, id string) (*models.ChatMessage, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
	// List returns messages ascending by seq and whether more exist in the
	// direction of the query.
	List(ctx context.Context, params models.ChatPollParams) ([]models.ChatMessage, bool, error)
	LatestSeq(ctx context.Context) (int64, error)
	// DeletedSince returns ids of messages deleted after the given deletion
	// cursor, oldest first, and the cursor of the last returned row.
	DeletedSince(ctx context.Context, after int64, limit int) ([]string, int64, error)
	LatestDeletionSeq(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
}
