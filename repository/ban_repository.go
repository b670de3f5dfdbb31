package repository

import (
	"context"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// BanRepository stores platform bans. A user has at most one ban.
type BanRepository interface {
	Create(ctx context.Context, ban *models.Ban) error
	GetByUserID(ctx context.Context, userID string) (*models.Ban, error)
	Exists(ctx context.Context, userID string) (bool, error)
	List(ctx context.Context) ([]models.Ban, error)
	Delete(ctx context.Context, userID string) error
}
