package repository

import (
	"context"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// EntityRepository stores company profiles. Read methods fill AvgRating and
// ReviewCount from published reviews.
type EntityRepository interface {
	Create(ctx context.Context, entity *models.Entity) error
	GetByID(ctx context.Context, id string) (*models.Entity, error)
	Update(ctx context.Context, entity *models.Entity) error
	UpdateStatus(ctx context.Context, id string, status models.EntityStatus, reason *string) error
	UpdateLogo(ctx context.Context, id, logoURL string) error
	SetVerified(ctx context.Context, id string, verified bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params models.EntityListParams) ([]models.Entity, int, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Entity, error)
	RatingDistribution(ctx context.Context, entityID string) (map[int]int, error)
}
