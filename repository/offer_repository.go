package repository

import (
	"context"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// OfferRepository stores offers. Search uses the offers_fts index for q.
type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	Update(ctx context.Context, offer *models.Offer) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, params models.OfferSearchParams) ([]models.Offer, int, error)
	// ExpireDue flips active offers whose expires_at is before now.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
