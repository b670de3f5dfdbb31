package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
	"github.com/vignesh0909/adbond.net-sub002/repository"
)

var offerLog = logger.Component("offer")

// OfferService manages offer listings. Only advertiser and network
// entities publish offers.
type OfferService interface {
	Create(ctx context.Context, actor *models.User, entityID string, req *models.CreateOfferRequest) (*models.Offer, error)
	Get(ctx context.Context, actor *models.User, id string) (*models.Offer, error)
	Search(ctx context.Context, params *models.OfferSearchParams) (models.Page[models.Offer], error)
	Update(ctx context.Context, actor *models.User, id string, req *models.UpdateOfferRequest) (*models.Offer, error)
	Delete(ctx context.Context, actor *models.User, id string) error
}

type offerService struct {
	offerRepo  repository.OfferRepository
	entityRepo repository.EntityRepository
	now        func() time.Time
}

func NewOfferService(offerRepo repository.OfferRepository, entityRepo repository.EntityRepository) OfferService {
	return &offerService{offerRepo: offerRepo, entityRepo: entityRepo, now: time.Now}
}

func (s *offerService) Create(ctx context.Context, actor *models.User, entityID string, req *models.CreateOfferRequest) (*models.Offer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.entityRepo.GetByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !visible(actor, e) {
		return nil, fmt.Errorf("%w: entity not found", pkg.ErrNotFound)
	}
	if !canManage(actor, e) {
		return nil, fmt.Errorf("%w: only the entity owner can publish offers", pkg.ErrForbidden)
	}
	if e.Status != models.EntityStatusApproved {
		return nil, fmt.Errorf("%w: entity must be approved before publishing offers", pkg.ErrForbidden)
	}
	if e.Type != models.EntityTypeAdvertiser && e.Type != models.EntityTypeNetwork {
		return nil, fmt.Errorf("%w: only advertiser and network entities can publish offers", pkg.ErrBadRequest)
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, fmt.Errorf("%w: expires_at must be in the future", pkg.ErrBadRequest)
	}

	o := &models.Offer{
		EntityID:       e.ID,
		CreatedBy:      actor.ID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		PayoutModel:    req.PayoutModel,
		PayoutAmount:   req.PayoutAmount,
		Currency:       req.Currency,
		Geo:            req.Geo,
		TrafficSources: req.TrafficSources,
		LandingURL:     req.LandingURL,
		Status:         models.OfferStatusActive,
		ExpiresAt:      req.ExpiresAt,
	}
	if err := s.offerRepo.Create(ctx, o); err != nil {
		return nil, err
	}

	o.EntityName = e.Name
	o.EntityType = e.Type
	return o, nil
}

// Get hides offers of unapproved entities from everyone but the entity's
// managers.
func (s *offerService) Get(ctx context.Context, actor *models.User, id string) (*models.Offer, error) {
	o, _, err := s.load(ctx, actor, id)
	return o, err
}

func (s *offerService) Search(ctx context.Context, params *models.OfferSearchParams) (models.Page[models.Offer], error) {
	if err := params.Validate(); err != nil {
		return models.Page[models.Offer]{}, err
	}

	items, total, err := s.offerRepo.Search(ctx, *params)
	if err != nil {
		return models.Page[models.Offer]{}, err
	}
	return models.NewPage(items, total, params.PageParams), nil
}

func (s *offerService) Update(ctx context.Context, actor *models.User, id string, req *models.UpdateOfferRequest) (*models.Offer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o, e, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, e) {
		return nil, fmt.Errorf("%w: only the entity owner or an admin can change this offer", pkg.ErrForbidden)
	}

	if o.Status == models.OfferStatusExpired && req.Status != nil {
		return nil, fmt.Errorf("%w: an expired offer cannot change status, publish a new offer instead", pkg.ErrConflict)
	}

	req.Apply(o)
	if o.Status == models.OfferStatusActive && o.ExpiresAt != nil && !o.ExpiresAt.After(s.now()) {
		return nil, fmt.Errorf("%w: an active offer needs an expires_at in the future", pkg.ErrBadRequest)
	}

	if err := s.offerRepo.Update(ctx, o); err != nil {
		return nil, err
	}
	if e.OwnerID != actor.ID {
		metrics.RecordModeration("offer_update")
		offerLog.Info().Str("offer_id", id).Str("admin_id", actor.ID).Msg("offer updated by admin")
	}
	return o, nil
}

func (s *offerService) Delete(ctx context.Context, actor *models.User, id string) error {
	_, e, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if !canManage(actor, e) {
		return fmt.Errorf("%w: only the entity owner or an admin can delete this offer", pkg.ErrForbidden)
	}

	if err := s.offerRepo.Delete(ctx, id); err != nil {
		return err
	}
	if e.OwnerID != actor.ID {
		metrics.RecordModeration("offer_delete")
		offerLog.Info().Str("offer_id", id).Str("admin_id", actor.ID).Msg("offer deleted by admin")
	}
	return nil
}

func (s *offerService) load(ctx context.Context, actor *models.User, id string) (*models.Offer, *models.Entity, error) {
	o, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	e, err := s.entityRepo.GetByID(ctx, o.EntityID)
	if err != nil {
		return nil, nil, err
	}
	if !visible(actor, e) {
		return nil, nil, fmt.Errorf("%w: offer not found", pkg.ErrNotFound)
	}
	return o, e, nil
}
