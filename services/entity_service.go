package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/cache"
	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
	"github.com/vignesh0909/adbond.net-sub002/repository"
)

var entityLog = logger.Component("entity")

// RatingCache holds rating summaries by entity id.
type RatingCache = cache.TTLCache[string, *models.RatingSummary]

// EntityService manages company profiles. The actor may be nil for
// anonymous reads.
type EntityService interface {
	Create(ctx context.Context, actor *models.User, req *models.CreateEntityRequest) (*models.Entity, error)
	Get(ctx context.Context, actor *models.User, id string) (*models.Entity, error)
	List(ctx context.Context, params *models.EntityListParams) (models.Page[models.Entity], error)
	Mine(ctx context.Context, actor *models.User) ([]models.Entity, error)
	Update(ctx context.Context, actor *models.User, id string, req *models.UpdateEntityRequest) (*models.Entity, error)
	Delete(ctx context.Context, actor *models.User, id string) error
	UploadLogo(ctx context.Context, actor *models.User, id string, file multipart.File, header *multipart.FileHeader) (*models.Entity, error)
	Rating(ctx context.Context, actor *models.User, id string) (*models.RatingSummary, error)
	// InvalidateRating drops the cached summary after a review write.
	InvalidateRating(entityID string)
}

type entityService struct {
	entityRepo repository.EntityRepository
	uploads    UploadService
	ratings    *RatingCache
}

func NewEntityService(entityRepo repository.EntityRepository, uploads UploadService, ratings *RatingCache) EntityService {
	return &entityService{entityRepo: entityRepo, uploads: uploads, ratings: ratings}
}

// canManage reports whether actor may edit e.
func canManage(actor *models.User, e *models.Entity) bool {
	return actor != nil && (actor.IsAdmin() || actor.ID == e.OwnerID)
}

// visible hides unapproved entities from everyone but their owner and admins.
func visible(actor *models.User, e *models.Entity) bool {
	return e.Status == models.EntityStatusApproved || canManage(actor, e)
}

func (s *entityService) Create(ctx context.Context, actor *models.User, req *models.CreateEntityRequest) (*models.Entity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e := &models.Entity{
		OwnerID:      actor.ID,
		Name:         req.Name,
		Type:         req.Type,
		Description:  req.Description,
		Website:      req.Website,
		Country:      req.Country,
		Categories:   req.Categories,
		ContactEmail: req.ContactEmail,
		Status:       models.EntityStatusPending,
	}
	if actor.IsAdmin() {
		e.Status = models.EntityStatusApproved
	}

	if err := s.entityRepo.Create(ctx, e); err != nil {
		return nil, err
	}

	entityLog.Info().Str("entity_id", e.ID).Str("owner_id", actor.ID).Str("status", string(e.Status)).Msg("entity created")
	return e, nil
}

func (s *entityService) Get(ctx context.Context, actor *models.User, id string) (*models.Entity, error) {
	e, err := s.entityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(actor, e) {
		return nil, fmt.Errorf("%w: entity not found", pkg.ErrNotFound)
	}
	return e, nil
}

func (s *entityService) List(ctx context.Context, params *models.EntityListParams) (models.Page[models.Entity], error) {
	if err := params.Validate(); err != nil {
		return models.Page[models.Entity]{}, err
	}
	params.Status = models.EntityStatusApproved

	items, total, err := s.entityRepo.List(ctx, *params)
	if err != nil {
		return models.Page[models.Entity]{}, err
	}
	return models.NewPage(items, total, params.PageParams), nil
}

func (s *entityService) Mine(ctx context.Context, actor *models.User) ([]models.Entity, error) {
	return s.entityRepo.ListByOwner(ctx, actor.ID)
}

// Update applies a partial edit. An owner editing a rejected profile sends
// it back to the moderation queue.
func (s *entityService) Update(ctx context.Context, actor *models.User, id string, req *models.UpdateEntityRequest) (*models.Entity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	req.Apply(e)
	if e.Status == models.EntityStatusRejected && !actor.IsAdmin() {
		e.Status = models.EntityStatusPending
		e.RejectionReason = nil
	}

	if err := s.entityRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	if e.OwnerID != actor.ID {
		metrics.RecordModeration("entity_update")
		entityLog.Info().Str("entity_id", id).Str("admin_id", actor.ID).Msg("entity updated by admin")
	}
	return s.entityRepo.GetByID(ctx, id)
}

func (s *entityService) Delete(ctx context.Context, actor *models.User, id string) error {
	e, err := s.manageable(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.entityRepo.Delete(ctx, id); err != nil {
		return err
	}
	if e.LogoURL != nil {
		s.uploads.Remove(*e.LogoURL)
	}
	s.InvalidateRating(id)

	if e.OwnerID != actor.ID {
		metrics.RecordModeration("entity_delete")
		entityLog.Info().Str("entity_id", id).Str("admin_id", actor.ID).Msg("entity deleted by admin")
	} else {
		entityLog.Info().Str("entity_id", id).Str("actor_id", actor.ID).Msg("entity deleted")
	}
	return nil
}

func (s *entityService) UploadLogo(ctx context.Context, actor *models.User, id string, file multipart.File, header *multipart.FileHeader) (*models.Entity, error) {
	e, err := s.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	url, err := s.uploads.Save(ctx, file, header)
	if err != nil {
		return nil, err
	}
	if err := s.entityRepo.UpdateLogo(ctx, id, url); err != nil {
		s.uploads.Remove(url)
		return nil, err
	}
	if e.LogoURL != nil {
		s.uploads.Remove(*e.LogoURL)
	}
	e.LogoURL = &url
	return e, nil
}

func (s *entityService) Rating(ctx context.Context, actor *models.User, id string) (*models.RatingSummary, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	return s.ratings.GetOrLoad(id, func() (*models.RatingSummary, error) {
		dist, err := s.entityRepo.RatingDistribution(ctx, id)
		if err != nil {
			return nil, err
		}
		return models.NewRatingSummary(id, dist), nil
	})
}

func (s *entityService) InvalidateRating(entityID string) {
	s.ratings.Delete(entityID)
}

// manageable loads the entity and checks that actor may edit it. Callers
// that cannot see the entity get 404, the rest get 403.
func (s *entityService) manageable(ctx context.Context, actor *models.User, id string) (*models.Entity, error) {
	e, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, e) {
		return nil, fmt.Errorf("%w: only the owner or an admin can change this entity", pkg.ErrForbidden)
	}
	return e, nil
}
