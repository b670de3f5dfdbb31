package services

import (
	"context"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg/cache"
	"github.com/vignesh0909/adbond.net-sub002/repository"
)

// StatsTTL is how long the public counters are served from memory.
const StatsTTL = 60 * time.Second

const publicStatsKey = "public"

// StatsService serves the landing page counters.
type StatsService interface {
	Public(ctx context.Context) (*models.PublicStats, error)
	Close()
}

type statsService struct {
	statsRepo repository.StatsRepository
	cache     *cache.TTLCache[string, *models.PublicStats]
}

func NewStatsService(statsRepo repository.StatsRepository, ttl time.Duration) StatsService {
	return &statsService{
		statsRepo: statsRepo,
		cache:     cache.New[string, *models.PublicStats](ttl, ttl),
	}
}

func (s *statsService) Public(ctx context.Context) (*models.PublicStats, error) {
	return s.cache.GetOrLoad(publicStatsKey, func() (*models.PublicStats, error) {
		return s.statsRepo.Public(ctx)
	})
}

func (s *statsService) Close() {
	s.cache.Close()
}
