package services

import (
	"context"
	"sync"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
	"github.com/vignesh0909/adbond.net-sub002/repository"
)

var janitorLog = logger.Component("janitor")

// Janitor periodically removes expired sessions and password reset tokens
// and expires offers whose expires_at has passed.
//
// The loop follows the ticker + stop channel shape of pkg/cache; main calls
// Stop during graceful shutdown.
type Janitor interface {
	Start()
	Stop()
	// RunOnce performs one sweep and returns what it did.
	RunOnce(ctx context.Context) SweepResult
}

// SweepResult counts the rows touched by one sweep.
type SweepResult struct {
	Sessions    int64
	ResetTokens int64
	Offers      int64
}

type janitor struct {
	sessionRepo repository.SessionRepository
	resetRepo   repository.PasswordResetRepository
	offerRepo   repository.OfferRepository
	interval    time.Duration
	now         func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	started  sync.Once
	wg       sync.WaitGroup
}

func NewJanitor(
	sessionRepo repository.SessionRepository,
	resetRepo repository.PasswordResetRepository,
	offerRepo repository.OfferRepository,
	interval time.Duration,
) Janitor {
	return &janitor{
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		offerRepo:   offerRepo,
		interval:    interval,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
}

// Start launches the sweep loop. The first sweep runs immediately.
func (j *janitor) Start() {
	j.started.Do(func() {
		janitorLog.Info().Dur("interval", j.interval).Msg("janitor started")

		j.wg.Add(1)
		go func() {
			defer j.wg.Done()
			j.sweep()

			ticker := time.NewTicker(j.interval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					j.sweep()
				case <-j.stopCh:
					janitorLog.Info().Msg("janitor stopped")
					return
				}
			}
		}()
	})
}

// Stop ends the loop and waits for a running sweep to finish.
func (j *janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
	j.wg.Wait()
}

func (j *janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	j.RunOnce(ctx)
}

func (j *janitor) RunOnce(ctx context.Context) SweepResult {
	now := j.now().UTC()
	var res SweepResult
	var err error

	if res.Sessions, err = j.sessionRepo.DeleteExpired(ctx, now); err != nil {
		janitorLog.Error().Err(err).Msg("failed to delete expired sessions")
	}
	if res.ResetTokens, err = j.resetRepo.DeleteExpired(ctx, now); err != nil {
		janitorLog.Error().Err(err).Msg("failed to delete expired reset tokens")
	}
	if res.Offers, err = j.offerRepo.ExpireDue(ctx, now); err != nil {
		janitorLog.Error().Err(err).Msg("failed to expire offers")
	}

	if res.Sessions+res.ResetTokens+res.Offers > 0 {
		janitorLog.Info().
			Int64("sessions", res.Sessions).
			Int64("reset_tokens", res.ResetTokens).
			Int64("offers", res.Offers).
			Msg("sweep finished")
	}
	return res
}
