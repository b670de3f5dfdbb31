package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/config"
	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg/cache"
	"github.com/vignesh0909/adbond.net-sub002/pkg/email"
	"github.com/vignesh0909/adbond.net-sub002/pkg/ratelimit"
	"github.com/vignesh0909/adbond.net-sub002/services"
	"github.com/vignesh0909/adbond.net-sub002/ws"
)

type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Upload       services.UploadService
	Entity       services.EntityService
	Offer        services.OfferService
	Review       services.ReviewService
	Chat         services.ChatService
	Verification services.VerificationService
	Admin        services.AdminService
	Stats        services.StatsService
	Janitor      services.Janitor

	ratings *services.RatingCache
}

// Close stops the background parts of the services. The janitor is
// stopped separately because it is started separately.
func (s *Services) Close() {
	s.Stats.Close()
	s.ratings.Close()
}

type RateLimiters struct {
	Login   *ratelimit.LoginRateLimiter
	Message *ratelimit.MessageRateLimiter
	API     *ratelimit.APIRateLimiter
	// ClientIP keys the login and API limiters.
	ClientIP *ratelimit.IPResolver
}

func (l *RateLimiters) Stop() {
	l.Login.Stop()
	l.Message.Stop()
	l.API.Stop()
}

func initServices(db *sql.DB, repos *Repositories, hub ws.EventPublisher, cfg *config.Config) (*Services, *RateLimiters, error) {
	// A nil interface, not a typed nil, keeps mail off.
	var mailer email.Sender
	if cfg.Email.Enabled() {
		mailer = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		mainLog.Info().Str("from", cfg.Email.FromEmail).Msg("email service enabled")
	} else {
		mainLog.Warn().Msg("email service disabled (RESEND_API_KEY or RESEND_FROM not set)")
	}

	uploadService, err := services.NewUploadService(cfg.Upload.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("upload service: %w", err)
	}

	ratings := cache.New[string, *models.RatingSummary](services.StatsTTL, time.Minute)

	authService := services.NewAuthService(
		repos.User, repos.Session, repos.ResetToken, repos.Ban, mailer,
		cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry,
	)
	entityService := services.NewEntityService(repos.Entity, uploadService, ratings)

	svcs := &Services{
		Auth:   authService,
		User:   services.NewUserService(repos.User, uploadService, hub),
		Upload: uploadService,
		Entity: entityService,
		Offer:  services.NewOfferService(repos.Offer, repos.Entity),
		Review: services.NewReviewService(repos.Review, repos.Entity, entityService),
		Chat:   services.NewChatService(repos.Chat, repos.User, hub),
		Verification: services.NewVerificationService(
			db, repos.Verification, repos.User, repos.Entity,
			uploadService, hub, mailer, cfg.Security.EncryptionKey,
		),
		Admin: services.NewAdminService(
			repos.User, repos.Session, repos.Ban, repos.Entity,
			repos.Review, repos.Stats, entityService, hub,
		),
		Stats:   services.NewStatsService(repos.Stats, services.StatsTTL),
		Janitor: services.NewJanitor(repos.Session, repos.ResetToken, repos.Offer, cfg.Janitor.Interval),
		ratings: ratings,
	}

	clientIP, err := ratelimit.NewIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, nil, fmt.Errorf("trusted proxies: %w", err)
	}

	limiters := &RateLimiters{
		Login:    ratelimit.NewLoginRateLimiter(5, 2*time.Minute),
		Message:  ratelimit.NewMessageRateLimiter(5, 5*time.Second, 15*time.Second),
		API:      ratelimit.NewAPIRateLimiter(cfg.RateLimit.APIRequestsPerSecond, cfg.RateLimit.APIBurst),
		ClientIP: clientIP,
	}

	return svcs, limiters, nil
}
