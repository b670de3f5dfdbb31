package main

import (
	"database/sql"

	"github.com/vignesh0909/adbond.net-sub002/config"
	"github.com/vignesh0909/adbond.net-sub002/handlers"
	"github.com/vignesh0909/adbond.net-sub002/ws"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Entity       *handlers.EntityHandler
	Offer        *handlers.OfferHandler
	Review       *handlers.ReviewHandler
	Chat         *handlers.ChatHandler
	Verification *handlers.VerificationHandler
	Admin        *handlers.AdminHandler
	Stats        *handlers.StatsHandler
	Upload       *handlers.UploadHandler
	Health       *handlers.HealthHandler
	WS           *ws.Handler
}

func initHandlers(db *sql.DB, svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:         handlers.NewAuthHandler(svcs.Auth, limiters.Login, limiters.ClientIP),
		User:         handlers.NewUserHandler(svcs.User, svcs.Auth, svcs.Entity),
		Entity:       handlers.NewEntityHandler(svcs.Entity),
		Offer:        handlers.NewOfferHandler(svcs.Offer),
		Review:       handlers.NewReviewHandler(svcs.Review),
		Chat:         handlers.NewChatHandler(svcs.Chat, limiters.Message),
		Verification: handlers.NewVerificationHandler(svcs.Verification),
		Admin:        handlers.NewAdminHandler(svcs.Admin, svcs.Verification),
		Stats:        handlers.NewStatsHandler(svcs.Stats),
		Upload:       handlers.NewUploadHandler(svcs.Upload),
		Health:       handlers.NewHealthHandler(db),
		WS:           ws.NewHandler(hub, svcs.Auth, svcs.Auth, cfg.Server.WSOrigins),
	}
}
