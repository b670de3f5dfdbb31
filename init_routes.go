package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vignesh0909/adbond.net-sub002/middleware"
	"github.com/vignesh0909/adbond.net-sub002/repository"
	"github.com/vignesh0909/adbond.net-sub002/services"
	"github.com/vignesh0909/adbond.net-sub002/static"
)

// initRoutes registers every endpoint. Literal segments are registered
// before wildcard ones that share a prefix.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
	maxUpload int64,
) {
	authMw := middleware.NewAuthMiddleware(authService, userRepo)
	adminMw := middleware.NewAdminMiddleware()
	images := middleware.UploadValidator{MaxSize: maxUpload, AllowedTypes: middleware.ImageTypes, Field: "file"}
	documents := middleware.UploadValidator{MaxSize: maxUpload, AllowedTypes: middleware.DocumentTypes, Field: "file"}

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}
	optional := func(handler http.HandlerFunc) http.Handler {
		return authMw.Optional(handler)
	}
	authUpload := func(v middleware.UploadValidator, handler http.HandlerFunc) http.Handler {
		return authMw.Require(v.Require(handler))
	}
	authAdmin := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(adminMw.Require(handler))
	}

	// Ops
	mux.HandleFunc("GET /api/health", h.Health.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/stats", h.Stats.GetPublicStats)

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/forgot-password", h.Auth.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.Auth.ResetPassword)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))
	mux.Handle("GET /api/auth/session", auth(h.Auth.Session))

	// Users
	mux.Handle("GET /api/users/me", auth(h.User.Me))
	mux.Handle("PATCH /api/users/me/profile", auth(h.User.UpdateProfile))
	mux.Handle("POST /api/users/me/password", auth(h.User.ChangePassword))
	mux.Handle("POST /api/users/me/avatar", authUpload(images, h.User.UploadAvatar))
	mux.Handle("GET /api/users/me/entities", auth(h.User.MyEntities))

	// Entities
	mux.HandleFunc("GET /api/entities", h.Entity.List)
	mux.Handle("POST /api/entities", auth(h.Entity.Create))
	mux.Handle("GET /api/entities/{id}", optional(h.Entity.Get))
	mux.Handle("PATCH /api/entities/{id}", auth(h.Entity.Update))
	mux.Handle("DELETE /api/entities/{id}", auth(h.Entity.Delete))
	mux.Handle("POST /api/entities/{id}/logo", authUpload(images, h.Entity.UploadLogo))
	mux.Handle("GET /api/entities/{id}/rating", optional(h.Entity.Rating))
	mux.Handle("POST /api/entities/{id}/offers", auth(h.Offer.Create))
	mux.Handle("GET /api/entities/{id}/reviews", optional(h.Review.List))
	mux.Handle("POST /api/entities/{id}/reviews", auth(h.Review.Create))

	// Offers
	mux.HandleFunc("GET /api/offers", h.Offer.Search)
	mux.Handle("GET /api/offers/{id}", optional(h.Offer.Get))
	mux.Handle("PATCH /api/offers/{id}", auth(h.Offer.Update))
	mux.Handle("DELETE /api/offers/{id}", auth(h.Offer.Delete))

	// Reviews
	mux.Handle("PATCH /api/reviews/{id}", auth(h.Review.Update))
	mux.Handle("DELETE /api/reviews/{id}", auth(h.Review.Delete))
	mux.Handle("POST /api/reviews/{id}/replies", auth(h.Review.Reply))
	mux.Handle("DELETE /api/replies/{id}", auth(h.Review.DeleteReply))
	mux.Handle("POST /api/reviews/{id}/helpful", auth(h.Review.Helpful))
	mux.Handle("POST /api/reviews/{id}/report", auth(h.Review.Report))

	// Community chat
	mux.Handle("GET /api/chat/messages", auth(h.Chat.Poll))
	mux.Handle("POST /api/chat/messages", auth(h.Chat.Send))
	mux.Handle("DELETE /api/chat/messages/{id}", auth(h.Chat.Delete))
	mux.Handle("GET /api/chat/online", auth(h.Chat.Online))

	// Verification
	mux.Handle("POST /api/verification", authUpload(documents, h.Verification.Submit))
	mux.Handle("GET /api/verification/me", auth(h.Verification.Mine))

	// Admin
	mux.Handle("GET /api/admin/stats", authAdmin(h.Admin.Dashboard))
	mux.Handle("GET /api/admin/users", authAdmin(h.Admin.ListUsers))
	mux.Handle("PATCH /api/admin/users/{id}/role", authAdmin(h.Admin.ChangeRole))
	mux.Handle("POST /api/admin/users/{id}/ban", authAdmin(h.Admin.Ban))
	mux.Handle("GET /api/admin/bans", authAdmin(h.Admin.ListBans))
	mux.Handle("DELETE /api/admin/bans/{id}", authAdmin(h.Admin.Unban))
	mux.Handle("GET /api/admin/entities/pending", authAdmin(h.Admin.PendingEntities))
	mux.Handle("POST /api/admin/entities/{id}/approve", authAdmin(h.Admin.ApproveEntity))
	mux.Handle("POST /api/admin/entities/{id}/reject", authAdmin(h.Admin.RejectEntity))
	mux.Handle("GET /api/admin/reviews/reported", authAdmin(h.Admin.ReportedReviews))
	mux.Handle("PATCH /api/admin/reviews/{id}/status", authAdmin(h.Admin.SetReviewStatus))
	mux.Handle("GET /api/admin/verifications", authAdmin(h.Admin.ListVerifications))
	mux.Handle("POST /api/admin/verifications/{id}/approve", authAdmin(h.Admin.ApproveVerification))
	mux.Handle("POST /api/admin/verifications/{id}/reject", authAdmin(h.Admin.RejectVerification))

	// Files
	mux.HandleFunc("GET /api/uploads/{file}", h.Upload.Serve)

	// WebSocket. Browsers cannot set headers on the upgrade, so the token
	// travels as ?token= and the handler validates it itself.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)

	// Frontend with SPA fallback.
	mux.Handle("GET /", static.Handler())
}
