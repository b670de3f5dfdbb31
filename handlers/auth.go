// Package handlers holds the HTTP handlers. A handler decodes the request,
// calls one service and writes the envelope. Business rules live in the
// services.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
	"github.com/vignesh0909/adbond.net-sub002/pkg/ratelimit"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.LoginRateLimiter
	clientIP     *ratelimit.IPResolver
}

// NewAuthHandler builds the handler. A nil loginLimiter disables login
// throttling. A nil clientIP keys attempts on RemoteAddr.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.LoginRateLimiter, clientIP *ratelimit.IPResolver) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
		clientIP:     clientIP,
	}
}

// Register godoc
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	tokens, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, tokens)
}

// Login godoc
// POST /api/auth/login
//
// Attempts are counted per client IP. A successful login clears the count.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := h.clientIP.ClientIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		metrics.RecordLogin("rate_limited")
		metrics.RecordRateLimited("login")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.Error(w, fmt.Errorf("%w: too many login attempts, please try again in %s",
			pkg.ErrTooManyRequests, ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.LoginRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	tokens, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Refresh godoc
// POST /api/auth/refresh
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}
	if req.RefreshToken == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Logout godoc
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Session godoc
// GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	claims := currentClaims(r)
	if user == nil || claims == nil {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	pkg.JSON(w, http.StatusOK, h.authService.Session(user, claims))
}

// ForgotPassword godoc
// POST /api/auth/forgot-password
//
// The answer is the same whether or not the address exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{
		"message": "if the email exists, a reset link has been sent",
	})
}

// ResetPassword godoc
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{
		"message": "password has been reset successfully",
	})
}
