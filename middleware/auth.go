// Package middleware holds the http.Handler wrappers of the request
// pipeline. Each one either does its job and calls next, or writes an error
// and stops the chain.
package middleware

import (
	"net/http"
	"strings"

	"github.com/vignesh0909/adbond.net-sub002/handlers"
	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/repository"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

// AuthMiddleware validates Bearer access tokens.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require rejects requests without a valid token (401) and requests from
// banned accounts (403). The user and claims go into the request context.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		user, claims, err := m.authenticate(r, tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), user, claims)))
	})
}

// Optional attaches the user when a valid token is present and otherwise
// lets the request through anonymously. Public reads use it so owners and
// admins can see their unapproved entities.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tokenString == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, claims, err := m.authenticate(r, tokenString)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), user, claims)))
	})
}

func (m *AuthMiddleware) authenticate(r *http.Request, tokenString string) (*models.User, *models.TokenClaims, error) {
	claims, err := m.authService.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	// The token may outlive the account.
	user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
	if err != nil {
		return nil, nil, errUserGone
	}
	user.PasswordHash = ""

	banned, err := m.authService.IsBanned(r.Context(), user.ID)
	if err != nil {
		return nil, nil, err
	}
	if banned {
		return nil, nil, errBanned
	}
	return user, claims, nil
}
