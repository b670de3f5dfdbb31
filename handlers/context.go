package handlers

import (
	"context"
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

// contextKey namespaces the values the auth middleware stores on a request.
type contextKey string

const (
	UserContextKey   contextKey = "user"
	ClaimsContextKey contextKey = "claims"
)

// WithUser stores the authenticated user and its token claims.
func WithUser(ctx context.Context, user *models.User, claims *models.TokenClaims) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, user)
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// CurrentUser returns the user set by the auth middleware, or nil on
// anonymous requests.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(UserContextKey).(*models.User)
	return user
}

func currentClaims(r *http.Request) *models.TokenClaims {
	claims, _ := r.Context().Value(ClaimsContextKey).(*models.TokenClaims)
	return claims
}

// requireUser writes 401 when the auth middleware did not run.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := CurrentUser(r)
	if user == nil {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}
