package middleware

import (
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/handlers"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

// AdminMiddleware runs after AuthMiddleware.Require and lets only users with
// the admin role through.
//
//	authMw.Require(adminMw.Require(http.HandlerFunc(h.Admin.Dashboard)))
type AdminMiddleware struct{}

func NewAdminMiddleware() *AdminMiddleware {
	return &AdminMiddleware{}
}

func (m *AdminMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := handlers.CurrentUser(r)
		if user == nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}
		if !user.IsAdmin() {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
