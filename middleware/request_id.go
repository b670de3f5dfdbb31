package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id. A well-formed id sent by a proxy
// is kept.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}
