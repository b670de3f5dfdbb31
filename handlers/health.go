package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health godoc
// GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		pkg.ErrorWithMessage(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "adbond"})
}
