package handlers

import (
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

// StatsHandler serves the public landing-page counters.
type StatsHandler struct {
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetPublicStats godoc
// GET /api/stats
// Response: { "success": true, "data": { "total_users": 42, "total_entities": 7, ... } }
func (h *StatsHandler) GetPublicStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Public(r.Context())
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	pkg.JSON(w, http.StatusOK, stats)
}
