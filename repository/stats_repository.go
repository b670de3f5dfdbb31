package repository

import (
	"context"

	"github.com/vignesh0909/adbond.net-sub002/models"
)

// StatsRepository runs the aggregate counts behind the public and admin
// dashboards.
type StatsRepository interface {
	Public(ctx context.Context) (*models.PublicStats, error)
	// Dashboard fills everything except OnlineUsers, which comes from the hub.
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
}
