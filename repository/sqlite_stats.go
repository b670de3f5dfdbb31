package repository

import (
	"context"
	"fmt"

	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/models"
)

type sqliteStatsRepo struct {
	db database.TxQuerier
}

func NewSQLiteStatsRepo(db database.TxQuerier) StatsRepository {
	return &sqliteStatsRepo{db: db}
}

func (r *sqliteStatsRepo) Public(ctx context.Context) (*models.PublicStats, error) {
	var s models.PublicStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM entities WHERE status = 'approved'),
			(SELECT COUNT(*) FROM offers WHERE status = 'active'),
			(SELECT COUNT(*) FROM reviews WHERE status = 'published')`,
	).Scan(&s.TotalUsers, &s.TotalEntities, &s.TotalOffers, &s.TotalReviews)
	if err != nil {
		return nil, fmt.Errorf("failed to load public stats: %w", err)
	}
	return &s, nil
}

func (r *sqliteStatsRepo) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	s := &models.DashboardStats{
		UsersByRole:      map[string]int{},
		EntitiesByStatus: map[string]int{},
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM offers),
			(SELECT COUNT(*) FROM offers WHERE status = 'active'),
			(SELECT COUNT(*) FROM reviews),
			(SELECT COUNT(DISTINCT review_id) FROM review_reports),
			(SELECT COUNT(*) FROM verification_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM bans),
			(SELECT COUNT(*) FROM chat_messages WHERE deleted_at IS NULL)`,
	).Scan(
		&s.TotalUsers, &s.TotalOffers, &s.ActiveOffers, &s.TotalReviews,
		&s.FlaggedReviews, &s.PendingVerifications, &s.BannedUsers, &s.ChatMessages,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}

	if err := r.groupCount(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`, s.UsersByRole); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, `SELECT status, COUNT(*) FROM entities GROUP BY status`, s.EntitiesByStatus); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *sqliteStatsRepo) groupCount(ctx context.Context, query string, into map[string]int) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to group counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan group count: %w", err)
		}
		into[key] = n
	}
	return rows.Err()
}
