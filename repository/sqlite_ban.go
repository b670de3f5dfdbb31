package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

type sqliteBanRepo struct {
	db database.TxQuerier
}

func NewSQLiteBanRepo(db database.TxQuerier) BanRepository {
	return &sqliteBanRepo{db: db}
}

func (r *sqliteBanRepo) Create(ctx context.Context, ban *models.Ban) error {
	ban.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bans (user_id, reason, banned_by, created_at) VALUES (?, ?, ?, ?)`,
		ban.UserID, ban.Reason, ban.BannedBy, ban.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user is already banned", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create ban: %w", err)
	}
	return nil
}

func (r *sqliteBanRepo) GetByUserID(ctx context.Context, userID string) (*models.Ban, error) {
	b := &models.Ban{}
	err := r.db.QueryRowContext(ctx, `
		SELECT b.user_id, u.username, b.reason, b.banned_by, b.created_at
		FROM bans b JOIN users u ON u.id = b.user_id
		WHERE b.user_id = ?`, userID,
	).Scan(&b.UserID, &b.Username, &b.Reason, &b.BannedBy, &b.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: ban not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ban: %w", err)
	}
	return b, nil
}

func (r *sqliteBanRepo) Exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bans WHERE user_id = ?)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ban: %w", err)
	}
	return exists, nil
}

func (r *sqliteBanRepo) List(ctx context.Context) ([]models.Ban, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.user_id, u.username, b.reason, b.banned_by, b.created_at
		FROM bans b JOIN users u ON u.id = b.user_id
		ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bans: %w", err)
	}
	defer rows.Close()

	bans := []models.Ban{}
	for rows.Next() {
		var b models.Ban
		if err := rows.Scan(&b.UserID, &b.Username, &b.Reason, &b.BannedBy, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ban row: %w", err)
		}
		bans = append(bans, b)
	}
	return bans, rows.Err()
}

func (r *sqliteBanRepo) Delete(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bans WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete ban: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: ban not found", pkg.ErrNotFound)
	}
	return nil
}
