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

type sqliteResetTokenRepo struct {
	db database.TxQuerier
}

func NewSQLitePasswordResetRepo(db database.TxQuerier) PasswordResetRepository {
	return &sqliteResetTokenRepo{db: db}
}

func (r *sqliteResetTokenRepo) Create(ctx context.Context, token *models.PasswordResetToken) error {
	token.ID = newID()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt.UTC(), token.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create password reset token: %w", err)
	}
	return nil
}

func (r *sqliteResetTokenRepo) get(ctx context.Context, query string, arg any) (*models.PasswordResetToken, error) {
	t := &models.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: reset token not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get password reset token: %w", err)
	}
	return t, nil
}

func (r *sqliteResetTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	return r.get(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM password_reset_tokens WHERE token_hash = ?`, tokenHash)
}

func (r *sqliteResetTokenRepo) GetLatestByUserID(ctx context.Context, userID string) (*models.PasswordResetToken, error) {
	return r.get(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM password_reset_tokens WHERE user_id = ?
		ORDER BY created_at DESC LIMIT 1`, userID)
}

func (r *sqliteResetTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete password reset tokens: %w", err)
	}
	return nil
}

func (r *sqliteResetTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return result.RowsAffected()
}
