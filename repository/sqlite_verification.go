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

type sqliteVerificationRepo struct {
	db database.TxQuerier
}

func NewSQLiteVerificationRepo(db database.TxQuerier) VerificationRepository {
	return &sqliteVerificationRepo{db: db}
}

const verificationColumns = `
	v.id, v.user_id, v.entity_id, v.full_name, v.document_type, v.document_number,
	v.document_url, v.status, v.review_note, v.reviewed_by, v.created_at, v.reviewed_at,
	` + authorColumns

const verificationFrom = ` FROM verification_requests v JOIN users u ON u.id = v.user_id`

func scanVerification(row rowScanner) (*models.VerificationRequest, error) {
	v := &models.VerificationRequest{User: &models.Author{}}
	err := row.Scan(
		&v.ID, &v.UserID, &v.EntityID, &v.FullName, &v.DocumentType, &v.DocumentNumber,
		&v.DocumentURL, &v.Status, &v.ReviewNote, &v.ReviewedBy, &v.CreatedAt, &v.ReviewedAt,
		&v.User.ID, &v.User.Username, &v.User.DisplayName, &v.User.AvatarURL,
		&v.User.Role, &v.User.IsVerified,
	)
	return v, err
}

func (r *sqliteVerificationRepo) Create(ctx context.Context, v *models.VerificationRequest) error {
	v.ID = newID()
	v.CreatedAt = time.Now().UTC()
	v.Status = models.VerificationPending

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_requests
			(id, user_id, entity_id, full_name, document_type, document_number, document_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.EntityID, v.FullName, v.DocumentType, v.DocumentNumber, v.DocumentURL,
		v.Status, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create verification request: %w", err)
	}
	return nil
}

func (r *sqliteVerificationRepo) GetByID(ctx context.Context, id string) (*models.VerificationRequest, error) {
	v, err := scanVerification(r.db.QueryRowContext(ctx,
		`SELECT `+verificationColumns+verificationFrom+` WHERE v.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: verification request not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification request: %w", err)
	}
	return v, nil
}

func (r *sqliteVerificationRepo) ListByUser(ctx context.Context, userID string) ([]models.VerificationRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+verificationColumns+verificationFrom+` WHERE v.user_id = ? ORDER BY v.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification requests: %w", err)
	}
	defer rows.Close()
	return collectVerifications(rows)
}

func (r *sqliteVerificationRepo) List(ctx context.Context, p models.VerificationListParams) ([]models.VerificationRequest, int, error) {
	var w where
	if p.Status != "" {
		w.add("v.status = ?", p.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verification_requests v`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count verification requests: %w", err)
	}
	if total == 0 {
		return []models.VerificationRequest{}, 0, nil
	}

	args := append(append([]any{}, w.args...), p.Limit, p.Offset())
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+verificationColumns+verificationFrom+w.sql()+` ORDER BY v.created_at ASC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list verification requests: %w", err)
	}
	defer rows.Close()

	list, err := collectVerifications(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func collectVerifications(rows *sql.Rows) ([]models.VerificationRequest, error) {
	list := []models.VerificationRequest{}
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verification row: %w", err)
		}
		list = append(list, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating verification rows: %w", err)
	}
	return list, nil
}

func (r *sqliteVerificationRepo) HasPending(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM verification_requests WHERE user_id = ? AND status = ?)`,
		userID, models.VerificationPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending verification: %w", err)
	}
	return exists, nil
}

func (r *sqliteVerificationRepo) CountByStatus(ctx context.Context, status models.VerificationStatus) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verification_requests WHERE status = ?`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count verification requests: %w", err)
	}
	return n, nil
}

func (r *sqliteVerificationRepo) UpdateDecision(ctx context.Context, v *models.VerificationRequest) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE verification_requests
		SET status = ?, review_note = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ? AND status = ?`,
		v.Status, v.ReviewNote, v.ReviewedBy, now, v.ID, models.VerificationPending)
	if err != nil {
		return fmt.Errorf("failed to update verification request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: verification request was already reviewed", pkg.ErrAlreadyExists)
	}
	v.ReviewedAt = &now
	return nil
}
