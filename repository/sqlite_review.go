package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

type sqliteReviewRepo struct {
	db database.TxQuerier
}

func NewSQLiteReviewRepo(db database.TxQuerier) ReviewRepository {
	return &sqliteReviewRepo{db: db}
}

// reviewColumns takes one argument: the viewer id used for "voted".
const reviewColumns = `
	r.id, r.entity_id, r.user_id, r.rating, r.title, r.content, r.status,
	(SELECT COUNT(*) FROM review_votes v WHERE v.review_id = r.id) AS helpful_count,
	(SELECT COUNT(*) FROM review_reports p WHERE p.review_id = r.id) AS report_count,
	r.created_at, r.updated_at,
	EXISTS(SELECT 1 FROM review_votes v WHERE v.review_id = r.id AND v.user_id = ?) AS voted,
	` + authorColumns

const reviewFrom = ` FROM reviews r JOIN users u ON u.id = r.user_id`

func scanReview(row rowScanner) (*models.Review, error) {
	rv := &models.Review{Author: &models.Author{}, Replies: []models.ReviewReply{}}
	err := row.Scan(
		&rv.ID, &rv.EntityID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Content, &rv.Status,
		&rv.HelpfulCount, &rv.ReportCount, &rv.CreatedAt, &rv.UpdatedAt, &rv.Voted,
		&rv.Author.ID, &rv.Author.Username, &rv.Author.DisplayName, &rv.Author.AvatarURL,
		&rv.Author.Role, &rv.Author.IsVerified,
	)
	return rv, err
}

func (r *sqliteReviewRepo) Create(ctx context.Context, rv *models.Review) error {
	rv.ID = newID()
	now := time.Now().UTC()
	rv.CreatedAt, rv.UpdatedAt = now, now
	if rv.Status == "" {
		rv.Status = models.ReviewStatusPublished
	}
	if rv.Replies == nil {
		rv.Replies = []models.ReviewReply{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, entity_id, user_id, rating, title, content, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rv.ID, rv.EntityID, rv.UserID, rv.Rating, rv.Title, rv.Content, rv.Status, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: you have already reviewed this entity", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *sqliteReviewRepo) GetByID(ctx context.Context, id, viewerID string) (*models.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+reviewFrom+` WHERE r.id = ?`, viewerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: review not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return rv, nil
}

func (r *sqliteReviewRepo) Update(ctx context.Context, rv *models.Review) error {
	rv.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, title = ?, content = ?, updated_at = ? WHERE id = ?`,
		rv.Rating, rv.Title, rv.Content, rv.UpdatedAt, rv.ID)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	return requireOne(result, "review")
}

func (r *sqliteReviewRepo) UpdateStatus(ctx context.Context, id string, status models.ReviewStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update review status: %w", err)
	}
	return requireOne(result, "review")
}

func (r *sqliteReviewRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return requireOne(result, "review")
}

var reviewOrder = map[string]string{
	models.ReviewSortNewest:  "r.created_at DESC, r.id DESC",
	models.ReviewSortHighest: "r.rating DESC, r.created_at DESC",
	models.ReviewSortLowest:  "r.rating ASC, r.created_at DESC",
	models.ReviewSortHelpful: "helpful_count DESC, r.created_at DESC",
}

func (r *sqliteReviewRepo) ListByEntity(ctx context.Context, entityID string, p models.ReviewListParams) ([]models.Review, int, error) {
	var w where
	w.add("r.entity_id = ?", entityID)
	if !p.IncludeHidden {
		w.add("r.status = ?", models.ReviewStatusPublished)
	}

	order, ok := reviewOrder[p.Sort]
	if !ok {
		order = reviewOrder[models.ReviewSortNewest]
	}

	return r.list(ctx, w, order, p.ViewerID, p.PageParams)
}

func (r *sqliteReviewRepo) ListReported(ctx context.Context, page models.PageParams) ([]models.Review, int, error) {
	var w where
	w.add("EXISTS(SELECT 1 FROM review_reports p WHERE p.review_id = r.id)")
	return r.list(ctx, w, "report_count DESC, r.created_at DESC", "", page)
}

func (r *sqliteReviewRepo) list(ctx context.Context, w where, order, viewerID string, page models.PageParams) ([]models.Review, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+reviewFrom+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	if total == 0 {
		return []models.Review{}, 0, nil
	}

	args := make([]any, 0, len(w.args)+3)
	args = append(args, viewerID)
	args = append(args, w.args...)
	args = append(args, page.Limit, page.Offset())

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reviewColumns+reviewFrom+w.sql()+` ORDER BY `+order+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating review rows: %w", err)
	}
	return reviews, total, nil
}

func (r *sqliteReviewRepo) ListReports(ctx context.Context, reviewID string) ([]models.ReviewReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.user_id, u.username, p.reason, p.created_at
		FROM review_reports p JOIN users u ON u.id = p.user_id
		WHERE p.review_id = ?
		ORDER BY p.created_at`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review reports: %w", err)
	}
	defer rows.Close()

	reports := []models.ReviewReport{}
	for rows.Next() {
		var rep models.ReviewReport
		if err := rows.Scan(&rep.UserID, &rep.Username, &rep.Reason, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// --- replies ---

func (r *sqliteReviewRepo) CreateReply(ctx context.Context, reply *models.ReviewReply) error {
	reply.ID = newID()
	reply.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO review_replies (id, review_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		reply.ID, reply.ReviewID, reply.UserID, reply.Content, reply.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reply: %w", err)
	}
	return nil
}

const replyColumns = `rp.id, rp.review_id, rp.user_id, rp.content, rp.created_at, ` + authorColumns

func scanReply(row rowScanner) (*models.ReviewReply, error) {
	rp := &models.ReviewReply{Author: &models.Author{}}
	err := row.Scan(
		&rp.ID, &rp.ReviewID, &rp.UserID, &rp.Content, &rp.CreatedAt,
		&rp.Author.ID, &rp.Author.Username, &rp.Author.DisplayName, &rp.Author.AvatarURL,
		&rp.Author.Role, &rp.Author.IsVerified,
	)
	return rp, err
}

func (r *sqliteReviewRepo) GetReply(ctx context.Context, id string) (*models.ReviewReply, error) {
	rp, err := scanReply(r.db.QueryRowContext(ctx, `
		SELECT `+replyColumns+`
		FROM review_replies rp JOIN users u ON u.id = rp.user_id
		WHERE rp.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: reply not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}
	return rp, nil
}

func (r *sqliteReviewRepo) DeleteReply(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM review_replies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reply: %w", err)
	}
	return requireOne(result, "reply")
}

func (r *sqliteReviewRepo) ListReplies(ctx context.Context, reviewIDs []string) (map[string][]models.ReviewReply, error) {
	out := make(map[string][]models.ReviewReply, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(reviewIDs)), ",")
	args := make([]any, len(reviewIDs))
	for i, id := range reviewIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+replyColumns+`
		FROM review_replies rp JOIN users u ON u.id = rp.user_id
		WHERE rp.review_id IN (`+placeholders+`)
		ORDER BY rp.created_at ASC, rp.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rp, err := scanReply(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reply row: %w", err)
		}
		out[rp.ReviewID] = append(out[rp.ReviewID], *rp)
	}
	return out, rows.Err()
}

// --- votes & reports ---

func (r *sqliteReviewRepo) ToggleVote(ctx context.Context, reviewID, userID string) (bool, int, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM review_votes WHERE review_id = ? AND user_id = ?`, reviewID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to remove vote: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	voted := false
	if removed == 0 {
		if _, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO review_votes (review_id, user_id, created_at) VALUES (?, ?, ?)`,
			reviewID, userID, time.Now().UTC()); err != nil {
			if isConstraintViolation(err) {
				return false, 0, fmt.Errorf("%w: review not found", pkg.ErrNotFound)
			}
			return false, 0, fmt.Errorf("failed to add vote: %w", err)
		}
		voted = true
	}

	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM review_votes WHERE review_id = ?`, reviewID).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return voted, count, nil
}

func (r *sqliteReviewRepo) CreateReport(ctx context.Context, reviewID, userID, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO review_reports (review_id, user_id, reason, created_at) VALUES (?, ?, ?, ?)`,
		reviewID, userID, reason, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: you have already reported this review", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to report review: %w", err)
	}
	return nil
}
