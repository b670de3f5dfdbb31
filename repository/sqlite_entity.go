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

type sqliteEntityRepo struct {
	db database.TxQuerier
}

func NewSQLiteEntityRepo(db database.TxQuerier) EntityRepository {
	return &sqliteEntityRepo{db: db}
}

// entityFrom joins the published review aggregate onto entities.
const entityFrom = `
	FROM entities e
	LEFT JOIN (
		SELECT entity_id, ROUND(AVG(rating), 2) AS avg_rating, COUNT(*) AS review_count
		FROM reviews WHERE status = 'published'
		GROUP BY entity_id
	) rs ON rs.entity_id = e.id`

const entityColumns = `
	e.id, e.owner_id, e.name, e.type, e.description, e.website, e.logo_url, e.country,
	e.categories, e.contact_email, e.status, e.rejection_reason, e.is_verified,
	COALESCE(rs.avg_rating, 0.0), COALESCE(rs.review_count, 0), e.created_at, e.updated_at`

func scanEntity(row rowScanner) (*models.Entity, error) {
	e := &models.Entity{}
	var categories string
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.Name, &e.Type, &e.Description, &e.Website, &e.LogoURL, &e.Country,
		&categories, &e.ContactEmail, &e.Status, &e.RejectionReason, &e.IsVerified,
		&e.AvgRating, &e.ReviewCount, &e.CreatedAt, &e.UpdatedAt,
	)
	e.Categories = splitTags(categories)
	return e, err
}

func (r *sqliteEntityRepo) Create(ctx context.Context, e *models.Entity) error {
	e.ID = newID()
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Categories == nil {
		e.Categories = []string{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entities (id, owner_id, name, type, description, website, logo_url, country,
			categories, contact_email, status, rejection_reason, is_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Name, e.Type, e.Description, e.Website, e.LogoURL, e.Country,
		joinTags(e.Categories), e.ContactEmail, e.Status, e.RejectionReason, e.IsVerified, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %q already exists", pkg.ErrAlreadyExists, e.Type, e.Name)
		}
		return fmt.Errorf("failed to create entity: %w", err)
	}
	return nil
}

func (r *sqliteEntityRepo) GetByID(ctx context.Context, id string) (*models.Entity, error) {
	e, err := scanEntity(r.db.QueryRowContext(ctx, `SELECT `+entityColumns+entityFrom+` WHERE e.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: entity not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return e, nil
}

func (r *sqliteEntityRepo) Update(ctx context.Context, e *models.Entity) error {
	e.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE entities SET name = ?, description = ?, website = ?, country = ?, categories = ?,
			contact_email = ?, status = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ?`,
		e.Name, e.Description, e.Website, e.Country, joinTags(e.Categories),
		e.ContactEmail, e.Status, e.RejectionReason, e.UpdatedAt, e.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %q already exists", pkg.ErrAlreadyExists, e.Type, e.Name)
		}
		return fmt.Errorf("failed to update entity: %w", err)
	}
	return requireOne(result, "entity")
}

func (r *sqliteEntityRepo) UpdateStatus(ctx context.Context, id string, status models.EntityStatus, reason *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE entities SET status = ?, rejection_reason = ?, updated_at = ? WHERE id = ?`,
		status, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update entity status: %w", err)
	}
	return requireOne(result, "entity")
}

func (r *sqliteEntityRepo) UpdateLogo(ctx context.Context, id, logoURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE entities SET logo_url = ?, updated_at = ? WHERE id = ?`, logoURL, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update entity logo: %w", err)
	}
	return requireOne(result, "entity")
}

func (r *sqliteEntityRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE entities SET is_verified = ?, updated_at = ? WHERE id = ?`, verified, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update entity verification: %w", err)
	}
	return requireOne(result, "entity")
}

func (r *sqliteEntityRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	return requireOne(result, "entity")
}

var entityOrder = map[string]string{
	models.EntitySortNewest:  "e.created_at DESC, e.id DESC",
	models.EntitySortRating:  "COALESCE(rs.avg_rating, 0) DESC, COALESCE(rs.review_count, 0) DESC, e.name COLLATE NOCASE",
	models.EntitySortReviews: "COALESCE(rs.review_count, 0) DESC, e.created_at DESC",
	models.EntitySortName:    "e.name COLLATE NOCASE ASC, e.id",
}

func (r *sqliteEntityRepo) List(ctx context.Context, p models.EntityListParams) ([]models.Entity, int, error) {
	var w where
	if p.Status != "" {
		w.add("e.status = ?", p.Status)
	}
	if p.OwnerID != "" {
		w.add("e.owner_id = ?", p.OwnerID)
	}
	if p.Type != "" {
		w.add("e.type = ?", p.Type)
	}
	if p.Country != "" {
		w.add("e.country = ?", p.Country)
	}
	if p.Category != "" {
		w.add(`e.categories LIKE ? ESCAPE '\'`, tagPattern(p.Category))
	}
	if p.Verified != nil {
		w.add("e.is_verified = ?", *p.Verified)
	}
	if p.MinRating > 0 {
		w.add("COALESCE(rs.avg_rating, 0) >= ?", p.MinRating)
	}
	if q := strings.TrimSpace(p.Query); q != "" {
		pat := containsPattern(q)
		w.add(`(e.name LIKE ? ESCAPE '\' OR e.description LIKE ? ESCAPE '\' OR e.categories LIKE ? ESCAPE '\')`, pat, pat, pat)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+entityFrom+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count entities: %w", err)
	}
	if total == 0 {
		return []models.Entity{}, 0, nil
	}

	order, ok := entityOrder[p.Sort]
	if !ok {
		order = entityOrder[models.EntitySortNewest]
	}

	args := append(w.args, p.Limit, p.Offset())
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entityColumns+entityFrom+w.sql()+` ORDER BY `+order+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	entities, err := collectEntities(rows)
	if err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

func (r *sqliteEntityRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Entity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entityColumns+entityFrom+` WHERE e.owner_id = ? ORDER BY e.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner entities: %w", err)
	}
	defer rows.Close()
	return collectEntities(rows)
}

func collectEntities(rows *sql.Rows) ([]models.Entity, error) {
	entities := []models.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity rows: %w", err)
	}
	return entities, nil
}

func (r *sqliteEntityRepo) RatingDistribution(ctx context.Context, entityID string) (map[int]int, error) {
	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}

	rows, err := r.db.QueryContext(ctx, `
		SELECT rating, COUNT(*) FROM reviews
		WHERE entity_id = ? AND status = 'published'
		GROUP BY rating`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		dist[rating] = count
	}
	return dist, rows.Err()
}

// requireOne turns "no row affected" into ErrNotFound.
func requireOne(result sql.Result, what string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s not found", pkg.ErrNotFound, what)
	}
	return nil
}
