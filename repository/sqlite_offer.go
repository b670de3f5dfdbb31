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

type sqliteOfferRepo struct {
	db database.TxQuerier
}

func NewSQLiteOfferRepo(db database.TxQuerier) OfferRepository {
	return &sqliteOfferRepo{db: db}
}

const offerColumns = `
	o.id, o.entity_id, o.created_by, o.title, o.description, o.category, o.payout_model,
	o.payout_amount, o.currency, o.geo, o.traffic_sources, o.landing_url, o.status,
	o.expires_at, o.created_at, o.updated_at, e.name, e.type`

func scanOffer(row rowScanner) (*models.Offer, error) {
	o := &models.Offer{}
	var geo, sources string
	err := row.Scan(
		&o.ID, &o.EntityID, &o.CreatedBy, &o.Title, &o.Description, &o.Category, &o.PayoutModel,
		&o.PayoutAmount, &o.Currency, &geo, &sources, &o.LandingURL, &o.Status,
		&o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt, &o.EntityName, &o.EntityType,
	)
	o.Geo = splitTags(geo)
	o.TrafficSources = splitTags(sources)
	return o, err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (r *sqliteOfferRepo) Create(ctx context.Context, o *models.Offer) error {
	o.ID = newID()
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	o.ExpiresAt = utcPtr(o.ExpiresAt)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO offers (id, entity_id, created_by, title, description, category, payout_model,
			payout_amount, currency, geo, traffic_sources, landing_url, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.EntityID, o.CreatedBy, o.Title, o.Description, o.Category, o.PayoutModel,
		o.PayoutAmount, o.Currency, joinTags(o.Geo), joinTags(o.TrafficSources), o.LandingURL,
		o.Status, o.ExpiresAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

func (r *sqliteOfferRepo) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	o, err := scanOffer(r.db.QueryRowContext(ctx, `
		SELECT `+offerColumns+`
		FROM offers o JOIN entities e ON e.id = o.entity_id
		WHERE o.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: offer not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return o, nil
}

func (r *sqliteOfferRepo) Update(ctx context.Context, o *models.Offer) error {
	o.UpdatedAt = time.Now().UTC()
	o.ExpiresAt = utcPtr(o.ExpiresAt)

	result, err := r.db.ExecContext(ctx, `
		UPDATE offers SET title = ?, description = ?, category = ?, payout_model = ?, payout_amount = ?,
			currency = ?, geo = ?, traffic_sources = ?, landing_url = ?, status = ?, expires_at = ?, updated_at = ?
		WHERE id = ?`,
		o.Title, o.Description, o.Category, o.PayoutModel, o.PayoutAmount,
		o.Currency, joinTags(o.Geo), joinTags(o.TrafficSources), o.LandingURL, o.Status, o.ExpiresAt, o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	return requireOne(result, "offer")
}

func (r *sqliteOfferRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	return requireOne(result, "offer")
}

var offerOrder = map[string]string{
	models.OfferSortNewest:     "o.created_at DESC, o.id DESC",
	models.OfferSortPayoutHigh: "o.payout_amount DESC, o.created_at DESC",
	models.OfferSortPayoutLow:  "o.payout_amount ASC, o.created_at DESC",
}

// Search filters offers. With a text query the FTS5 table is joined and
// rows must match every term as a prefix; the chosen sort still applies.
func (r *sqliteOfferRepo) Search(ctx context.Context, p models.OfferSearchParams) ([]models.Offer, int, error) {
	from := ` FROM offers o JOIN entities e ON e.id = o.entity_id`

	var w where
	if q := sanitizeFTSQuery(p.Query); q != "" {
		from += ` JOIN offers_fts ON offers_fts.rowid = o.rowid`
		w.add("offers_fts MATCH ?", q)
	}
	w.add("e.status = ?", models.EntityStatusApproved)
	if p.Status != "" {
		w.add("o.status = ?", p.Status)
	}
	if p.Category != "" {
		w.add("o.category = ?", p.Category)
	}
	if p.PayoutModel != "" {
		w.add("o.payout_model = ?", p.PayoutModel)
	}
	if p.Geo != "" {
		w.add(`o.geo LIKE ? ESCAPE '\'`, tagPattern(p.Geo))
	}
	if p.MinPayout != nil {
		w.add("o.payout_amount >= ?", *p.MinPayout)
	}
	if p.MaxPayout != nil {
		w.add("o.payout_amount <= ?", *p.MaxPayout)
	}
	if p.EntityID != "" {
		w.add("o.entity_id = ?", p.EntityID)
	}
	if p.EntityType != "" {
		w.add("e.type = ?", p.EntityType)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count offers: %w", err)
	}
	if total == 0 {
		return []models.Offer{}, 0, nil
	}

	order, ok := offerOrder[p.Sort]
	if !ok {
		order = offerOrder[models.OfferSortNewest]
	}

	args := append(w.args, p.Limit, p.Offset())
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+offerColumns+from+w.sql()+` ORDER BY `+order+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search offers: %w", err)
	}
	defer rows.Close()

	offers := []models.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan offer row: %w", err)
		}
		offers = append(offers, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating offer rows: %w", err)
	}
	return offers, total, nil
}

func (r *sqliteOfferRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE offers SET status = ?, updated_at = ?
		WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?`,
		models.OfferStatusExpired, now.UTC(), models.OfferStatusActive, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire offers: %w", err)
	}
	return result.RowsAffected()
}
