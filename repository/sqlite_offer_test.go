package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

func seedOffers(t *testing.T) (OfferRepository, *models.Entity, *models.Entity) {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, NewSQLiteUserRepo(db.Conn), "owner", models.RoleAdvertiser)
	entities := NewSQLiteEntityRepo(db.Conn)
	offers := NewSQLiteOfferRepo(db.Conn)

	approved := createEntity(t, entities, owner.ID, "Acme", models.EntityTypeAdvertiser, models.EntityStatusApproved)
	pending := createEntity(t, entities, owner.ID, "Pending Net", models.EntityTypeNetwork, models.EntityStatusPending)

	seed := []models.Offer{
		{EntityID: approved.ID, Title: "Crypto wallet installs", Category: "crypto", PayoutModel: models.PayoutCPI, PayoutAmount: 2.5, Geo: []string{"US", "DE"}},
		{EntityID: approved.ID, Title: "Finance leads", Description: "Loan applications", Category: "finance", PayoutModel: models.PayoutCPL, PayoutAmount: 30, Geo: []string{"GB"}},
		{EntityID: approved.ID, Title: "Paused sweepstakes", Category: "sweeps", PayoutModel: models.PayoutCPA, PayoutAmount: 10, Status: models.OfferStatusPaused},
		{EntityID: pending.ID, Title: "Crypto exchange signups", Category: "crypto", PayoutModel: models.PayoutCPA, PayoutAmount: 50},
	}
	for i := range seed {
		o := seed[i]
		o.CreatedBy = owner.ID
		o.Currency = "USD"
		if o.Status == "" {
			o.Status = models.OfferStatusActive
		}
		require.NoError(t, offers.Create(ctx, &o))
	}
	return offers, approved, pending
}

func search(t *testing.T, repo OfferRepository, p models.OfferSearchParams) ([]models.Offer, int) {
	t.Helper()
	if p.Status == "" {
		p.Status = models.OfferStatusActive
	}
	p.PageParams = models.PageParams{Page: 1, Limit: 20}
	list, total, err := repo.Search(context.Background(), p)
	require.NoError(t, err)
	return list, total
}

func TestOfferRepo_Search(t *testing.T) {
	offers, approved, _ := seedOffers(t)

	// Offers of unapproved entities and paused offers are excluded.
	_, total := search(t, offers, models.OfferSearchParams{})
	assert.Equal(t, 2, total)

	list, total := search(t, offers, models.OfferSearchParams{Query: "wall"})
	require.Equal(t, 1, total)
	assert.Equal(t, "Crypto wallet installs", list[0].Title)
	assert.Equal(t, "Acme", list[0].EntityName)

	_, total = search(t, offers, models.OfferSearchParams{Query: "loan"})
	assert.Equal(t, 1, total)

	_, total = search(t, offers, models.OfferSearchParams{Query: `"*`})
	assert.Equal(t, 2, total)

	list, total = search(t, offers, models.OfferSearchParams{Geo: "DE"})
	require.Equal(t, 1, total)
	assert.Equal(t, []string{"US", "DE"}, list[0].Geo)

	min := 5.0
	_, total = search(t, offers, models.OfferSearchParams{MinPayout: &min})
	assert.Equal(t, 1, total)

	list, _ = search(t, offers, models.OfferSearchParams{Sort: models.OfferSortPayoutHigh})
	require.Len(t, list, 2)
	assert.Equal(t, 30.0, list[0].PayoutAmount)

	_, total = search(t, offers, models.OfferSearchParams{Status: models.OfferStatusPaused, EntityID: approved.ID})
	assert.Equal(t, 1, total)
}

func TestOfferRepo_UpdateDeleteAndExpire(t *testing.T) {
	ctx := context.Background()
	offers, approved, _ := seedOffers(t)

	list, _ := search(t, offers, models.OfferSearchParams{Query: "finance"})
	require.Len(t, list, 1)
	o := list[0]

	past := time.Now().Add(-time.Hour)
	o.Title = "Finance leads EU"
	o.ExpiresAt = &past
	require.NoError(t, offers.Update(ctx, &o))

	got, err := offers.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Finance leads EU", got.Title)
	assert.Equal(t, approved.ID, got.EntityID)

	n, err := offers.ExpireDue(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err = offers.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusExpired, got.Status)

	require.NoError(t, offers.Delete(ctx, o.ID))
	_, err = offers.GetByID(ctx, o.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
