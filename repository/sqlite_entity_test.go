package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

func TestEntityRepo_CreateUniquePerType(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	entities := NewSQLiteEntityRepo(db.Conn)
	owner := createUser(t, users, "owner", models.RoleAdvertiser)

	e := createEntity(t, entities, owner.ID, "Acme", models.EntityTypeAdvertiser, models.EntityStatusPending)

	got, err := entities.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"finance", "crypto"}, got.Categories)
	assert.Zero(t, got.ReviewCount)

	err = entities.Create(ctx, &models.Entity{OwnerID: owner.ID, Name: "ACME", Type: models.EntityTypeAdvertiser, Status: models.EntityStatusPending})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	// Same name under a different type is allowed.
	createEntity(t, entities, owner.ID, "Acme", models.EntityTypeNetwork, models.EntityStatusPending)
}

func TestEntityRepo_ListFiltersAndRating(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	entities := NewSQLiteEntityRepo(db.Conn)
	reviews := NewSQLiteReviewRepo(db.Conn)

	owner := createUser(t, users, "owner", models.RoleAdvertiser)
	r1 := createUser(t, users, "r1", models.RoleAffiliate)
	r2 := createUser(t, users, "r2", models.RoleAffiliate)

	acme := createEntity(t, entities, owner.ID, "Acme Ads", models.EntityTypeAdvertiser, models.EntityStatusApproved)
	createEntity(t, entities, owner.ID, "Beta Net", models.EntityTypeNetwork, models.EntityStatusApproved)
	createEntity(t, entities, owner.ID, "Hidden Co", models.EntityTypeNetwork, models.EntityStatusPending)

	require.NoError(t, reviews.Create(ctx, &models.Review{EntityID: acme.ID, UserID: r1.ID, Rating: 5, Content: "great partner"}))
	require.NoError(t, reviews.Create(ctx, &models.Review{EntityID: acme.ID, UserID: r2.ID, Rating: 4, Content: "solid payouts"}))

	page := models.PageParams{Page: 1, Limit: 20}

	list, total, err := entities.List(ctx, models.EntityListParams{Status: models.EntityStatusApproved, PageParams: page})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = entities.List(ctx, models.EntityListParams{
		Status: models.EntityStatusApproved, MinRating: 4, Sort: models.EntitySortRating, PageParams: page,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, acme.ID, list[0].ID)
	assert.InDelta(t, 4.5, list[0].AvgRating, 0.001)
	assert.Equal(t, 2, list[0].ReviewCount)

	_, total, err = entities.List(ctx, models.EntityListParams{Status: models.EntityStatusApproved, Query: "beta", PageParams: page})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = entities.List(ctx, models.EntityListParams{Status: models.EntityStatusApproved, Category: "crypto", PageParams: page})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, total, err = entities.List(ctx, models.EntityListParams{Status: models.EntityStatusApproved, Category: "cry", PageParams: page})
	require.NoError(t, err)
	assert.Zero(t, total)

	dist, err := entities.RatingDistribution(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 1}, dist)

	mine, err := entities.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestEntityRepo_StatusAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := createUser(t, NewSQLiteUserRepo(db.Conn), "owner", models.RoleNetwork)
	entities := NewSQLiteEntityRepo(db.Conn)
	e := createEntity(t, entities, owner.ID, "Gamma", models.EntityTypeNetwork, models.EntityStatusPending)

	reason := "incomplete profile"
	require.NoError(t, entities.UpdateStatus(ctx, e.ID, models.EntityStatusRejected, &reason))
	require.NoError(t, entities.UpdateLogo(ctx, e.ID, "/api/uploads/logo.png"))
	require.NoError(t, entities.SetVerified(ctx, e.ID, true))

	got, err := entities.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EntityStatusRejected, got.Status)
	assert.Equal(t, reason, *got.RejectionReason)
	assert.Equal(t, "/api/uploads/logo.png", *got.LogoURL)
	assert.True(t, got.IsVerified)

	require.NoError(t, entities.Delete(ctx, e.ID))
	_, err = entities.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.ErrorIs(t, entities.Delete(ctx, e.ID), pkg.ErrNotFound)
}
