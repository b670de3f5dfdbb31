package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

type reviewFixture struct {
	reviews ReviewRepository
	entity  *models.Entity
	owner   *models.User
	alice   *models.User
	bob     *models.User
}

func newReviewFixture(t *testing.T) reviewFixture {
	t.Helper()
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	owner := createUser(t, users, "owner", models.RoleAdvertiser)
	return reviewFixture{
		reviews: NewSQLiteReviewRepo(db.Conn),
		entity:  createEntity(t, NewSQLiteEntityRepo(db.Conn), owner.ID, "Acme", models.EntityTypeAdvertiser, models.EntityStatusApproved),
		owner:   owner,
		alice:   createUser(t, users, "alice", models.RoleAffiliate),
		bob:     createUser(t, users, "bob", models.RoleAffiliate),
	}
}

func (f reviewFixture) create(t *testing.T, user *models.User, rating int) *models.Review {
	t.Helper()
	rv := &models.Review{EntityID: f.entity.ID, UserID: user.ID, Rating: rating, Title: "t", Content: "long enough content"}
	require.NoError(t, f.reviews.Create(context.Background(), rv))
	return rv
}

func TestReviewRepo_OnePerUser(t *testing.T) {
	f := newReviewFixture(t)
	f.create(t, f.alice, 5)

	err := f.reviews.Create(context.Background(), &models.Review{EntityID: f.entity.ID, UserID: f.alice.ID, Rating: 1, Content: "again and again"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestReviewRepo_ListSortAndHidden(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture(t)
	low := f.create(t, f.alice, 2)
	high := f.create(t, f.bob, 5)

	params := models.ReviewListParams{Sort: models.ReviewSortHighest, PageParams: models.PageParams{Page: 1, Limit: 10}}
	list, total, err := f.reviews.ListByEntity(ctx, f.entity.ID, params)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	assert.Equal(t, high.ID, list[0].ID)
	assert.Equal(t, "bob", list[0].Author.Username)

	require.NoError(t, f.reviews.UpdateStatus(ctx, low.ID, models.ReviewStatusHidden))

	_, total, err = f.reviews.ListByEntity(ctx, f.entity.ID, params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	params.IncludeHidden = true
	_, total, err = f.reviews.ListByEntity(ctx, f.entity.ID, params)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestReviewRepo_VotesAndReports(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture(t)
	rv := f.create(t, f.alice, 4)

	voted, count, err := f.reviews.ToggleVote(ctx, rv.ID, f.bob.ID)
	require.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, 1, count)

	got, err := f.reviews.GetByID(ctx, rv.ID, f.bob.ID)
	require.NoError(t, err)
	assert.True(t, got.Voted)
	assert.Equal(t, 1, got.HelpfulCount)

	got, err = f.reviews.GetByID(ctx, rv.ID, "")
	require.NoError(t, err)
	assert.False(t, got.Voted)

	voted, count, err = f.reviews.ToggleVote(ctx, rv.ID, f.bob.ID)
	require.NoError(t, err)
	assert.False(t, voted)
	assert.Zero(t, count)

	require.NoError(t, f.reviews.CreateReport(ctx, rv.ID, f.bob.ID, "spam"))
	assert.ErrorIs(t, f.reviews.CreateReport(ctx, rv.ID, f.bob.ID, "spam"), pkg.ErrAlreadyExists)

	reported, total, err := f.reviews.ListReported(ctx, models.PageParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, 1, reported[0].ReportCount)

	reports, err := f.reviews.ListReports(ctx, rv.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "bob", reports[0].Username)
}

func TestReviewRepo_Replies(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture(t)
	rv := f.create(t, f.alice, 3)
	other := f.create(t, f.bob, 4)

	reply := &models.ReviewReply{ReviewID: rv.ID, UserID: f.owner.ID, Content: "thanks"}
	require.NoError(t, f.reviews.CreateReply(ctx, reply))

	got, err := f.reviews.GetReply(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", got.Author.Username)

	grouped, err := f.reviews.ListReplies(ctx, []string{rv.ID, other.ID})
	require.NoError(t, err)
	assert.Len(t, grouped[rv.ID], 1)
	assert.Empty(t, grouped[other.ID])

	require.NoError(t, f.reviews.DeleteReply(ctx, reply.ID))
	assert.ErrorIs(t, f.reviews.DeleteReply(ctx, reply.ID), pkg.ErrNotFound)

	// Deleting a review cascades to replies.
	require.NoError(t, f.reviews.CreateReply(ctx, &models.ReviewReply{ReviewID: rv.ID, UserID: f.owner.ID, Content: "again"}))
	require.NoError(t, f.reviews.Delete(ctx, rv.ID))
	grouped, err = f.reviews.ListReplies(ctx, []string{rv.ID})
	require.NoError(t, err)
	assert.Empty(t, grouped[rv.ID])
}
