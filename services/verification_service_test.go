package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/crypto"
	"github.com/vignesh0909/adbond.net-sub002/ws"
)

var testKey = crypto.KeyFromSecret("test-secret")

func newVerification(env *testEnv) VerificationService {
	return NewVerificationService(env.db.Conn, env.verifs, env.users, env.entities, env.uploads, env.hub, env.mailer, testKey)
}

func submit(t *testing.T, svc VerificationService, user *models.User, entityID string) (*models.VerificationRequest, error) {
	t.Helper()
	f, h := multipartFile(t, "passport.png", pngBytes)
	return svc.Submit(context.Background(), user, &models.SubmitVerificationRequest{
		EntityID:       entityID,
		FullName:       "Alice Example",
		DocumentType:   models.DocumentPassport,
		DocumentNumber: "X12345678",
	}, f, h)
}

func TestVerification_SubmitEncryptsAndMasks(t *testing.T) {
	env := newTestEnv(t)
	svc := newVerification(env)
	alice := env.user(t, "alice", models.RoleAdvertiser)
	ctx := context.Background()

	v, err := submit(t, svc, alice, "")
	require.NoError(t, err)
	assert.Equal(t, "*****5678", v.DocumentNumber)
	assert.Equal(t, models.VerificationPending, v.Status)

	stored, err := env.verifs.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.DocumentNumber, "12345678")
	plain, err := crypto.Decrypt(stored.DocumentNumber, testKey)
	require.NoError(t, err)
	assert.Equal(t, "X12345678", plain)

	_, err = submit(t, svc, alice, "")
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists, "one pending request per user")

	mine, err := svc.Mine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "*****5678", mine[0].DocumentNumber)
}

func TestVerification_EntityMustBeOwned(t *testing.T) {
	env := newTestEnv(t)
	svc := newVerification(env)
	alice := env.user(t, "alice", models.RoleAdvertiser)
	bob := env.user(t, "bob", models.RoleAdvertiser)
	bobs := env.entity(t, bob, "Bob Media", models.EntityTypeAdvertiser, models.EntityStatusApproved)

	_, err := submit(t, svc, alice, bobs.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	_, err = submit(t, svc, alice, "missing")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestVerification_ApproveFlagsUserAndEntity(t *testing.T) {
	env := newTestEnv(t)
	svc := newVerification(env)
	admin := env.user(t, "root", models.RoleAdmin)
	alice := env.user(t, "alice", models.RoleAdvertiser)
	e := env.entity(t, alice, "Alice Ads", models.EntityTypeAdvertiser, models.EntityStatusApproved)
	ctx := context.Background()

	v, err := submit(t, svc, alice, e.ID)
	require.NoError(t, err)

	page, err := svc.List(ctx, &models.VerificationListParams{Status: models.VerificationPending})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "*****5678", page.Items[0].DocumentNumber)

	decided, err := svc.Approve(ctx, admin, v.ID, &models.ReviewVerificationRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationApproved, decided.Status)
	assert.Equal(t, "*****5678", decided.DocumentNumber)

	u, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, u.IsVerified)
	ent, err := env.entities.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, ent.IsVerified)

	last := env.hub.last()
	assert.Equal(t, alice.ID, last.To)
	assert.Equal(t, ws.OpVerificationUpdate, last.Event.Op)
	assert.True(t, env.mailer.results["alice@example.com"])

	_, err = svc.Reject(ctx, admin, v.ID, &models.ReviewVerificationRequest{Note: "too late"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = submit(t, svc, alice, "")
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists, "verified users cannot submit again")
}

func TestVerification_RejectNeedsNote(t *testing.T) {
	env := newTestEnv(t)
	svc := newVerification(env)
	admin := env.user(t, "root", models.RoleAdmin)
	alice := env.user(t, "alice", models.RoleAdvertiser)
	ctx := context.Background()

	v, err := submit(t, svc, alice, "")
	require.NoError(t, err)

	_, err = svc.Reject(ctx, admin, v.ID, &models.ReviewVerificationRequest{Note: "  "})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	decided, err := svc.Reject(ctx, admin, v.ID, &models.ReviewVerificationRequest{Note: "document is blurry"})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, decided.Status)
	require.NotNil(t, decided.ReviewNote)
	assert.False(t, env.mailer.results["alice@example.com"])

	u, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, u.IsVerified)

	_, err = submit(t, svc, alice, "")
	assert.NoError(t, err, "a rejected user may try again")
}
