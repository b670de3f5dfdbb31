package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

func newAuth(e *testEnv) *authService {
	return NewAuthService(e.users, e.sessions, e.resets, e.bans, e.mailer, "test-secret", 15, 7).(*authService)
}

func TestAuth_RegisterFirstUserIsAdmin(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	first, err := auth.Register(ctx, &models.RegisterRequest{
		Username: "founder", Email: "founder@example.com", Password: "password1", Role: models.RoleAdvertiser,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.User.Role)
	assert.Empty(t, first.User.PasswordHash)
	assert.Equal(t, int64(15*60), first.ExpiresIn)

	second, err := auth.Register(ctx, &models.RegisterRequest{
		Username: "second", Email: "second@example.com", Password: "password1", Role: models.RoleNetwork,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleNetwork, second.User.Role)

	_, err = auth.Register(ctx, &models.RegisterRequest{
		Username: "second", Email: "other@example.com", Password: "password1",
	})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestAuth_RegisterRejectsAdminRole(t *testing.T) {
	env := newTestEnv(t)
	_, err := newAuth(env).Register(context.Background(), &models.RegisterRequest{
		Username: "sneaky", Email: "sneaky@example.com", Password: "password1", Role: models.RoleAdmin,
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestAuth_LoginByUsernameOrEmail(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	_, err := auth.Register(ctx, &models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password1"})
	require.NoError(t, err)

	pair, err := auth.Login(ctx, &models.LoginRequest{Identifier: "alice", Password: "password1"})
	require.NoError(t, err)
	require.NotNil(t, pair.User.LastLoginAt)

	_, err = auth.Login(ctx, &models.LoginRequest{Identifier: "alice@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, &models.LoginRequest{Identifier: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = auth.Login(ctx, &models.LoginRequest{Identifier: "nobody", Password: "password1"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	assert.EqualError(t, err, "unauthorized: invalid credentials")
}

func TestAuth_BannedUserCannotLoginOrRefresh(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	pair, err := auth.Register(ctx, &models.RegisterRequest{Username: "mallory", Email: "m@example.com", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, env.bans.Create(ctx, &models.Ban{UserID: pair.User.ID, Reason: "spam", BannedBy: pair.User.ID}))

	_, err = auth.Login(ctx, &models.LoginRequest{Identifier: "mallory", Password: "password1"})
	assert.ErrorIs(t, err, pkg.ErrForbidden)

	_, err = auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestAuth_RefreshRotatesSession(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	pair, err := auth.Register(ctx, &models.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "password1"})
	require.NoError(t, err)

	next, err := auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	require.NoError(t, auth.Logout(ctx, next.RefreshToken))
	require.NoError(t, auth.Logout(ctx, next.RefreshToken))
	_, err = auth.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestAuth_ExpiredRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	pair, err := auth.Register(ctx, &models.RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "password1"})
	require.NoError(t, err)

	auth.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, err = auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestAuth_AccessTokenAndSession(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	pair, err := auth.Register(ctx, &models.RegisterRequest{Username: "dave", Email: "dave@example.com", Password: "password1"})
	require.NoError(t, err)

	claims, err := auth.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, claims.UserID)

	info := auth.Session(pair.User, claims)
	assert.WithinDuration(t, pair.ExpiresAt, info.ExpiresAt, time.Second)
	assert.InDelta(t, 15*60, info.ExpiresIn, 5)

	other := NewAuthService(env.users, env.sessions, env.resets, env.bans, nil, "other-secret", 15, 7)
	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	auth.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = auth.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	assert.Contains(t, err.Error(), "expired")
}

func TestAuth_PasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	pair, err := auth.Register(ctx, &models.RegisterRequest{Username: "erin", Email: "erin@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, auth.ForgotPassword(ctx, &models.ForgotPasswordRequest{Email: "erin@example.com"}))
	token := env.mailer.resets["erin@example.com"]
	require.NotEmpty(t, token)

	// A second request inside the cooldown succeeds without a new link.
	delete(env.mailer.resets, "erin@example.com")
	require.NoError(t, auth.ForgotPassword(ctx, &models.ForgotPasswordRequest{Email: "erin@example.com"}))
	assert.Empty(t, env.mailer.resets["erin@example.com"])

	require.NoError(t, auth.ForgotPassword(ctx, &models.ForgotPasswordRequest{Email: "ghost@example.com"}))

	err = auth.ResetPassword(ctx, &models.ResetPasswordRequest{Token: "bogus", NewPassword: "newpassword1"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	require.NoError(t, auth.ResetPassword(ctx, &models.ResetPasswordRequest{Token: token, NewPassword: "newpassword1"}))

	_, err = auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized, "reset revokes all sessions")

	_, err = auth.Login(ctx, &models.LoginRequest{Identifier: "erin", Password: "newpassword1"})
	require.NoError(t, err)

	err = auth.ResetPassword(ctx, &models.ResetPasswordRequest{Token: token, NewPassword: "another-pass"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest, "token is single use")
}

func TestAuth_ForgotPasswordHidesMailFailures(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	_, err := auth.Register(ctx, &models.RegisterRequest{Username: "gwen", Email: "gwen@example.com", Password: "password1"})
	require.NoError(t, err)

	env.mailer.fail = errors.New("provider down")
	assert.NoError(t, auth.ForgotPassword(ctx, &models.ForgotPasswordRequest{Email: "gwen@example.com"}))
}

func TestAuth_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	pair, err := auth.Register(ctx, &models.RegisterRequest{Username: "frank", Email: "frank@example.com", Password: "password1"})
	require.NoError(t, err)

	err = auth.ChangePassword(ctx, pair.User.ID, &models.ChangePasswordRequest{CurrentPassword: "nope-nope", NewPassword: "password2"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	err = auth.ChangePassword(ctx, pair.User.ID, &models.ChangePasswordRequest{CurrentPassword: "password1", NewPassword: "password1"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	require.NoError(t, auth.ChangePassword(ctx, pair.User.ID, &models.ChangePasswordRequest{CurrentPassword: "password1", NewPassword: "password2"}))
	_, err = auth.Login(ctx, &models.LoginRequest{Identifier: "frank", Password: "password2"})
	require.NoError(t, err)
}
