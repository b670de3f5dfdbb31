package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

func TestQueryParser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/offers?q=+crypto+&page=2&limit=500&min_payout=1.5&verified=true", nil)
	q := newQueryParser(r)

	assert.Equal(t, "crypto", q.str("q"))
	assert.Equal(t, models.PageParams{Page: 2, Limit: 500}, q.page())
	require.NotNil(t, q.floatPtr("min_payout"))
	assert.Equal(t, 1.5, *q.floatPtr("min_payout"))
	assert.Nil(t, q.floatPtr("max_payout"))
	require.NotNil(t, q.boolPtr("verified"))
	assert.True(t, *q.boolPtr("verified"))
	assert.NoError(t, q.err)
}

func TestQueryParser_KeepsFirstError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/chat/messages?after=abc&limit=x", nil)
	q := newQueryParser(r)

	assert.Zero(t, q.int64("after"))
	assert.Zero(t, q.int("limit"))
	require.Error(t, q.err)
	assert.ErrorIs(t, q.err, pkg.ErrBadRequest)
	assert.Contains(t, q.err.Error(), "after")
}

func TestCurrentUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, CurrentUser(r))

	rec := httptest.NewRecorder()
	_, ok := requireUser(rec, r)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user := &models.User{ID: "u1", Username: "pat"}
	claims := &models.TokenClaims{UserID: "u1"}
	r = r.WithContext(WithUser(r.Context(), user, claims))
	assert.Same(t, user, CurrentUser(r))
	assert.Same(t, claims, currentClaims(r))
}
