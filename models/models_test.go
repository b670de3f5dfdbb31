package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

func strPtr(s string) *string { return &s }

// =============================================================================
// Users
// =============================================================================

func TestRegisterRequest_Validate(t *testing.T) {
	t.Run("defaults role and trims", func(t *testing.T) {
		r := RegisterRequest{Username: "  ann_01 ", Email: " ann@example.com ", Password: "supersecret"}
		require.NoError(t, r.Validate())
		assert.Equal(t, "ann_01", r.Username)
		assert.Equal(t, "ann@example.com", r.Email)
		assert.Equal(t, RoleAffiliate, r.Role)
	})

	t.Run("admin cannot be self-assigned", func(t *testing.T) {
		r := RegisterRequest{Username: "ann", Email: "a@b.co", Password: "supersecret", Role: RoleAdmin}
		assert.ErrorIs(t, r.Validate(), pkg.ErrBadRequest)
	})

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"short username", RegisterRequest{Username: "ab", Email: "a@b.co", Password: "supersecret"}},
		{"bad chars", RegisterRequest{Username: "ann-01", Email: "a@b.co", Password: "supersecret"}},
		{"bad email", RegisterRequest{Username: "ann", Email: "nope", Password: "supersecret"}},
		{"short password", RegisterRequest{Username: "ann", Email: "a@b.co", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.req.Validate(), pkg.ErrBadRequest)
		})
	}
}

func TestLoginRequest_Aliases(t *testing.T) {
	r := LoginRequest{Username: "ann", Password: "x"}
	require.NoError(t, r.Validate())
	assert.Equal(t, "ann", r.Identifier)

	r = LoginRequest{Email: "ann@example.com", Password: "x"}
	require.NoError(t, r.Validate())
	assert.Equal(t, "ann@example.com", r.Identifier)

	r = LoginRequest{Password: "x"}
	assert.Error(t, r.Validate())
}

// =============================================================================
// Pagination
// =============================================================================

func TestPageParams_Normalize(t *testing.T) {
	p := PageParams{Page: 0, Limit: 0}
	p.Normalize()
	assert.Equal(t, PageParams{Page: 1, Limit: DefaultPageLimit}, p)

	p = PageParams{Page: 3, Limit: 500}
	p.Normalize()
	assert.Equal(t, MaxPageLimit, p.Limit)
	assert.Equal(t, 200, p.Offset())
}

func TestNewPage(t *testing.T) {
	page := NewPage[int](nil, 41, PageParams{Page: 2, Limit: 20})
	assert.NotNil(t, page.Items)
	assert.Equal(t, 3, page.TotalPages)

	page = NewPage([]int{}, 0, PageParams{Page: 1, Limit: 20})
	assert.Equal(t, 0, page.TotalPages)
}

// =============================================================================
// Entities
// =============================================================================

func TestCreateEntityRequest_Validate(t *testing.T) {
	r := CreateEntityRequest{
		Name:       " Acme Ads ",
		Type:       EntityTypeAdvertiser,
		Country:    strPtr("us"),
		Website:    strPtr(""),
		Categories: []string{" Finance", "finance", "", "Crypto"},
	}
	require.NoError(t, r.Validate())
	assert.Equal(t, "Acme Ads", r.Name)
	assert.Equal(t, "US", *r.Country)
	assert.Nil(t, r.Website)
	assert.Equal(t, []string{"finance", "crypto"}, r.Categories)

	bad := CreateEntityRequest{Name: "A", Type: EntityTypeNetwork}
	assert.ErrorIs(t, bad.Validate(), pkg.ErrBadRequest)

	bad = CreateEntityRequest{Name: "Acme", Type: "agency"}
	assert.ErrorIs(t, bad.Validate(), pkg.ErrBadRequest)

	bad = CreateEntityRequest{Name: "Acme", Type: EntityTypeNetwork, Website: strPtr("not a url")}
	assert.ErrorIs(t, bad.Validate(), pkg.ErrBadRequest)
}

func TestUpdateEntityRequest_ClearAndApply(t *testing.T) {
	e := Entity{Name: "Acme", Website: strPtr("https://acme.test"), Country: strPtr("US")}

	r := UpdateEntityRequest{Website: strPtr(""), Country: strPtr("de")}
	require.NoError(t, r.Validate())
	r.Apply(&e)

	assert.Nil(t, e.Website)
	assert.Equal(t, "DE", *e.Country)
	assert.Equal(t, "Acme", e.Name)

	bad := UpdateEntityRequest{Name: strPtr(" ")}
	assert.Error(t, bad.Validate())

	bad = UpdateEntityRequest{ContactEmail: strPtr("nope")}
	assert.Error(t, bad.Validate())
}

func TestEntityListParams_Validate(t *testing.T) {
	p := EntityListParams{Category: " Finance "}
	require.NoError(t, p.Validate())
	assert.Equal(t, EntitySortNewest, p.Sort)
	assert.Equal(t, "finance", p.Category)
	assert.Equal(t, 1, p.Page)

	p = EntityListParams{Sort: "random"}
	assert.Error(t, p.Validate())

	p = EntityListParams{MinRating: 7}
	assert.Error(t, p.Validate())
}

// =============================================================================
// Offers
// =============================================================================

func TestCreateOfferRequest_Validate(t *testing.T) {
	r := CreateOfferRequest{
		Title:          "Crypto wallet installs",
		PayoutModel:    "cpi",
		PayoutAmount:   2.5,
		Geo:            []string{"us", "US", "gb"},
		TrafficSources: []string{"Social", "email"},
	}
	require.NoError(t, r.Validate())
	assert.Equal(t, PayoutCPI, r.PayoutModel)
	assert.Equal(t, "USD", r.Currency)
	assert.Equal(t, []string{"US", "GB"}, r.Geo)

	bad := CreateOfferRequest{Title: "Offer", PayoutModel: "CPM"}
	assert.Error(t, bad.Validate())

	bad = CreateOfferRequest{Title: "Offer", PayoutModel: "CPA", PayoutAmount: -1}
	assert.Error(t, bad.Validate())
}

func TestUpdateOfferRequest_StatusRestricted(t *testing.T) {
	expired := OfferStatusExpired
	r := UpdateOfferRequest{Status: &expired}
	assert.Error(t, r.Validate())

	paused := OfferStatusPaused
	r = UpdateOfferRequest{Status: &paused}
	require.NoError(t, r.Validate())

	o := Offer{Status: OfferStatusActive}
	r.Apply(&o)
	assert.Equal(t, OfferStatusPaused, o.Status)
}

func TestOfferSearchParams_Validate(t *testing.T) {
	p := OfferSearchParams{}
	require.NoError(t, p.Validate())
	assert.Equal(t, OfferStatusActive, p.Status)
	assert.Equal(t, OfferSortNewest, p.Sort)

	lo, hi := 10.0, 5.0
	p = OfferSearchParams{MinPayout: &lo, MaxPayout: &hi}
	assert.ErrorIs(t, p.Validate(), pkg.ErrBadRequest)
}

// =============================================================================
// Reviews, chat, verification
// =============================================================================

func TestCreateReviewRequest_Validate(t *testing.T) {
	r := CreateReviewRequest{Rating: 5, Content: "Paid on time, great support."}
	require.NoError(t, r.Validate())

	r = CreateReviewRequest{Rating: 0, Content: "Paid on time, great support."}
	assert.Error(t, r.Validate())

	r = CreateReviewRequest{Rating: 3, Content: "too short"}
	assert.Error(t, r.Validate())

	r = CreateReviewRequest{Rating: 3, Title: strings.Repeat("x", 121), Content: "long enough content"}
	assert.Error(t, r.Validate())
}

func TestSendChatMessageRequest_Validate(t *testing.T) {
	r := SendChatMessageRequest{Content: "  hi  ", ReplyToID: strPtr(" ")}
	require.NoError(t, r.Validate())
	assert.Equal(t, "hi", r.Content)
	assert.Nil(t, r.ReplyToID)

	r = SendChatMessageRequest{Content: "   "}
	assert.Error(t, r.Validate())

	r = SendChatMessageRequest{Content: strings.Repeat("a", 2001)}
	assert.Error(t, r.Validate())
}

func TestChatPollParams_Normalize(t *testing.T) {
	p := ChatPollParams{After: -5, Limit: 1000}
	p.Normalize()
	assert.Equal(t, int64(0), p.After)
	assert.Equal(t, MaxChatLimit, p.Limit)
}

func TestReviewVerificationRequest_RejectNeedsNote(t *testing.T) {
	r := ReviewVerificationRequest{}
	assert.NoError(t, r.Validate(false))
	assert.ErrorIs(t, r.Validate(true), pkg.ErrBadRequest)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleNetwork.Valid())
	assert.False(t, Role("owner").Valid())
}

func TestNewRatingSummary(t *testing.T) {
	sum := NewRatingSummary("e1", map[int]int{1: 0, 2: 1, 3: 0, 4: 1, 5: 1})
	assert.Equal(t, 3, sum.ReviewCount)
	assert.InDelta(t, 3.67, sum.AvgRating, 0.001)

	empty := NewRatingSummary("e2", map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0})
	assert.Zero(t, empty.ReviewCount)
	assert.Zero(t, empty.AvgRating)
}
