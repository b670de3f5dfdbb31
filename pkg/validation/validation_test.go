package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

type sample struct {
	Username string   `json:"username" validate:"required,min=3,max=32,username"`
	Email    string   `json:"email" validate:"required,email"`
	Role     string   `json:"role" validate:"omitempty,oneof=affiliate advertiser network"`
	Tags     []string `json:"tags" validate:"max=2"`
	Rating   int      `json:"rating" validate:"gte=1,lte=5"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(sample{Username: "ann_1", Email: "ann@example.com", Role: "network", Rating: 5})
	assert.NoError(t, err)
}

func TestStruct_CollectsFieldErrors(t *testing.T) {
	err := Struct(sample{Username: "a!", Email: "nope", Role: "admin", Tags: []string{"a", "b", "c"}, Rating: 9})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkg.ErrBadRequest))

	var verr *Error
	require.True(t, errors.As(err, &verr))

	byField := map[string]string{}
	for _, f := range verr.Fields {
		byField[f.Field] = f.Message
	}

	assert.Equal(t, "username must be at least 3 characters", byField["username"])
	assert.Equal(t, "email must be a valid email address", byField["email"])
	assert.Equal(t, "role must be one of: affiliate, advertiser, network", byField["role"])
	assert.Equal(t, "tags must be at most 2 items", byField["tags"])
	assert.Equal(t, "rating must be less than or equal to 5", byField["rating"])
}

func TestStruct_UsernameCharset(t *testing.T) {
	err := Struct(sample{Username: "bad name", Email: "a@b.co", Rating: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "letters, numbers and underscores")
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("reason", "spam", "required,max=10"))

	err := Var("reason", "", "required")
	require.Error(t, err)
	assert.Equal(t, "reason is required", err.Error())
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	err = Var("reason", "   ", "notblank")
	assert.Equal(t, "reason must not be blank", err.Error())
}
