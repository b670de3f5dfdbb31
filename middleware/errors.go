package middleware

import (
	"fmt"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

var (
	errUserGone = fmt.Errorf("%w: user not found", pkg.ErrUnauthorized)
	errBanned   = fmt.Errorf("%w: account is banned", pkg.ErrForbidden)
)
