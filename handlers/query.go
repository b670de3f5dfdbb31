package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

// queryParser collects the first malformed query value. Callers read
// everything and check err once.
type queryParser struct {
	values url.Values
	err    error
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query()}
}

func (q *queryParser) str(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

func (q *queryParser) int(key string) int {
	raw := q.str(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(key)
		return 0
	}
	return n
}

func (q *queryParser) int64(key string) int64 {
	raw := q.str(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		q.fail(key)
		return 0
	}
	return n
}

func (q *queryParser) float(key string) float64 {
	f := q.floatPtr(key)
	if f == nil {
		return 0
	}
	return *f
}

func (q *queryParser) floatPtr(key string) *float64 {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.fail(key)
		return nil
	}
	return &f
}

func (q *queryParser) boolPtr(key string) *bool {
	raw := q.str(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(key)
		return nil
	}
	return &b
}

// page reads page and limit. Out-of-range values are clamped later by
// PageParams.Normalize.
func (q *queryParser) page() models.PageParams {
	return models.PageParams{Page: q.int("page"), Limit: q.int("limit")}
}

func (q *queryParser) fail(key string) {
	if q.err == nil {
		q.err = fmt.Errorf("%w: invalid %s", pkg.ErrBadRequest, key)
	}
}
