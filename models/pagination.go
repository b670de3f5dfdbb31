package models

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageParams are the page/limit query parameters shared by list endpoints.
type PageParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize clamps page to >= 1 and limit to 1..MaxPageLimit, defaulting
// to DefaultPageLimit.
func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
}

// Offset is the SQL OFFSET for the current page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of a list result.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// NewPage assembles a Page. A nil items slice is encoded as [].
func NewPage[T any](items []T, total int, p PageParams) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
	}
}
