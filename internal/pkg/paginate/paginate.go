package paginate

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultLimit = 25
	maxLimit     = 100
)

// Params are the generic list-query parameters shared by list endpoints:
// ?page=2&limit=25&sort=-created&search=vaccine
type Params struct {
	Page   int
	Limit  int
	Sort   string // field name; "-" prefix means descending
	Search string
}

// Meta describes the returned page, echoed back in the response envelope.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Parse extracts Params from a query string, clamping page and limit to
// sane values.
func Parse(q url.Values) Params {
	p := Params{
		Page:   1,
		Limit:  defaultLimit,
		Sort:   q.Get("sort"),
		Search: strings.TrimSpace(q.Get("search")),
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.Limit = n
		if p.Limit > maxLimit {
			p.Limit = maxLimit
		}
	}
	return p
}

// Descending reports whether the sort field requests descending order, and
// returns the bare field name.
func (p Params) Descending() (field string, desc bool) {
	if strings.HasPrefix(p.Sort, "-") {
		return strings.TrimPrefix(p.Sort, "-"), true
	}
	return p.Sort, false
}

// Slice cuts one page out of an already filtered and sorted slice.
func Slice[T any](items []T, p Params) ([]T, Meta) {
	total := len(items)
	meta := Meta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: 1}
	if p.Limit > 0 {
		meta.TotalPages = (total + p.Limit - 1) / p.Limit
		if meta.TotalPages == 0 {
			meta.TotalPages = 1
		}
	}
	start := (p.Page - 1) * p.Limit
	if start >= total {
		return []T{}, meta
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return items[start:end], meta
}
