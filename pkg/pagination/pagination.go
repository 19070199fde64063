package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	// DefaultPage is the page used when the request does not specify one.
	DefaultPage = 1
	// DefaultLimit is the page size used when the request does not specify one.
	DefaultLimit = 10
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// DefaultParams returns the default first page.
func DefaultParams() Params {
	return Params{
		Page:  DefaultPage,
		Limit: DefaultLimit,
	}
}

// FromRequest extracts page and limit from the query string. Absent values
// fall back to DefaultPage and defaultLimit. Values that are present but not
// integers are rejected; range checks are left to the caller so that an
// explicit limit=0 can be reported as a validation error.
func FromRequest(r *http.Request, defaultLimit int) (Params, error) {
	p := Params{Page: DefaultPage, Limit: defaultLimit}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}

	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, fmt.Errorf("page must be an integer: %q", v)
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, fmt.Errorf("limit must be an integer: %q", v)
		}
		p.Limit = n
	}

	return p, nil
}

// Offset returns the number of items skipped before this page.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Window returns the [start, end) bounds of this page within a list of n
// items. Pages past the end yield an empty window.
func (p Params) Window(n int) (int, int) {
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}

// Info is the pagination metadata returned alongside a page of results.
type Info struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewInfo builds pagination metadata. Limit must be positive.
func NewInfo(total int, params Params) Info {
	totalPages := total / params.Limit
	if total%params.Limit > 0 {
		totalPages++
	}

	return Info{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
