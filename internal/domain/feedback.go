package domain

import (
	"math"
	"time"

	apperrors "github.com/DJ-LIFE/feedback-tool/pkg/errors"
	"github.com/DJ-LIFE/feedback-tool/pkg/pagination"
)

// Rating bounds accepted for a feedback record.
const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is a single piece of product feedback as stored.
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Body      string    `json:"feedback"`
	Rating    int       `json:"rating"`
	ProductID string    `json:"product_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeedbackView is a Feedback with values derived at read time. The derived
// fields are never persisted.
type FeedbackView struct {
	Feedback
	PopularityScore      float64 `json:"popularity_score"`
	ProductAverageRating float64 `json:"product_avg_rating"`
}

// SortField selects the ordering key for a feedback listing.
type SortField string

const (
	SortByCreatedAt  SortField = "createdAt"
	SortByRating     SortField = "rating"
	SortByPopularity SortField = "popularity"
	SortByAvgRating  SortField = "avgRating"
)

// ParseSortField maps a query value to a SortField. Unknown or empty values
// fall back to SortByCreatedAt.
func ParseSortField(s string) SortField {
	switch f := SortField(s); f {
	case SortByRating, SortByPopularity, SortByAvgRating:
		return f
	default:
		return SortByCreatedAt
	}
}

// SortOrder is the direction of a listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder maps a query value to a SortOrder, defaulting to SortDesc.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == SortAsc {
		return SortAsc
	}
	return SortDesc
}

// FeedbackFilter describes one feedback listing request.
type FeedbackFilter struct {
	MinRating     *int
	MaxRating     *int
	ProductID     string
	MinPopularity *float64
	SortBy        SortField
	SortOrder     SortOrder
	Page          int
	Limit         int
}

// DefaultFeedbackFilter returns the newest-first first page.
func DefaultFeedbackFilter() FeedbackFilter {
	return FeedbackFilter{
		SortBy:    SortByCreatedAt,
		SortOrder: SortDesc,
		Page:      pagination.DefaultPage,
		Limit:     pagination.DefaultLimit,
	}
}

// Normalize replaces unknown sort settings with their defaults.
func (f FeedbackFilter) Normalize() FeedbackFilter {
	f.SortBy = ParseSortField(string(f.SortBy))
	f.SortOrder = ParseSortOrder(string(f.SortOrder))
	return f
}

// Validate rejects filters that cannot be executed.
func (f FeedbackFilter) Validate() error {
	if f.Limit <= 0 {
		return apperrors.InvalidInput("limit must be a positive integer")
	}
	if f.Page < 1 {
		return apperrors.InvalidInput("page must be at least 1")
	}
	for _, r := range []*int{f.MinRating, f.MaxRating} {
		if r != nil && (*r < MinRating || *r > MaxRating) {
			return apperrors.InvalidInput("rating bounds must be between 1 and 5")
		}
	}
	if f.MinRating != nil && f.MaxRating != nil && *f.MinRating > *f.MaxRating {
		return apperrors.InvalidInput("min_rating must not exceed max_rating")
	}
	if f.MinPopularity != nil && (math.IsNaN(*f.MinPopularity) || math.IsInf(*f.MinPopularity, 0)) {
		return apperrors.InvalidInput("min_popularity must be a finite number")
	}
	return nil
}

// NeedsComputedSort reports whether the listing depends on values derived at
// read time, which forces the whole filtered set to be materialized before
// paging.
func (f FeedbackFilter) NeedsComputedSort() bool {
	return f.SortBy == SortByPopularity || f.SortBy == SortByAvgRating || f.MinPopularity != nil
}

// Matches applies the rating range and product filters to one record.
func (f FeedbackFilter) Matches(fb Feedback) bool {
	if f.MinRating != nil && fb.Rating < *f.MinRating {
		return false
	}
	if f.MaxRating != nil && fb.Rating > *f.MaxRating {
		return false
	}
	if f.ProductID != "" && fb.ProductID != f.ProductID {
		return false
	}
	return true
}

// PageParams returns the page window of the filter.
func (f FeedbackFilter) PageParams() pagination.Params {
	return pagination.Params{Page: f.Page, Limit: f.Limit}
}

// FeedbackPage is one page of a feedback listing.
type FeedbackPage struct {
	Feedbacks  []FeedbackView  `json:"feedbacks"`
	Pagination pagination.Info `json:"pagination"`
}

// SubmitFeedbackInput holds the fields accepted when feedback is submitted.
type SubmitFeedbackInput struct {
	Name      string
	Email     string
	Body      string
	Rating    int
	ProductID string
}
