package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
	"github.com/DJ-LIFE/feedback-tool/pkg/pagination"
)

// Decorate derives the popularity score and product average for each record.
// averages is keyed by product ID; products missing from it average 0.
func Decorate(records []domain.Feedback, averages map[string]float64, now time.Time) []domain.FeedbackView {
	views := make([]domain.FeedbackView, len(records))
	for i, r := range records {
		views[i] = domain.FeedbackView{
			Feedback:             r,
			PopularityScore:      Score(r, now),
			ProductAverageRating: averages[r.ProductID],
		}
	}
	return views
}

// Query runs a feedback listing in memory over records, which may be the
// whole collection. averages supplies product averages computed over all
// feedback; when nil they are computed from records.
//
// Listings sorted by creation time or rating are sorted and paged directly.
// Listings that sort on, or filter by, a derived value materialize every
// matching record, derive its values, filter and sort, and only then slice
// the page.
func Query(records []domain.Feedback, filter domain.FeedbackFilter, averages map[string]float64, now time.Time) (*domain.FeedbackPage, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter = filter.Normalize()
	if averages == nil {
		averages = AverageRatingsByProduct(records)
	}

	matched := make([]domain.Feedback, 0, len(records))
	for _, r := range records {
		if filter.Matches(r) {
			matched = append(matched, r)
		}
	}

	if filter.NeedsComputedSort() {
		return RankComputed(matched, filter, averages, now), nil
	}

	SortStored(matched, filter.SortBy, filter.SortOrder)
	params := filter.PageParams()
	start, end := params.Window(len(matched))
	return &domain.FeedbackPage{
		Feedbacks:  Decorate(matched[start:end], averages, now),
		Pagination: pagination.NewInfo(len(matched), params),
	}, nil
}

// RankComputed pages through records that already satisfy the filter's
// rating and product constraints using derived values. The filter must be
// valid and normalized. Records are first put in storage order (newest
// first) so that ties in the requested key keep that order.
func RankComputed(records []domain.Feedback, filter domain.FeedbackFilter, averages map[string]float64, now time.Time) *domain.FeedbackPage {
	ordered := slices.Clone(records)
	SortStored(ordered, domain.SortByCreatedAt, domain.SortDesc)
	views := Decorate(ordered, averages, now)

	if filter.MinPopularity != nil {
		floor := *filter.MinPopularity
		views = slices.DeleteFunc(views, func(v domain.FeedbackView) bool {
			return v.PopularityScore < floor
		})
	}

	compare := compareViews(filter.SortBy)
	slices.SortStableFunc(views, func(a, b domain.FeedbackView) int {
		c := compare(a, b)
		if filter.SortOrder == domain.SortDesc {
			return -c
		}
		return c
	})

	params := filter.PageParams()
	start, end := params.Window(len(views))
	return &domain.FeedbackPage{
		Feedbacks:  slices.Clip(views[start:end]),
		Pagination: pagination.NewInfo(len(views), params),
	}
}

func compareViews(field domain.SortField) func(a, b domain.FeedbackView) int {
	switch field {
	case domain.SortByPopularity:
		return func(a, b domain.FeedbackView) int { return cmp.Compare(a.PopularityScore, b.PopularityScore) }
	case domain.SortByAvgRating:
		return func(a, b domain.FeedbackView) int { return cmp.Compare(a.ProductAverageRating, b.ProductAverageRating) }
	case domain.SortByRating:
		return func(a, b domain.FeedbackView) int { return cmp.Compare(a.Rating, b.Rating) }
	default:
		return func(a, b domain.FeedbackView) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// SortStored orders records the way the feedback store does for a stored
// column: by the column in the given direction, then by ID in the same
// direction.
func SortStored(records []domain.Feedback, field domain.SortField, order domain.SortOrder) {
	slices.SortFunc(records, func(a, b domain.Feedback) int {
		var c int
		if field == domain.SortByRating {
			c = cmp.Compare(a.Rating, b.Rating)
		} else {
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if order == domain.SortDesc {
			return -c
		}
		return c
	})
}
