package analytics

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
	apperrors "github.com/DJ-LIFE/feedback-tool/pkg/errors"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return now.Add(-time.Duration(d * 24 * float64(time.Hour)))
}

func feedback(id string, rating int, ageDays float64, productID string) domain.Feedback {
	created := daysAgo(ageDays)
	return domain.Feedback{
		ID:        id,
		Body:      "feedback " + id,
		Rating:    rating,
		ProductID: productID,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func ids(views []domain.FeedbackView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

// --- Score ---

func TestScore_RecencyVanishesAfterThirtyDays(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		for _, age := range []float64{30, 31.5, 45, 400} {
			got := Score(feedback("f", rating, age, ""), now)
			assert.Equal(t, Round2(float64(rating)*0.6), got, "rating=%d age=%v", rating, age)
		}
	}
}

func TestScore_BrandNewFiveStar(t *testing.T) {
	assert.Equal(t, 3.4, Score(feedback("f", 5, 0, ""), now))
}

func TestScore_FortyDayOldThreeStar(t *testing.T) {
	assert.Equal(t, 1.8, Score(feedback("f", 3, 40, ""), now))
}

func TestScore_FutureTimestampTreatedAsNew(t *testing.T) {
	future := feedback("f", 2, -3, "")
	assert.Equal(t, Score(feedback("g", 2, 0, ""), now), Score(future, now))
	assert.Equal(t, 1.6, Score(future, now))
}

func TestScore_NonNegativeAndNonIncreasingWithAge(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		prev := math.Inf(1)
		for age := 0.0; age <= 40; age += 0.5 {
			s := Score(feedback("f", rating, age, ""), now)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, prev, "rating=%d age=%v", rating, age)
			prev = s
		}
	}
}

func TestScore_HalfWindow(t *testing.T) {
	// 4*0.6 + (15/30)*0.4 = 2.6
	assert.Equal(t, 2.6, Score(feedback("f", 4, 15, ""), now))
}

// --- Averages ---

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 0.0, AverageRating([]domain.Feedback{}))

	records := []domain.Feedback{
		feedback("a", 5, 1, "1"),
		feedback("b", 4, 1, "1"),
		feedback("c", 4, 1, "1"),
	}
	assert.Equal(t, 4.33, AverageRating(records))
}

func TestAverageRatingsByProduct(t *testing.T) {
	records := []domain.Feedback{
		feedback("a", 5, 1, "1"),
		feedback("b", 2, 1, "1"),
		feedback("c", 3, 1, "2"),
		feedback("d", 1, 1, ""),
	}

	got := AverageRatingsByProduct(records)
	assert.Equal(t, map[string]float64{"1": 3.5, "2": 3}, got)
	assert.Equal(t, []string{"1", "2"}, ProductIDs(records))
}

// --- Query ---

func TestQuery_EmptyCollection(t *testing.T) {
	page, err := Query(nil, domain.DefaultFeedbackFilter(), nil, now)
	require.NoError(t, err)

	assert.Empty(t, page.Feedbacks)
	assert.Equal(t, 0, page.Pagination.Total)
	assert.Equal(t, 0, page.Pagination.TotalPages)
}

func TestQuery_RejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		f := domain.DefaultFeedbackFilter()
		f.Limit = limit
		_, err := Query([]domain.Feedback{feedback("a", 3, 1, "")}, f, nil, now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

// ratingRangeFixture builds 20 records, newest first, of which the 15 with
// even index or index >= 10 have a rating in [3,5].
func ratingRangeFixture() []domain.Feedback {
	var records []domain.Feedback
	for i := 0; i < 20; i++ {
		rating := 3 + i%3
		if i < 10 && i%2 == 1 {
			rating = 1 + i%2
		}
		records = append(records, feedback(fmt.Sprintf("f%02d", i), rating, float64(i), "1"))
	}
	return records
}

func TestQuery_RatingRangeSecondPage(t *testing.T) {
	records := ratingRangeFixture()

	var matching []string
	for _, r := range records {
		if r.Rating >= 3 {
			matching = append(matching, r.ID)
		}
	}
	require.Len(t, matching, 15)

	f := domain.DefaultFeedbackFilter()
	f.MinRating, f.MaxRating = intPtr(3), intPtr(5)
	f.Page = 2

	page, err := Query(records, f, nil, now)
	require.NoError(t, err)

	assert.Equal(t, matching[10:15], ids(page.Feedbacks))
	assert.Equal(t, 15, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
}

func TestQuery_PageBeyondRange(t *testing.T) {
	f := domain.DefaultFeedbackFilter()
	f.Page = 9

	page, err := Query(ratingRangeFixture(), f, nil, now)
	require.NoError(t, err)

	assert.Empty(t, page.Feedbacks)
	assert.Equal(t, 20, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestQuery_PopularityWithMinimum(t *testing.T) {
	records := ratingRangeFixture()
	f := domain.DefaultFeedbackFilter()
	f.SortBy = domain.SortByPopularity
	f.MinPopularity = floatPtr(2.0)
	f.Limit = 100

	page, err := Query(records, f, nil, now)
	require.NoError(t, err)
	require.NotEmpty(t, page.Feedbacks)

	expected := 0
	for _, r := range records {
		if Score(r, now) >= 2.0 {
			expected++
		}
	}
	assert.Equal(t, expected, page.Pagination.Total)
	assert.Len(t, page.Feedbacks, expected)

	for i, v := range page.Feedbacks {
		assert.GreaterOrEqual(t, v.PopularityScore, 2.0)
		if i > 0 {
			assert.LessOrEqual(t, v.PopularityScore, page.Feedbacks[i-1].PopularityScore)
		}
	}
}

func TestQuery_ComputedPathPagesAfterFiltering(t *testing.T) {
	records := ratingRangeFixture()
	f := domain.DefaultFeedbackFilter()
	f.MinPopularity = floatPtr(2.5)
	f.Limit = 3

	all, err := Query(records, domain.FeedbackFilter{
		MinPopularity: f.MinPopularity, Page: 1, Limit: 100,
	}, nil, now)
	require.NoError(t, err)

	page, err := Query(records, f, nil, now)
	require.NoError(t, err)

	assert.Equal(t, all.Pagination.Total, page.Pagination.Total)
	assert.Equal(t, ids(all.Feedbacks)[:3], ids(page.Feedbacks))
	// Newest first when sorted by creation time.
	for i := 1; i < len(page.Feedbacks); i++ {
		assert.True(t, page.Feedbacks[i-1].CreatedAt.After(page.Feedbacks[i].CreatedAt))
	}
}

func TestQuery_PopularityTiesKeepNewestFirst(t *testing.T) {
	// All older than 30 days with equal ratings: identical scores.
	records := []domain.Feedback{
		feedback("old", 4, 60, ""),
		feedback("newer", 4, 35, ""),
		feedback("middle", 4, 45, ""),
	}
	f := domain.DefaultFeedbackFilter()
	f.SortBy = domain.SortByPopularity

	page, err := Query(records, f, nil, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"newer", "middle", "old"}, ids(page.Feedbacks))
}

func TestQuery_AvgRatingUsesWholeProductHistory(t *testing.T) {
	records := []domain.Feedback{
		feedback("p1-high", 5, 1, "1"),
		feedback("p1-low", 1, 2, "1"),
		feedback("p2-high", 4, 3, "2"),
		feedback("p2-also", 4, 4, "2"),
	}
	f := domain.DefaultFeedbackFilter()
	f.MinRating = intPtr(4)
	f.SortBy = domain.SortByAvgRating

	page, err := Query(records, f, nil, now)
	require.NoError(t, err)

	require.Len(t, page.Feedbacks, 3)
	assert.Equal(t, []string{"p2-high", "p2-also", "p1-high"}, ids(page.Feedbacks))
	assert.Equal(t, 3.0, page.Feedbacks[2].ProductAverageRating)
}

func TestQuery_AscendingRatingBreaksTiesByID(t *testing.T) {
	records := []domain.Feedback{
		feedback("b", 3, 1, ""),
		feedback("c", 1, 2, ""),
		feedback("a", 3, 3, ""),
	}
	f := domain.DefaultFeedbackFilter()
	f.SortBy = domain.SortByRating
	f.SortOrder = domain.SortAsc

	page, err := Query(records, f, nil, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(page.Feedbacks))
}

func TestQuery_UnknownSortFallsBackToNewestFirst(t *testing.T) {
	records := []domain.Feedback{
		feedback("old", 5, 10, ""),
		feedback("new", 1, 1, ""),
	}
	f := domain.DefaultFeedbackFilter()
	f.SortBy = "views"
	f.SortOrder = ""

	page, err := Query(records, f, nil, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids(page.Feedbacks))
}

// --- Rollup ---

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, "", now)

	assert.Equal(t, 0, s.TotalFeedbacks)
	assert.Equal(t, 0.0, s.AverageRating)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, s.RatingDistribution)
	assert.Empty(t, s.Timeline)
	assert.Equal(t, 0, s.PopularFeedbacksCount)
}

func TestSummarize_HistogramHasFiveKeysSummingToTotal(t *testing.T) {
	records := []domain.Feedback{
		feedback("a", 5, 1, "1"),
		feedback("b", 5, 2, "1"),
		feedback("c", 2, 3, "2"),
	}

	for _, product := range []string{"", "1", "2", "missing"} {
		s := Summarize(records, product, now)
		require.Len(t, s.RatingDistribution, 5)
		sum := 0
		for rating := 1; rating <= 5; rating++ {
			n, ok := s.RatingDistribution[rating]
			require.True(t, ok)
			sum += n
		}
		assert.Equal(t, s.TotalFeedbacks, sum, "product=%q", product)
	}

	s := Summarize(records, "1", now)
	assert.Equal(t, 2, s.TotalFeedbacks)
	assert.Equal(t, 5.0, s.AverageRating)
	assert.Equal(t, 2, s.RatingDistribution[5])
}

func TestSummarize_TimelineCoversThirtyMostRecent(t *testing.T) {
	var records []domain.Feedback
	for i := 0; i < 35; i++ {
		records = append(records, feedback(fmt.Sprintf("f%02d", i), 1+i%5, float64(i), ""))
	}

	s := Summarize(records, "", now)

	count := 0
	for _, p := range s.Timeline {
		count += p.Count
	}
	assert.Equal(t, domain.TimelineWindow, count)
	assert.Equal(t, 35, s.TotalFeedbacks)

	_, hasOldest := s.Timeline[daysAgo(34).UTC().Format("2006-01-02")]
	assert.False(t, hasOldest)
}

func TestTimeline_PerDayAverage(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	records := []domain.Feedback{
		{ID: "a", Rating: 5, CreatedAt: day.Add(1 * time.Hour)},
		{ID: "b", Rating: 4, CreatedAt: day.Add(2 * time.Hour)},
		{ID: "c", Rating: 4, CreatedAt: day.Add(3 * time.Hour)},
		// 23:30 in UTC-5 is the next day in UTC.
		{ID: "d", Rating: 1, CreatedAt: time.Date(2026, 3, 10, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))},
	}

	tl := Timeline(records)
	assert.Equal(t, domain.TimelinePoint{Count: 3, AvgRating: 4.33}, tl["2026-03-10"])
	assert.Equal(t, domain.TimelinePoint{Count: 1, AvgRating: 1}, tl["2026-03-11"])
}

func TestSummarize_PopularCountUsesFullSet(t *testing.T) {
	var records []domain.Feedback
	// 30 newest are one-star and fill the timeline window.
	for i := 0; i < 30; i++ {
		records = append(records, feedback(fmt.Sprintf("new%02d", i), 1, float64(i)*0.25, ""))
	}
	// 10 older five-star records still inside the recency window.
	for i := 0; i < 10; i++ {
		records = append(records, feedback(fmt.Sprintf("old%02d", i), 5, 10+float64(i), ""))
	}
	// Five-star but past the recency window: exactly 3.0, not popular.
	records = append(records, feedback("stale", 5, 45, ""))

	s := Summarize(records, "", now)

	assert.Equal(t, 10, s.PopularFeedbacksCount)
	for _, p := range s.Timeline {
		assert.Equal(t, 1.0, p.AvgRating)
	}
}

func TestSummarize_Idempotent(t *testing.T) {
	records := ratingRangeFixture()
	first := Summarize(records, "", now)
	second := Summarize(records, "", now)
	assert.Equal(t, first, second)
}

func TestRollupParts_IgnoresOutOfRangeRatings(t *testing.T) {
	parts := RollupParts{Total: 2, Mean: 3.456, RatingCounts: map[int]int{3: 1, 4: 1, 9: 4}}
	s := parts.Summary(now)

	assert.Len(t, s.RatingDistribution, 5)
	assert.Equal(t, 3.46, s.AverageRating)
}
