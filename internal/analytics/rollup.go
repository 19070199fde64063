package analytics

import (
	"slices"
	"time"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
)

// timelineDateLayout formats timeline buckets as UTC calendar dates.
const timelineDateLayout = "2006-01-02"

// RollupParts are the independent aggregates a statistics rollup is built
// from. They can be computed in memory or fetched from storage.
type RollupParts struct {
	// Total is the number of records in scope.
	Total int
	// Mean is the unrounded mean rating of the records in scope.
	Mean float64
	// RatingCounts maps a rating to its number of records.
	RatingCounts map[int]int
	// Recent holds at most TimelineWindow records, newest first.
	Recent []domain.Feedback
	// Scored holds every record in scope for the popularity count.
	Scored []domain.Feedback
}

// Summary assembles the rollup at instant now.
func (p RollupParts) Summary(now time.Time) *domain.StatsSummary {
	dist := domain.NewRatingDistribution()
	for rating, n := range p.RatingCounts {
		if _, ok := dist[rating]; ok {
			dist[rating] += n
		}
	}

	avg := 0.0
	if p.Total > 0 {
		avg = Round2(p.Mean)
	}

	popular := 0
	for _, r := range p.Scored {
		if Score(r, now) > domain.PopularityThreshold {
			popular++
		}
	}

	return &domain.StatsSummary{
		TotalFeedbacks:        p.Total,
		AverageRating:         avg,
		RatingDistribution:    dist,
		Timeline:              Timeline(p.Recent),
		PopularFeedbacksCount: popular,
	}
}

// Timeline groups records by the UTC date they were created on. The average
// for each date is re-rounded after every record is added.
func Timeline(records []domain.Feedback) map[string]domain.TimelinePoint {
	type running struct{ count, sum int }
	acc := make(map[string]*running)
	out := make(map[string]domain.TimelinePoint)

	for _, r := range records {
		date := r.CreatedAt.UTC().Format(timelineDateLayout)
		a, ok := acc[date]
		if !ok {
			a = &running{}
			acc[date] = a
		}
		a.count++
		a.sum += r.Rating
		out[date] = domain.TimelinePoint{
			Count:     a.count,
			AvgRating: Round2(float64(a.sum) / float64(a.count)),
		}
	}
	return out
}

// Summarize computes the statistics rollup over records, restricted to
// productID when it is not empty.
func Summarize(records []domain.Feedback, productID string, now time.Time) *domain.StatsSummary {
	return CollectParts(records, productID).Summary(now)
}

// CollectParts derives RollupParts from an in-memory collection.
func CollectParts(records []domain.Feedback, productID string) RollupParts {
	filter := domain.FeedbackFilter{ProductID: productID}
	scoped := make([]domain.Feedback, 0, len(records))
	counts := make(map[int]int)
	sum := 0
	for _, r := range records {
		if !filter.Matches(r) {
			continue
		}
		scoped = append(scoped, r)
		counts[r.Rating]++
		sum += r.Rating
	}

	mean := 0.0
	if len(scoped) > 0 {
		mean = float64(sum) / float64(len(scoped))
	}

	recent := slices.Clone(scoped)
	SortStored(recent, domain.SortByCreatedAt, domain.SortDesc)
	if len(recent) > domain.TimelineWindow {
		recent = recent[:domain.TimelineWindow]
	}

	return RollupParts{
		Total:        len(scoped),
		Mean:         mean,
		RatingCounts: counts,
		Recent:       recent,
		Scored:       scoped,
	}
}
