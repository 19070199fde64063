package domain

// PopularityThreshold is the score above which feedback counts as popular.
const PopularityThreshold = 3.0

// TimelineWindow is the number of most recent records the timeline covers.
const TimelineWindow = 30

// TimelinePoint aggregates the feedback created on one UTC day.
type TimelinePoint struct {
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

// StatsSummary is the statistics rollup over a feedback collection.
type StatsSummary struct {
	TotalFeedbacks        int                      `json:"total_feedbacks"`
	AverageRating         float64                  `json:"average_rating"`
	RatingDistribution    map[int]int              `json:"rating_distribution"`
	Timeline              map[string]TimelinePoint `json:"timeline"`
	PopularFeedbacksCount int                      `json:"popular_feedbacks_count"`
}

// NewRatingDistribution returns a histogram with every rating bucket present.
func NewRatingDistribution() map[int]int {
	dist := make(map[int]int, MaxRating-MinRating+1)
	for r := MinRating; r <= MaxRating; r++ {
		dist[r] = 0
	}
	return dist
}

// Dashboard is the combined admin overview.
type Dashboard struct {
	Stats            *StatsSummary  `json:"stats"`
	PopularFeedbacks []FeedbackView `json:"popular_feedbacks"`
	RecentFeedbacks  []Feedback     `json:"recent_feedbacks"`
}
