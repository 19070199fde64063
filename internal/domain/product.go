package domain

// Product is an entry of the static product catalog.
type Product struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Category    string  `json:"category" yaml:"category"`
	Price       float64 `json:"price" yaml:"price"`
	Image       string  `json:"image" yaml:"image"`
}

// ProductRating is the stored feedback aggregate for one product.
type ProductRating struct {
	ProductID string
	Count     int
	Average   float64
}

// ProductFeedbackSummary is a catalog product with its feedback aggregate.
type ProductFeedbackSummary struct {
	Product
	FeedbackCount int     `json:"feedback_count"`
	AvgRating     float64 `json:"avg_rating"`
}
