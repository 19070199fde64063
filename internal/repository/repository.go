package repository

import (
	"context"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
)

// FeedbackRepository defines the persistence operations the feedback engine
// reads from. Implementations apply the rating range and product filters of
// a domain.FeedbackFilter; derived values are never stored.
type FeedbackRepository interface {
	// Create inserts a new feedback record.
	Create(ctx context.Context, f *domain.Feedback) error

	// List returns one page of feedback matching the filter's hard filters,
	// sorted by a stored column, along with the number of matching records.
	List(ctx context.Context, filter domain.FeedbackFilter) ([]domain.Feedback, int, error)

	// ListAll returns every record matching the filter's hard filters, newest
	// first, ignoring its page window.
	ListAll(ctx context.Context, filter domain.FeedbackFilter) ([]domain.Feedback, error)

	// Count returns the number of records, restricted to productID when set.
	Count(ctx context.Context, productID string) (int, error)

	// AverageRating returns the unrounded mean rating, restricted to
	// productID when set. An empty set averages 0.
	AverageRating(ctx context.Context, productID string) (float64, error)

	// RatingCounts returns the number of records per rating.
	RatingCounts(ctx context.Context, productID string) (map[int]int, error)

	// Recent returns at most n records, newest first.
	Recent(ctx context.Context, productID string, n int) ([]domain.Feedback, error)

	// AverageRatingsByProduct returns the rounded mean rating of each of the
	// given products in a single grouped query. Products without feedback
	// are absent from the result.
	AverageRatingsByProduct(ctx context.Context, productIDs []string) (map[string]float64, error)

	// ProductRatings returns the feedback count and unrounded mean rating of
	// every product with associated feedback.
	ProductRatings(ctx context.Context) ([]domain.ProductRating, error)
}

// AdminRepository defines persistence for dashboard accounts.
type AdminRepository interface {
	// Create inserts a new admin.
	Create(ctx context.Context, admin *domain.Admin) error

	// GetByID retrieves an admin by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Admin, error)

	// FindByUsernameOrEmail retrieves the admin whose username or email
	// equals identifier.
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*domain.Admin, error)

	// Exists reports whether an admin already uses username or email.
	Exists(ctx context.Context, username, email string) (bool, error)
}
