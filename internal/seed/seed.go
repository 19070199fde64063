// Package seed generates sample feedback for local development and demos.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
)

// BatchSize is the number of records written per insert statement.
const BatchSize = 500

// Writer stores batches of feedback.
type Writer interface {
	CreateBatch(ctx context.Context, records []domain.Feedback) error
}

// Options controls what Generate produces.
type Options struct {
	Count int
	// Days spreads creation times uniformly over this many days before Now.
	Days int
	// GeneralShare is the fraction of records not tied to any product.
	GeneralShare float64
	Seed         uint64
	Now          time.Time
}

// ratingWeights skews sample ratings towards the positive end.
var ratingWeights = [domain.MaxRating + 1]int{0, 1, 1, 2, 3, 3}

var names = []string{
	"Ada", "Grace", "Linus", "Margaret", "Ken", "Barbara", "Dennis", "Frances",
	"Edsger", "Radia", "Niklaus", "Hedy", "Alan", "Joan", "Tim", "Katherine",
}

var bodies = [domain.MaxRating + 1][]string{
	1: {
		"Stopped working after a week.",
		"Not what was described at all.",
		"Arrived damaged and support never replied.",
	},
	2: {
		"Feels cheaper than the price suggests.",
		"Works, but setup was painful.",
		"Battery life is far below what was promised.",
	},
	3: {
		"Does the job, nothing special.",
		"Decent for the price.",
		"Some good ideas, some rough edges.",
	},
	4: {
		"Solid product, would buy again.",
		"Great value, minor issues with the manual.",
		"Works well and shipped quickly.",
	},
	5: {
		"Excellent, exceeded my expectations!",
		"Best purchase I made this year.",
		"Flawless from unboxing to daily use.",
	},
}

// Generate returns opts.Count deterministic sample records spread over the
// given products. The same options always produce the same records apart
// from their IDs.
func Generate(products []domain.Product, opts Options) []domain.Feedback {
	r := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	span := time.Duration(max(opts.Days, 1)) * 24 * time.Hour

	records := make([]domain.Feedback, 0, max(opts.Count, 0))
	for range opts.Count {
		rating := pickRating(r)
		name := names[r.IntN(len(names))]
		created := opts.Now.Add(-time.Duration(r.Int64N(int64(span)))).UTC().Truncate(time.Second)

		var productID string
		if len(products) > 0 && r.Float64() >= opts.GeneralShare {
			productID = products[r.IntN(len(products))].ID
		}

		choices := bodies[rating]
		records = append(records, domain.Feedback{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     fmt.Sprintf("%s.%d@example.com", strings.ToLower(name), r.IntN(1000)),
			Body:      choices[r.IntN(len(choices))],
			Rating:    rating,
			ProductID: productID,
			CreatedAt: created,
			UpdatedAt: created,
		})
	}
	return records
}

func pickRating(r *rand.Rand) int {
	total := 0
	for _, w := range ratingWeights {
		total += w
	}
	n := r.IntN(total)
	for rating, w := range ratingWeights {
		if n < w {
			return rating
		}
		n -= w
	}
	return domain.MaxRating
}

// Insert writes records in batches of BatchSize and returns how many were
// stored before any error.
func Insert(ctx context.Context, w Writer, records []domain.Feedback) (int, error) {
	stored := 0
	for start := 0; start < len(records); start += BatchSize {
		end := min(start+BatchSize, len(records))
		if err := w.CreateBatch(ctx, records[start:end]); err != nil {
			return stored, fmt.Errorf("insert batch at %d: %w", start, err)
		}
		stored = end
	}
	return stored, nil
}
