package analytics

import "github.com/DJ-LIFE/feedback-tool/internal/domain"

// AverageRating is the mean rating of records rounded to two decimals, or 0
// for an empty set.
func AverageRating(records []domain.Feedback) float64 {
	if len(records) == 0 {
		return 0
	}
	sum := 0
	for _, r := range records {
		sum += r.Rating
	}
	return Round2(float64(sum) / float64(len(records)))
}

// AverageRatingsByProduct computes AverageRating for every product that
// appears in records in a single pass. Unassociated records are ignored.
func AverageRatingsByProduct(records []domain.Feedback) map[string]float64 {
	type acc struct{ sum, n int }
	byProduct := make(map[string]*acc)
	for _, r := range records {
		if r.ProductID == "" {
			continue
		}
		a, ok := byProduct[r.ProductID]
		if !ok {
			a = &acc{}
			byProduct[r.ProductID] = a
		}
		a.sum += r.Rating
		a.n++
	}

	out := make(map[string]float64, len(byProduct))
	for id, a := range byProduct {
		out[id] = Round2(float64(a.sum) / float64(a.n))
	}
	return out
}

// ProductIDs returns the distinct non-empty product IDs of records in first
// seen order.
func ProductIDs(records []domain.Feedback) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, r := range records {
		if r.ProductID == "" {
			continue
		}
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		ids = append(ids, r.ProductID)
	}
	return ids
}
