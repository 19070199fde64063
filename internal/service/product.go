package service

import (
	"context"
	"log/slog"

	"github.com/DJ-LIFE/feedback-tool/internal/analytics"
	"github.com/DJ-LIFE/feedback-tool/internal/catalog"
	"github.com/DJ-LIFE/feedback-tool/internal/domain"
	apperrors "github.com/DJ-LIFE/feedback-tool/pkg/errors"
)

// ProductRatingSource returns stored feedback aggregates per product.
type ProductRatingSource interface {
	ProductRatings(ctx context.Context) ([]domain.ProductRating, error)
}

// ProductService serves the product catalog and its feedback aggregates.
type ProductService struct {
	catalog *catalog.Catalog
	ratings ProductRatingSource
	logger  *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(c *catalog.Catalog, ratings ProductRatingSource, logger *slog.Logger) *ProductService {
	return &ProductService{
		catalog: c,
		ratings: ratings,
		logger:  logger,
	}
}

// ListProducts returns every catalog product.
func (s *ProductService) ListProducts() []domain.Product {
	return s.catalog.All()
}

// GetProduct returns one product by ID.
func (s *ProductService) GetProduct(id string) (*domain.Product, error) {
	p, ok := s.catalog.Get(id)
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

// ListByCategory returns the products in category, matched
// case-insensitively. An unknown category is not found.
func (s *ProductService) ListByCategory(category string) ([]domain.Product, error) {
	products := s.catalog.ByCategory(category)
	if len(products) == 0 {
		return nil, apperrors.NotFound("category", category)
	}
	return products, nil
}

// ListWithFeedback returns every catalog product with its feedback count and
// average rating rounded to one decimal, from a single grouped aggregate.
func (s *ProductService) ListWithFeedback(ctx context.Context) ([]domain.ProductFeedbackSummary, error) {
	ratings, err := s.ratings.ProductRatings(ctx)
	if err != nil {
		return nil, apperrors.StorageUnavailable("fetch product ratings", err)
	}

	byProduct := make(map[string]domain.ProductRating, len(ratings))
	for _, r := range ratings {
		byProduct[r.ProductID] = r
	}

	products := s.catalog.All()
	out := make([]domain.ProductFeedbackSummary, len(products))
	for i, p := range products {
		r := byProduct[p.ID]
		out[i] = domain.ProductFeedbackSummary{
			Product:       p,
			FeedbackCount: r.Count,
			AvgRating:     analytics.Round1(r.Average),
		}
	}
	return out, nil
}
