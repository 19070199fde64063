package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/DJ-LIFE/feedback-tool/internal/analytics"
	"github.com/DJ-LIFE/feedback-tool/internal/domain"
	"github.com/DJ-LIFE/feedback-tool/internal/repository"
	apperrors "github.com/DJ-LIFE/feedback-tool/pkg/errors"
	"github.com/DJ-LIFE/feedback-tool/pkg/pagination"
)

// DashboardListSize is the number of popular and recent records on the
// dashboard.
const DashboardListSize = 10

// AverageLookup returns product average ratings keyed by product ID.
type AverageLookup interface {
	AverageRatingsByProduct(ctx context.Context, productIDs []string) (map[string]float64, error)
}

// AverageCache is an AverageLookup whose entries can be dropped.
type AverageCache interface {
	AverageLookup
	Invalidate(ctx context.Context, productID string) error
}

// EventPublisher publishes feedback domain events.
type EventPublisher interface {
	PublishFeedbackSubmitted(ctx context.Context, f *domain.Feedback) error
}

// FeedbackOption configures optional FeedbackService collaborators.
type FeedbackOption func(*FeedbackService)

// WithAverageCache serves product averages through cache.
func WithAverageCache(cache AverageCache) FeedbackOption {
	return func(s *FeedbackService) { s.cache = cache }
}

// WithMetrics records domain metrics into m.
func WithMetrics(m *Metrics) FeedbackOption {
	return func(s *FeedbackService) { s.metrics = m }
}

// WithClock replaces the source of the evaluation instant.
func WithClock(now func() time.Time) FeedbackOption {
	return func(s *FeedbackService) { s.now = now }
}

// FeedbackService implements feedback submission, listing and statistics.
type FeedbackService struct {
	repo     repository.FeedbackRepository
	producer EventPublisher
	cache    AverageCache
	metrics  *Metrics
	now      func() time.Time
	logger   *slog.Logger
}

// NewFeedbackService creates a new feedback service. producer may be nil when
// events are disabled.
func NewFeedbackService(repo repository.FeedbackRepository, producer EventPublisher, logger *slog.Logger, opts ...FeedbackOption) *FeedbackService {
	s := &FeedbackService{
		repo:     repo,
		producer: producer,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitFeedback validates and stores a new feedback record.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, input domain.SubmitFeedbackInput) (*domain.Feedback, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, apperrors.InvalidInput("feedback is required")
	}
	if input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}

	now := s.now().UTC()
	f := &domain.Feedback{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Body:      body,
		Rating:    input.Rating,
		ProductID: strings.TrimSpace(input.ProductID),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, apperrors.StorageUnavailable("submit feedback", err)
	}
	s.metrics.feedbackSubmitted()

	if s.cache != nil && f.ProductID != "" {
		if err := s.cache.Invalidate(ctx, f.ProductID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate product average",
				slog.String("product_id", f.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.producer != nil {
		if err := s.producer.PublishFeedbackSubmitted(ctx, f); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish feedback.submitted event",
				slog.String("feedback_id", f.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "feedback submitted",
		slog.String("feedback_id", f.ID),
		slog.String("product_id", f.ProductID),
		slog.Int("rating", f.Rating),
	)

	return f, nil
}

// ListFeedback returns one page of feedback with derived values. Listings
// sorted by a stored column are paged by storage; listings that depend on a
// derived value load every matching record and page in memory.
func (s *FeedbackService) ListFeedback(ctx context.Context, filter domain.FeedbackFilter) (*domain.FeedbackPage, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter = filter.Normalize()
	now := s.now()

	if filter.NeedsComputedSort() {
		records, err := s.repo.ListAll(ctx, filter)
		if err != nil {
			return nil, apperrors.StorageUnavailable("fetch feedback", err)
		}
		averages, err := s.productAverages(ctx, records)
		if err != nil {
			return nil, err
		}
		s.metrics.queryServed(pathComputed)
		return analytics.RankComputed(records, filter, averages, now), nil
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.StorageUnavailable("fetch feedback", err)
	}
	averages, err := s.productAverages(ctx, records)
	if err != nil {
		return nil, err
	}
	s.metrics.queryServed(pathNative)
	return &domain.FeedbackPage{
		Feedbacks:  analytics.Decorate(records, averages, now),
		Pagination: pagination.NewInfo(total, filter.PageParams()),
	}, nil
}

// GetPopular returns the limit highest-scoring records, optionally only those
// scoring at least minPopularity. Every record is scored before the top ones
// are taken.
func (s *FeedbackService) GetPopular(ctx context.Context, limit int, minPopularity *float64) (*domain.FeedbackPage, error) {
	return s.ListFeedback(ctx, domain.FeedbackFilter{
		MinPopularity: minPopularity,
		SortBy:        domain.SortByPopularity,
		SortOrder:     domain.SortDesc,
		Page:          pagination.DefaultPage,
		Limit:         limit,
	})
}

// GetStats computes the statistics rollup, restricted to productID when it is
// not empty. Its storage reads run concurrently and any failure fails the
// whole rollup.
func (s *FeedbackService) GetStats(ctx context.Context, productID string) (*domain.StatsSummary, error) {
	start := time.Now()
	defer s.metrics.rollupFinished(start)

	scope := domain.FeedbackFilter{ProductID: productID}
	var parts analytics.RollupParts

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.Count(gctx, productID)
		parts.Total = n
		return err
	})
	g.Go(func() error {
		avg, err := s.repo.AverageRating(gctx, productID)
		parts.Mean = avg
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.RatingCounts(gctx, productID)
		parts.RatingCounts = counts
		return err
	})
	g.Go(func() error {
		recent, err := s.repo.Recent(gctx, productID, domain.TimelineWindow)
		parts.Recent = recent
		return err
	})
	g.Go(func() error {
		all, err := s.repo.ListAll(gctx, scope)
		parts.Scored = all
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.StorageUnavailable("compute feedback statistics", err)
	}

	return parts.Summary(s.now()), nil
}

// Dashboard returns the statistics rollup with the most popular and most
// recent feedback. It fails as a unit.
func (s *FeedbackService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	var (
		stats   *domain.StatsSummary
		popular *domain.FeedbackPage
		recent  []domain.Feedback
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.GetStats(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		popular, err = s.GetPopular(gctx, DashboardListSize, nil)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.repo.Recent(gctx, "", DashboardListSize)
		if err != nil {
			return apperrors.StorageUnavailable("fetch recent feedback", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		Stats:            stats,
		PopularFeedbacks: popular.Feedbacks,
		RecentFeedbacks:  recent,
	}, nil
}

// productAverages looks up the averages of the products records refer to in
// one batch.
func (s *FeedbackService) productAverages(ctx context.Context, records []domain.Feedback) (map[string]float64, error) {
	ids := analytics.ProductIDs(records)
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	var lookup AverageLookup = s.repo
	if s.cache != nil {
		lookup = s.cache
	}
	averages, err := lookup.AverageRatingsByProduct(ctx, ids)
	if err != nil {
		return nil, apperrors.StorageUnavailable("fetch product averages", err)
	}
	return averages, nil
}
