package postgres

import (
	"context"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
	"github.com/DJ-LIFE/feedback-tool/pkg/database"
)

const feedbackTable = "feedbacks"

var feedbackColumns = []string{
	"id", "name", "email", "body", "rating", "product_id", "created_at", "updated_at",
}

var feedbackColumnsWithCount = slices.Concat(feedbackColumns, []string{"count(*) OVER() AS total_count"})

// FeedbackRepository implements repository.FeedbackRepository using PostgreSQL.
type FeedbackRepository struct {
	pool database.DBTX
}

// NewFeedbackRepository creates a new PostgreSQL-backed feedback repository.
func NewFeedbackRepository(pool database.DBTX) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Create inserts a new feedback record.
func (r *FeedbackRepository) Create(ctx context.Context, f *domain.Feedback) (err error) {
	query, args, err := psql.Insert(feedbackTable).
		Columns(feedbackColumns...).
		Values(f.ID, f.Name, f.Email, f.Body, f.Rating, f.ProductID, f.CreatedAt, f.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert feedback: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "CreateFeedback", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// CreateBatch inserts records with a single multi-row statement. An empty
// batch is a no-op.
func (r *FeedbackRepository) CreateBatch(ctx context.Context, records []domain.Feedback) (err error) {
	if len(records) == 0 {
		return nil
	}

	b := psql.Insert(feedbackTable).Columns(feedbackColumns...)
	for _, f := range records {
		b = b.Values(f.ID, f.Name, f.Email, f.Body, f.Rating, f.ProductID, f.CreatedAt, f.UpdatedAt)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build batch insert feedback: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "CreateFeedbackBatch", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("batch insert %d feedback: %w", len(records), err)
	}
	return nil
}

// List returns one page sorted by created_at or rating, ties broken by id in
// the same direction. The total comes from a window count in the same
// statement; a page past the end falls back to a separate count.
func (r *FeedbackRepository) List(ctx context.Context, filter domain.FeedbackFilter) (_ []domain.Feedback, _ int, err error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}
	filter = filter.Normalize()
	params := filter.PageParams()

	column := "created_at"
	if filter.SortBy == domain.SortByRating {
		column = "rating"
	}
	direction := "DESC"
	if filter.SortOrder == domain.SortAsc {
		direction = "ASC"
	}

	query, args, err := hardFilters(psql.Select(feedbackColumnsWithCount...).From(feedbackTable), filter).
		OrderBy(column+" "+direction, "id "+direction).
		Limit(uint64(params.Limit)).
		Offset(uint64(params.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list feedback: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "ListFeedback", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var (
		records    []domain.Feedback
		totalCount int
	)
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(
			&f.ID,
			&f.Name,
			&f.Email,
			&f.Body,
			&f.Rating,
			&f.ProductID,
			&f.CreatedAt,
			&f.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan feedback row: %w", err)
		}
		records = append(records, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate feedback rows: %w", err)
	}

	if records == nil {
		records = []domain.Feedback{}
		if params.Offset() > 0 {
			if totalCount, err = r.count(ctx, filter); err != nil {
				return nil, 0, err
			}
		}
	}

	return records, totalCount, nil
}

// ListAll returns every record matching the hard filters, newest first.
func (r *FeedbackRepository) ListAll(ctx context.Context, filter domain.FeedbackFilter) ([]domain.Feedback, error) {
	b := hardFilters(psql.Select(feedbackColumns...).From(feedbackTable), filter).
		OrderBy("created_at DESC", "id DESC")
	return r.selectFeedback(ctx, "ListAllFeedback", b)
}

// Recent returns at most n records, newest first.
func (r *FeedbackRepository) Recent(ctx context.Context, productID string, n int) ([]domain.Feedback, error) {
	if n <= 0 {
		return []domain.Feedback{}, nil
	}
	b := hardFilters(psql.Select(feedbackColumns...).From(feedbackTable), domain.FeedbackFilter{ProductID: productID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(n))
	return r.selectFeedback(ctx, "RecentFeedback", b)
}

// Count returns the number of records, restricted to productID when set.
func (r *FeedbackRepository) Count(ctx context.Context, productID string) (int, error) {
	return r.count(ctx, domain.FeedbackFilter{ProductID: productID})
}

// AverageRating returns the unrounded mean rating, or 0 for no records.
func (r *FeedbackRepository) AverageRating(ctx context.Context, productID string) (avg float64, err error) {
	query, args, err := hardFilters(
		psql.Select("COALESCE(AVG(rating), 0)::float8").From(feedbackTable),
		domain.FeedbackFilter{ProductID: productID},
	).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build average rating: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "AverageRating", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query, args...).Scan(&avg); err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}
	return avg, nil
}

// RatingCounts returns the number of records per rating. Ratings without
// records are absent.
func (r *FeedbackRepository) RatingCounts(ctx context.Context, productID string) (_ map[int]int, err error) {
	query, args, err := hardFilters(
		psql.Select("rating", "COUNT(*)").From(feedbackTable),
		domain.FeedbackFilter{ProductID: productID},
	).GroupBy("rating").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rating counts: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "RatingCounts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rating counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, fmt.Errorf("scan rating count: %w", err)
		}
		counts[rating] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating counts: %w", err)
	}
	return counts, nil
}

// AverageRatingsByProduct returns the mean rating, rounded to two decimals,
// of each requested product that has feedback.
func (r *FeedbackRepository) AverageRatingsByProduct(ctx context.Context, productIDs []string) (_ map[string]float64, err error) {
	averages := make(map[string]float64, len(productIDs))
	if len(productIDs) == 0 {
		return averages, nil
	}

	query, args, err := psql.Select("product_id", "ROUND(AVG(rating), 2)::float8").
		From(feedbackTable).
		Where(sq.Eq{"product_id": productIDs}).
		GroupBy("product_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product averages: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "AverageRatingsByProduct", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("product averages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			avg float64
		)
		if err := rows.Scan(&id, &avg); err != nil {
			return nil, fmt.Errorf("scan product average: %w", err)
		}
		averages[id] = avg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product averages: %w", err)
	}
	return averages, nil
}

// ProductRatings returns the count and unrounded mean rating of every product
// with associated feedback.
func (r *FeedbackRepository) ProductRatings(ctx context.Context) (_ []domain.ProductRating, err error) {
	query, args, err := psql.Select("product_id", "COUNT(*)", "AVG(rating)::float8").
		From(feedbackTable).
		Where(sq.NotEq{"product_id": ""}).
		GroupBy("product_id").
		OrderBy("product_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product ratings: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "ProductRatings", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("product ratings: %w", err)
	}
	defer rows.Close()

	ratings := []domain.ProductRating{}
	for rows.Next() {
		var pr domain.ProductRating
		if err := rows.Scan(&pr.ProductID, &pr.Count, &pr.Average); err != nil {
			return nil, fmt.Errorf("scan product rating: %w", err)
		}
		ratings = append(ratings, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product ratings: %w", err)
	}
	return ratings, nil
}

func (r *FeedbackRepository) count(ctx context.Context, filter domain.FeedbackFilter) (n int, err error) {
	query, args, err := hardFilters(psql.Select("COUNT(*)").From(feedbackTable), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count feedback: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, "CountFeedback", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

func (r *FeedbackRepository) selectFeedback(ctx context.Context, op string, b sq.SelectBuilder) (_ []domain.Feedback, err error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", op, err)
	}

	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanFeedback)
	if err != nil {
		return nil, fmt.Errorf("scan feedback rows: %w", err)
	}
	if records == nil {
		records = []domain.Feedback{}
	}
	return records, nil
}

func scanFeedback(row pgx.CollectableRow) (domain.Feedback, error) {
	var f domain.Feedback
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Email,
		&f.Body,
		&f.Rating,
		&f.ProductID,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	return f, err
}

// hardFilters applies the rating range and product constraints of filter.
func hardFilters(b sq.SelectBuilder, filter domain.FeedbackFilter) sq.SelectBuilder {
	if filter.MinRating != nil {
		b = b.Where(sq.GtOrEq{"rating": *filter.MinRating})
	}
	if filter.MaxRating != nil {
		b = b.Where(sq.LtOrEq{"rating": *filter.MaxRating})
	}
	if filter.ProductID != "" {
		b = b.Where(sq.Eq{"product_id": filter.ProductID})
	}
	return b
}
