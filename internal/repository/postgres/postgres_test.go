package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
	"github.com/DJ-LIFE/feedback-tool/pkg/database"
	apperrors "github.com/DJ-LIFE/feedback-tool/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func intPtr(n int) *int { return &n }

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

var feedbackColumnsWithTotal = []string{
	"id", "name", "email", "body", "rating", "product_id", "created_at", "updated_at", "total_count",
}

func sampleFeedback() domain.Feedback {
	return domain.Feedback{
		ID:        "fb-1",
		Name:      "Ada",
		Email:     "ada@example.com",
		Body:      "Works as advertised",
		Rating:    4,
		ProductID: "1",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func feedbackRow(f domain.Feedback) []any {
	return []any{f.ID, f.Name, f.Email, f.Body, f.Rating, f.ProductID, f.CreatedAt, f.UpdatedAt}
}

func sampleAdmin() domain.Admin {
	return domain.Admin{
		ID:           "admin-1",
		Username:     "root",
		Email:        "root@example.com",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// FeedbackRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestFeedbackRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	f := sampleFeedback()
	mock.ExpectExec("INSERT INTO feedbacks").
		WithArgs(f.ID, f.Name, f.Email, f.Body, f.Rating, f.ProductID, f.CreatedAt, f.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &f))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_Create_Error(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	f := sampleFeedback()
	mock.ExpectExec("INSERT INTO feedbacks").
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert feedback")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_CreateBatch(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	a := sampleFeedback()
	b := sampleFeedback()
	b.ID, b.Rating = "fb-2", 2

	args := append(feedbackRow(a), feedbackRow(b)...)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO feedbacks (id,name,email,body,rating,product_id,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8),($9,")).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	require.NoError(t, repo.CreateBatch(context.Background(), []domain.Feedback{a, b}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_CreateBatch_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	require.NoError(t, repo.CreateBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_List_DefaultOrder(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	f := sampleFeedback()
	mock.ExpectQuery(regexp.QuoteMeta("FROM feedbacks ORDER BY created_at DESC, id DESC LIMIT 10 OFFSET 0")).
		WillReturnRows(pgxmock.NewRows(feedbackColumnsWithTotal).AddRow(append(feedbackRow(f), 1)...))

	records, total, err := repo.List(context.Background(), domain.DefaultFeedbackFilter())
	require.NoError(t, err)
	assert.Equal(t, []domain.Feedback{f}, records)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_List_WithFilters(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	filter := domain.FeedbackFilter{
		MinRating: intPtr(3),
		MaxRating: intPtr(5),
		ProductID: "1",
		SortBy:    domain.SortByRating,
		SortOrder: domain.SortAsc,
		Page:      2,
		Limit:     10,
	}

	f := sampleFeedback()
	// rating >= $1, rating <= $2, product_id = $3
	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE rating >= $1 AND rating <= $2 AND product_id = $3 ORDER BY rating ASC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs(3, 5, "1").
		WillReturnRows(pgxmock.NewRows(feedbackColumnsWithTotal).AddRow(append(feedbackRow(f), 15)...))

	records, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 15, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_List_PageBeyondRangeCountsSeparately(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	filter := domain.DefaultFeedbackFilter()
	filter.Page = 5

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 10 OFFSET 40")).
		WillReturnRows(pgxmock.NewRows(feedbackColumnsWithTotal))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM feedbacks")).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))

	records, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
	assert.Equal(t, 12, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_List_InvalidFilterSkipsStorage(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	filter := domain.DefaultFeedbackFilter()
	filter.Limit = 0

	_, _, err := repo.List(context.Background(), filter)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_List_QueryError(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM feedbacks").
		WillReturnError(errors.New("connection reset"))

	_, _, err := repo.List(context.Background(), domain.DefaultFeedbackFilter())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list feedback")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_ListAll_IgnoresPageWindow(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	older := sampleFeedback()
	older.ID = "fb-0"
	older.CreatedAt = now.Add(-time.Hour)

	filter := domain.DefaultFeedbackFilter()
	filter.MinRating = intPtr(4)
	filter.Page = 3

	mock.ExpectQuery(regexp.QuoteMeta("FROM feedbacks WHERE rating >= $1 ORDER BY created_at DESC, id DESC")).
		WithArgs(4).
		WillReturnRows(pgxmock.NewRows(feedbackColumns).
			AddRow(feedbackRow(sampleFeedback())...).
			AddRow(feedbackRow(older)...))

	records, err := repo.ListAll(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "fb-1", records[0].ID)
	assert.Equal(t, "fb-0", records[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_Recent(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = $1 ORDER BY created_at DESC, id DESC LIMIT 30")).
		WithArgs("1").
		WillReturnRows(pgxmock.NewRows(feedbackColumns).AddRow(feedbackRow(sampleFeedback())...))

	records, err := repo.Recent(context.Background(), "1", domain.TimelineWindow)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_Count(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM feedbacks WHERE product_id = $1")).
		WithArgs("2").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_AverageRating_AllProducts(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(AVG(rating), 0)::float8 FROM feedbacks")).
		WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow(3.6666))

	avg, err := repo.AverageRating(context.Background(), "")
	require.NoError(t, err)
	assert.InDelta(t, 3.6666, avg, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_RatingCounts(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT rating, COUNT(*) FROM feedbacks GROUP BY rating")).
		WillReturnRows(pgxmock.NewRows([]string{"rating", "count"}).
			AddRow(5, 3).
			AddRow(1, 2))

	counts, err := repo.RatingCounts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{5: 3, 1: 2}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_AverageRatingsByProduct_SingleGroupedQuery(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id IN ($1,$2,$3) GROUP BY product_id")).
		WithArgs("1", "2", "3").
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "avg"}).
			AddRow("1", 4.5).
			AddRow("3", 2.33))

	averages, err := repo.AverageRatingsByProduct(context.Background(), []string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"1": 4.5, "3": 2.33}, averages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_AverageRatingsByProduct_NoIDs(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	averages, err := repo.AverageRatingsByProduct(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, averages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepository_ProductRatings(t *testing.T) {
	mock := newMock(t)
	repo := NewFeedbackRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id <> $1 GROUP BY product_id")).
		WithArgs("").
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "count", "avg"}).
			AddRow("1", 4, 4.25).
			AddRow("2", 1, 3.0))

	ratings, err := repo.ProductRatings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductRating{
		{ProductID: "1", Count: 4, Average: 4.25},
		{ProductID: "2", Count: 1, Average: 3.0},
	}, ratings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─────────────────────────────────────────────────────────────────────────────
// AdminRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestAdminRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	repo := NewAdminRepository(mock)

	a := sampleAdmin()
	mock.ExpectExec("INSERT INTO admins").
		WithArgs(a.ID, a.Username, a.Email, a.PasswordHash, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepository_Create_UniqueViolation(t *testing.T) {
	mock := newMock(t)
	repo := NewAdminRepository(mock)

	a := sampleAdmin()
	mock.ExpectExec("INSERT INTO admins").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &a)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepository_GetByID_Success(t *testing.T) {
	mock := newMock(t)
	repo := NewAdminRepository(mock)

	a := sampleAdmin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE id = $1 LIMIT 1")).
		WithArgs(a.ID).
		WillReturnRows(pgxmock.NewRows(adminColumns).
			AddRow(a.ID, a.Username, a.Email, a.PasswordHash, a.CreatedAt, a.UpdatedAt))

	got, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, &a, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewAdminRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM admins WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepository_FindByUsernameOrEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewAdminRepository(mock)

	a := sampleAdmin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE (username = $1 OR email = $2)")).
		WithArgs(a.Email, a.Email).
		WillReturnRows(pgxmock.NewRows(adminColumns).
			AddRow(a.ID, a.Username, a.Email, a.PasswordHash, a.CreatedAt, a.UpdatedAt))

	got, err := repo.FindByUsernameOrEmail(context.Background(), a.Email)
	require.NoError(t, err)
	assert.Equal(t, a.Username, got.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepository_Exists(t *testing.T) {
	mock := newMock(t)
	repo := NewAdminRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (")).
		WithArgs("root", "root@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "root", "root@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
