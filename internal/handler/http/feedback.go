package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
	"github.com/DJ-LIFE/feedback-tool/internal/service"
	apperrors "github.com/DJ-LIFE/feedback-tool/pkg/errors"
	"github.com/DJ-LIFE/feedback-tool/pkg/httputil"
	"github.com/DJ-LIFE/feedback-tool/pkg/pagination"
	"github.com/DJ-LIFE/feedback-tool/pkg/validator"
)

// submitMessage is returned with every accepted submission.
const submitMessage = "Thank you for your feedback!"

// FeedbackHandler handles HTTP requests for feedback submission and the
// admin dashboard.
type FeedbackHandler struct {
	service      *service.FeedbackService
	defaultLimit int
	logger       *slog.Logger
}

// NewFeedbackHandler creates a new feedback HTTP handler. defaultLimit is the
// page size used when a listing does not ask for one.
func NewFeedbackHandler(svc *service.FeedbackService, defaultLimit int, logger *slog.Logger) *FeedbackHandler {
	if defaultLimit <= 0 {
		defaultLimit = pagination.DefaultLimit
	}
	return &FeedbackHandler{
		service:      svc,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// --- Request DTOs ---

// SubmitFeedbackRequest is the JSON request body for submitting feedback.
type SubmitFeedbackRequest struct {
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Feedback string `json:"feedback" validate:"required"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
}

// SubmitFeedbackResponse is returned for an accepted submission.
type SubmitFeedbackResponse struct {
	ID          string    `json:"id"`
	Rating      int       `json:"rating"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// --- Handlers ---

// SubmitFeedback handles POST /api/v1/feedback?product_id=
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SubmitFeedbackRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	f, err := h.service.SubmitFeedback(r.Context(), domain.SubmitFeedbackInput{
		Name:      req.Name,
		Email:     req.Email,
		Body:      req.Feedback,
		Rating:    req.Rating,
		ProductID: r.URL.Query().Get("product_id"),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data: SubmitFeedbackResponse{
			ID:          f.ID,
			Rating:      f.Rating,
			SubmittedAt: f.CreatedAt,
		},
		Message: submitMessage,
	})
}

// ListFeedback handles GET /api/v1/admin/dashboard/feedbacks
//
// Query parameters: min_rating, max_rating, product_id, min_popularity,
// sort_by (createdAt, rating, popularity, avgRating), sort_order (asc, desc),
// page and limit.
func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFeedbackFilter(r, h.defaultLimit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page, err := h.service.ListFeedback(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WritePage(w, page.Feedbacks, page.Pagination)
}

// GetStats handles GET /api/v1/admin/dashboard/feedbacks/stats?product_id=
func (h *FeedbackHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context(), r.URL.Query().Get("product_id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// GetPopular handles GET /api/v1/admin/dashboard/feedbacks/popular?limit=&min_popularity=
func (h *FeedbackHandler) GetPopular(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := h.defaultLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("limit must be an integer"), h.logger)
			return
		}
		limit = n
	}
	minPopularity, err := optionalFloat(q.Get("min_popularity"), "min_popularity")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page, err := h.service.GetPopular(r.Context(), limit, minPopularity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WritePage(w, page.Feedbacks, page.Pagination)
}

// Dashboard handles GET /api/v1/admin/dashboard
func (h *FeedbackHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: d})
}

// parseFeedbackFilter reads a listing request from the query string. Values
// that are present but malformed are rejected; range checks are left to the
// service.
func parseFeedbackFilter(r *http.Request, defaultLimit int) (domain.FeedbackFilter, error) {
	params, err := pagination.FromRequest(r, defaultLimit)
	if err != nil {
		return domain.FeedbackFilter{}, apperrors.InvalidInput(err.Error())
	}

	q := r.URL.Query()
	filter := domain.FeedbackFilter{
		ProductID: q.Get("product_id"),
		SortBy:    domain.ParseSortField(q.Get("sort_by")),
		SortOrder: domain.ParseSortOrder(q.Get("sort_order")),
		Page:      params.Page,
		Limit:     params.Limit,
	}

	if filter.MinRating, err = optionalInt(q.Get("min_rating"), "min_rating"); err != nil {
		return domain.FeedbackFilter{}, err
	}
	if filter.MaxRating, err = optionalInt(q.Get("max_rating"), "max_rating"); err != nil {
		return domain.FeedbackFilter{}, err
	}
	if filter.MinPopularity, err = optionalFloat(q.Get("min_popularity"), "min_popularity"); err != nil {
		return domain.FeedbackFilter{}, err
	}

	return filter, nil
}

func optionalInt(v, name string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s must be an integer", name))
	}
	return &n, nil
}

func optionalFloat(v, name string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s must be a number", name))
	}
	return &f, nil
}
