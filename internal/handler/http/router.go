package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DJ-LIFE/feedback-tool/internal/service"
	"github.com/DJ-LIFE/feedback-tool/pkg/health"
	"github.com/DJ-LIFE/feedback-tool/pkg/middleware"
)

// RouterConfig holds everything the router mounts.
type RouterConfig struct {
	ServiceName     string
	FeedbackService *service.FeedbackService
	AdminService    *service.AdminService
	ProductService  *service.ProductService
	HealthHandler   *health.Handler
	// HTTPMetrics and Gatherer are optional. Without a Gatherer /metrics is
	// not served.
	HTTPMetrics  *middleware.HTTPMetrics
	Gatherer     prometheus.Gatherer
	CORS         middleware.CORSConfig
	DefaultLimit int
	Logger       *slog.Logger
}

// NewRouter creates a chi router with all feedback service routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Handler)
	}

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	feedbackHandler := NewFeedbackHandler(cfg.FeedbackService, cfg.DefaultLimit, logger)
	adminHandler := NewAdminHandler(cfg.AdminService, logger)
	productHandler := NewProductHandler(cfg.ProductService, logger)

	r.Post("/api/v1/feedback", feedbackHandler.SubmitFeedback)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", productHandler.ListProducts)
		r.Get("/feedback", productHandler.ListWithFeedback)
		r.Get("/category/{category}", productHandler.ListByCategory)
		r.Get("/{id}", productHandler.GetProduct)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Post("/register", adminHandler.Register)
		r.Post("/login", adminHandler.Login)

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.AdminService.ValidateToken))

			r.Get("/", feedbackHandler.Dashboard)
			r.Get("/feedbacks", feedbackHandler.ListFeedback)
			r.Get("/feedbacks/stats", feedbackHandler.GetStats)
			r.Get("/feedbacks/popular", feedbackHandler.GetPopular)
		})
	})

	return r
}
