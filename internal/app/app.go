package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/DJ-LIFE/feedback-tool/internal/auth"
	"github.com/DJ-LIFE/feedback-tool/internal/cache"
	"github.com/DJ-LIFE/feedback-tool/internal/catalog"
	"github.com/DJ-LIFE/feedback-tool/internal/config"
	"github.com/DJ-LIFE/feedback-tool/internal/event"
	handler "github.com/DJ-LIFE/feedback-tool/internal/handler/http"
	"github.com/DJ-LIFE/feedback-tool/internal/repository/postgres"
	"github.com/DJ-LIFE/feedback-tool/internal/seed"
	"github.com/DJ-LIFE/feedback-tool/internal/service"
	"github.com/DJ-LIFE/feedback-tool/migrations"
	"github.com/DJ-LIFE/feedback-tool/pkg/database"
	"github.com/DJ-LIFE/feedback-tool/pkg/health"
	pkgkafka "github.com/DJ-LIFE/feedback-tool/pkg/kafka"
	"github.com/DJ-LIFE/feedback-tool/pkg/middleware"
	"github.com/DJ-LIFE/feedback-tool/pkg/tracing"
)

// startupTimeout bounds connecting to every backing service.
const startupTimeout = 30 * time.Second

// App wires together all dependencies and runs the feedback service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	consumer       *pkgkafka.Consumer
	shutdownTracer func(context.Context) error
	products       *catalog.Catalog
	feedbackRepo   *postgres.FeedbackRepository
	averages       *cache.ProductAverages
	feedback       *service.FeedbackService
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
// Redis and Kafka are optional: when disabled, or when Redis cannot be
// reached, the service runs without the average cache or without events.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}

	products, err := loadCatalog(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.products = products

	// Build the dependency graph.
	feedbackRepo := postgres.NewFeedbackRepository(pool)
	a.feedbackRepo = feedbackRepo
	adminRepo := postgres.NewAdminRepository(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)

	opts := []service.FeedbackOption{
		service.WithMetrics(service.NewMetrics(prometheus.DefaultRegisterer)),
	}

	var averages *cache.ProductAverages
	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			logger.Warn("redis unavailable, product averages will not be cached",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", err.Error()),
			)
		} else {
			a.redis = client
			averages = cache.NewProductAverages(client, feedbackRepo, cfg.CacheTTL, logger)
			a.averages = averages
			opts = append(opts, service.WithAverageCache(averages))
			logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
		}
	}

	var publisher service.EventPublisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

		if averages != nil {
			a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.KafkaGroupID,
				Topic:   event.TopicFeedbackSubmitted,
			}, event.NewConsumer(averages, logger).Handle, logger)
		}
	}

	a.feedback = service.NewFeedbackService(feedbackRepo, publisher, logger, opts...)
	adminService := service.NewAdminService(adminRepo, jwtManager, logger)
	productService := service.NewProductService(products, feedbackRepo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.redis != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:     config.ServiceName,
		FeedbackService: a.feedback,
		AdminService:    adminService,
		ProductService:  productService,
		HealthHandler:   healthHandler,
		HTTPMetrics:     middleware.NewHTTPMetrics(prometheus.DefaultRegisterer, config.ServiceName),
		Gatherer:        prometheus.DefaultGatherer,
		CORS:            cors,
		DefaultLimit:    cfg.DefaultLimit,
		Logger:          logger,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.ProductCatalogPath == "" {
		return catalog.Default()
	}
	c, err := catalog.LoadFile(cfg.ProductCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load product catalog: %w", err)
	}
	return c, nil
}

// FeedbackService returns the wired feedback service.
func (a *App) FeedbackService() *service.FeedbackService {
	return a.feedback
}

// Migrate applies pending schema migrations.
func (a *App) Migrate(ctx context.Context) error {
	return database.RunMigrations(ctx, a.pool, migrations.FS, a.logger)
}

// Seed inserts generated sample feedback for the catalog products and drops
// the cached averages of every product it touched.
func (a *App) Seed(ctx context.Context, opts seed.Options) (int, error) {
	records := seed.Generate(a.products.All(), opts)
	n, err := seed.Insert(ctx, a.feedbackRepo, records)
	if err != nil {
		return n, fmt.Errorf("seed feedback: %w", err)
	}

	if a.averages != nil {
		touched := make(map[string]bool)
		for _, f := range records {
			if f.ProductID == "" || touched[f.ProductID] {
				continue
			}
			touched[f.ProductID] = true
			if err := a.averages.Invalidate(ctx, f.ProductID); err != nil {
				a.logger.WarnContext(ctx, "failed to invalidate product average",
					slog.String("product_id", f.ProductID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	a.logger.InfoContext(ctx, "seeded feedback", slog.Int("count", n))
	return n, nil
}

// Run applies migrations if configured, starts the event consumer and the
// HTTP server, and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.MigrateOnStart {
		if err := a.Migrate(ctx); err != nil {
			a.close()
			return fmt.Errorf("migrate: %w", err)
		}
	}

	errCh := make(chan error, 1)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		}
	}

	a.close()

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}

// Close releases backing connections without serving. It is used by
// one-shot commands.
func (a *App) Close() {
	a.close()
	_ = a.shutdownTracer(context.Background())
}

func (a *App) close() {
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
