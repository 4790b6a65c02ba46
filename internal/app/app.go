package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/gigmarket/internal/cache"
	"github.com/utafrali/gigmarket/internal/config"
	"github.com/utafrali/gigmarket/internal/event"
	handler "github.com/utafrali/gigmarket/internal/handler/http"
	"github.com/utafrali/gigmarket/internal/notify"
	"github.com/utafrali/gigmarket/internal/repository/postgres"
	"github.com/utafrali/gigmarket/internal/service"
	"github.com/utafrali/gigmarket/migrations"
	"github.com/utafrali/gigmarket/pkg/database"
	"github.com/utafrali/gigmarket/pkg/health"
	pkgkafka "github.com/utafrali/gigmarket/pkg/kafka"
	"github.com/utafrali/gigmarket/pkg/middleware"
	"github.com/utafrali/gigmarket/pkg/tracing"
)

const serviceName = "gigmarket"

// App wires together all dependencies and runs the gigmarket service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	notifier       *notify.Notifier
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.PostgresMaxConns,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, serviceName)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQuery > 0 {
		database.SetSlowQueryLogging(cfg.SlowQuery, logger)
	}

	// Redis backs the rating cache only; the service keeps working without it.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.Warn("redis ping failed after retries, rating cache degraded to database reads",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("redis client initialized", slog.String("addr", cfg.RedisHost))
	}
	aggregateCache := cache.NewAggregateCache(redisClient, cfg.CacheTTL)

	// Kafka
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
		logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	events := event.NewProducer(producer, logger)

	notifier := notify.NewNotifier(newDispatcher(cfg, producer, logger), cfg.NotifyTimeout, logger)
	logger.Info("notification transport selected", slog.String("transport", cfg.NotifyTransport))

	// Build the dependency graph.
	orderRepo := postgres.NewOrderRepository(pool)
	gigRepo := postgres.NewGigRepository(pool)
	disputeRepo := postgres.NewDisputeRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	aggregateRepo := postgres.NewAggregateRepository(pool)

	orderService := service.NewOrderService(orderRepo, gigRepo, events, notifier, cfg.OperationTimeout, logger)
	disputeService := service.NewDisputeService(orderRepo, disputeRepo, events, notifier, cfg.OperationTimeout, logger)
	reviewService := service.NewReviewService(orderRepo, reviewRepo, aggregateRepo, aggregateCache, events, notifier, cfg.OperationTimeout, logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", aggregateCache.Ping)
	healthHandler.RegisterNonCritical("kafka", producer.Ping)

	router := handler.NewRouter(handler.RouterConfig{
		Orders:     orderService,
		Disputes:   disputeService,
		Reviews:    reviewService,
		Health:     healthHandler,
		Tokens:     middleware.JWTValidator(cfg.JWTSecret, cfg.JWTIssuer),
		Logger:     logger,
		PprofCIDRs: cfg.PprofAllowedCIDRs,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		notifier:       notifier,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newDispatcher selects the notification transport named by the config.
func newDispatcher(cfg *config.Config, producer *pkgkafka.Producer, logger *slog.Logger) notify.Dispatcher {
	switch cfg.NotifyTransport {
	case config.NotifyTransportHTTP:
		return notify.NewHTTPDispatcher(cfg.NotifyWebhookURL, cfg.NotifyTimeout, logger)
	case config.NotifyTransportLog:
		return notify.NewLogDispatcher(logger)
	default:
		return notify.NewKafkaDispatcher(producer)
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
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

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Notifier (finish in-flight deliveries)
// 3. Tracer
// 4. Kafka producer
// 5. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// Deliveries are bounded by NOTIFY_TIMEOUT, so this wait is too.
	drained := make(chan struct{})
	go func() {
		a.notifier.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(a.cfg.NotifyTimeout + time.Second):
		a.logger.Warn("notifications still in flight at shutdown")
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry pings the producer up to 3 times with exponential
// backoff (1s, 2s) and ±25% jitter.
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	const attempts = 3

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		base := time.Duration(1<<uint(attempt)) * time.Second
		wait := base + time.Duration(float64(base)*0.25*(2*rand.Float64()-1)) // #nosec G404 -- retry jitter
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after %d attempts: %w", attempts, lastErr)
}
