package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/gigmarket/pkg/health"
	"github.com/utafrali/gigmarket/pkg/middleware"
)

const serviceName = "gigmarket"

// RouterConfig holds everything the router mounts.
type RouterConfig struct {
	Orders     OrderService
	Disputes   DisputeService
	Reviews    ReviewService
	Health     *health.Handler
	Tokens     middleware.TokenValidator
	Logger     *slog.Logger
	PprofCIDRs []string
}

// NewRouter creates a chi router with all gigmarket routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)

	orderHandler := NewOrderHandler(cfg.Orders, cfg.Disputes, cfg.Logger)
	reviewHandler := NewReviewHandler(cfg.Reviews, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Tokens))
		r.Use(middleware.RequestLogger(cfg.Logger))
		r.Use(ContentTypeJSON)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.CreateOrder)
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{id}", orderHandler.GetOrder)
			r.Put("/{id}/status", orderHandler.UpdateOrderStatus)
			r.Post("/{id}/disputes", orderHandler.CreateDispute)
			r.Get("/{id}/disputes", orderHandler.ListDisputes)
			r.Post("/{id}/review", reviewHandler.SubmitReview)
		})

		r.With(middleware.RequireRole(middleware.RoleAdmin)).
			Delete("/reviews/{id}", reviewHandler.DeleteReview)

		r.Get("/gigs/{id}/reviews", reviewHandler.ListGigReviews)
		r.Get("/gigs/{id}/rating", reviewHandler.GetGigRating)
		r.Get("/sellers/{id}/rating", reviewHandler.GetSellerRating)
	})

	return r
}
