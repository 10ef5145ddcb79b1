package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucasncamargo/gorestaurant/internal/service"
	"github.com/lucasncamargo/gorestaurant/pkg/health"
	"github.com/lucasncamargo/gorestaurant/pkg/middleware"
)

const serviceName = "gorestaurant-api"

// Services bundles the business services the router exposes.
type Services struct {
	Foods     *service.FoodService
	Favorites *service.FavoriteService
	Orders    *service.OrderService
}

// RouterConfig tunes the router's middleware.
type RouterConfig struct {
	// DefaultUserID names callers that send neither a token nor X-User-ID.
	DefaultUserID string
	// VerifyToken enables bearer-token auth on the API routes when set.
	VerifyToken    middleware.TokenVerifier
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
	MenuCacheTTL   time.Duration
	PprofCIDRs     []string
}

// NewRouter creates a chi router with all API routes registered. ctx bounds
// the rate limiter's background eviction.
func NewRouter(
	ctx context.Context,
	svcs Services,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.CORSOrigins
	}

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cors))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Get("/health/live", healthHandler.LivenessHandler())
		r.Get("/health/ready", healthHandler.ReadinessHandler())
	})
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	foodHandler := NewFoodHandler(svcs.Foods, logger)
	favoriteHandler := NewFavoriteHandler(svcs.Favorites, logger)
	orderHandler := NewOrderHandler(svcs.Orders, logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(ContentTypeJSON)
		if cfg.VerifyToken != nil {
			r.Use(middleware.Auth(cfg.VerifyToken))
		}
		r.Use(middleware.Identity(cfg.DefaultUserID))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/foods", func(r chi.Router) {
			if cfg.MenuCacheTTL > 0 {
				r.Use(middleware.CacheControl(cfg.MenuCacheTTL))
			}
			r.Get("/", foodHandler.ListFoods)
			r.Get("/{id}", foodHandler.GetFood)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Get("/", favoriteHandler.ListFavorites)
			r.Post("/", favoriteHandler.AddFavorite)
			r.Delete("/{id}", favoriteHandler.RemoveFavorite)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Get("/", orderHandler.ListOrders)
			r.Post("/", orderHandler.CreateOrder)
			r.Get("/{id}", orderHandler.GetOrder)
		})
	})

	return r
}
