package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/wishlist/internal/auth"
	"github.com/utafrali/wishlist/internal/service"
	"github.com/utafrali/wishlist/pkg/health"
	"github.com/utafrali/wishlist/pkg/middleware"
)

const serviceName = "wishlist"

// RouterConfig holds the router's environment-dependent settings.
type RouterConfig struct {
	CORS              middleware.CORSConfig
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all wishlist routes registered.
func NewRouter(
	wishlistService *service.WishlistService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Wishlist API is up and running!"))
	})

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger) {
		logger.Info("pprof endpoints enabled", slog.Any("allowed_cidrs", cfg.PprofAllowedCIDRs))
	}

	// Public wishlist endpoints; the caller supplies the user id.
	wishlistHandler := NewWishlistHandler(wishlistService, logger)
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(LimitBody)
		r.Use(ContentTypeJSON)

		r.Post("/add", wishlistHandler.Add)
		r.Post("/remove", wishlistHandler.Remove)
		r.Delete("/", wishlistHandler.Remove)
		r.Get("/{userId}", wishlistHandler.List)
		r.Get("/{userId}/check", wishlistHandler.Check)
	})

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			Subject: claims.Subject,
			Role:    claims.Role,
		}, nil
	}

	// Admin endpoints (admin role required)
	adminHandler := NewAdminHandler(wishlistService, logger)
	r.Route("/admin/api/wishlist", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequireRole(auth.RoleAdmin))

		r.Get("/", adminHandler.Browse)
		r.Delete("/{id}", adminHandler.Delete)
	})

	return r
}
