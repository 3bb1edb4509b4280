package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jimkdev/library-api/internal/auth"
	"github.com/jimkdev/library-api/internal/service"
	"github.com/jimkdev/library-api/pkg/health"
	"github.com/jimkdev/library-api/pkg/middleware"
)

// appName labels request metrics and spans.
const appName = "library-api"

// RouterConfig carries the router's environment-dependent knobs.
type RouterConfig struct {
	CORS               middleware.CORSConfig
	AuthRateLimitRPS   int
	AuthRateLimitBurst int
	SecureCookie       bool
}

// NewRouter creates a chi router with all library API routes registered.
func NewRouter(
	authService *service.AuthService,
	bookService *service.BookService,
	lendingService *service.LendingService,
	analyticsService *service.AnalyticsService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(appName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(appName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
		}, nil
	}

	authHandler := NewAuthHandler(authService, cfg.SecureCookie, logger)
	bookHandler := NewBookHandler(bookService, logger)
	lendingHandler := NewLendingHandler(lendingService, logger)
	analyticsHandler := NewAnalyticsHandler(analyticsService, logger)

	r.Route("/users", func(r chi.Router) {
		// Credential endpoints are rate limited per client IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, logger))

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/", authHandler.ListUsers)
			r.Post("/logout", authHandler.Logout)
		})
	})

	r.Route("/books", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/", bookHandler.List)
		r.Post("/add", bookHandler.Add)
		r.Get("/{id}", bookHandler.Get)
		r.Delete("/", bookHandler.Delete)

		r.Route("/lendings", func(r chi.Router) {
			r.Post("/create", lendingHandler.Lend)
			r.Get("/current", lendingHandler.Current)
			r.Post("/extend-return-date", lendingHandler.Extend)
			r.Post("/return-book", lendingHandler.Return)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/analytics", analyticsHandler.Snapshot)
	})

	return r
}
