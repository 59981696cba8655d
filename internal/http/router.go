package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/redmonkez12/finance-tracker-api/internal/auth"
	"github.com/redmonkez12/finance-tracker-api/internal/config"
	"github.com/redmonkez12/finance-tracker-api/internal/httputil"
	"github.com/redmonkez12/finance-tracker-api/internal/ledger"
	"github.com/redmonkez12/finance-tracker-api/internal/logging"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers groups everything the router mounts
type Handlers struct {
	Auth           *auth.Handler
	AuthMiddleware *auth.Middleware
	Expenses       *ledger.Handler
	Assets         *ledger.Handler
	DB             Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.TrustedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth(h.DB))

	r.Post("/register", h.Auth.Register)
	r.Post("/login", h.Auth.Login)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware.RequireAuth)

		r.Post("/logout", h.Auth.Logout)
		r.Get("/tokenIsValid", h.Auth.TokenIsValid)
		r.Put("/password", h.Auth.ChangePassword)

		r.Route("/expenses", h.Expenses.Routes)
		r.Route("/assets", h.Assets.Routes)
	})

	return r
}

// handleHealth reports liveness and database reachability
// @Summary      Health check
// @Description  Check if the API and its database are up
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /health [get]
func handleHealth(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logging.GetLoggerFromContext(r.Context()).Error("health check failed", "error", err)
			httputil.RespondJSON(w, r, map[string]string{"status": "database unavailable"}, http.StatusServiceUnavailable)
			return
		}

		httputil.RespondJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
	}
}
