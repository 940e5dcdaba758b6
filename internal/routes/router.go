// Package routes assembles the HTTP surface: public pages, the admin area
// and the operational endpoints.
package routes

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/EmpoweredVote/news-portal/internal/auth"
	"github.com/EmpoweredVote/news-portal/internal/content"
	"github.com/EmpoweredVote/news-portal/internal/metrics"
	"github.com/EmpoweredVote/news-portal/internal/middleware"
	"github.com/EmpoweredVote/news-portal/internal/utils"
	"github.com/EmpoweredVote/news-portal/internal/webhooks"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	AllowedOrigins []string
	RequestTimeout time.Duration

	Sessions     middleware.UserResolver
	Auth         *auth.Handler
	Content      *content.Handler
	LoginLimiter *middleware.RateLimiter
	// PageCache wraps the public routes; nil disables caching.
	PageCache func(http.Handler) http.Handler
	// Webhooks is mounted at /hooks when set.
	Webhooks *webhooks.Handler
	Metrics  *metrics.Metrics
	Ping     func(ctx context.Context) error
}

func New(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))
	r.Use(d.Metrics.Middleware)
	if d.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(d.RequestTimeout))
	}

	r.Get("/healthz", healthz(d.Ping))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if d.PageCache != nil {
			r.Use(d.PageCache)
		}
		content.RegisterPublicRoutes(r, d.Content)
	})

	if d.Webhooks != nil {
		r.Route("/hooks", func(r chi.Router) { webhooks.RegisterRoutes(r, d.Webhooks) })
	}

	requireUser := middleware.RequireUser(d.Sessions)
	limit := func(next http.Handler) http.Handler { return next }
	if d.LoginLimiter != nil {
		limit = d.LoginLimiter.Middleware
	}

	r.Route("/admin", func(r chi.Router) {
		auth.RegisterRoutes(r, d.Auth, limit, requireUser)
		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			content.RegisterAdminRoutes(r, d.Content)
		})
	})

	return r
}

func healthz(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.Printf("[db] health check: %v", err)
				utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
