package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dulces-mila/mila-backend/internal/auth"
	"github.com/dulces-mila/mila-backend/internal/cart"
	"github.com/dulces-mila/mila-backend/internal/catalog"
	"github.com/dulces-mila/mila-backend/internal/observability"
	"github.com/dulces-mila/mila-backend/internal/sales"
	"github.com/dulces-mila/mila-backend/internal/users"
)

// RouterParams carries everything the HTTP router needs.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	Pool    *pgxpool.Pool
	Redis   *redis.Client

	Auth    *auth.Handler
	Users   *users.Handler
	Catalog *catalog.Handler
	Cart    *cart.Handler
	Sales   *sales.Handler
}

// NewRouter assembles the chi router with the full middleware stack.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler(p.Pool, p.Redis))
	r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		p.Auth.MountRoutes(api)
		p.Users.MountRoutes(api)
		p.Catalog.MountRoutes(api)
		p.Cart.MountRoutes(api)
		p.Sales.MountRoutes(api)
	})

	return r
}

func healthHandler(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
