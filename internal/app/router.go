package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/thekada/revenue-engine/internal/memocache"
	"github.com/thekada/revenue-engine/internal/observability"
	"github.com/thekada/revenue-engine/internal/payouts"
	"github.com/thekada/revenue-engine/internal/platform/httpx"
	reporthttp "github.com/thekada/revenue-engine/internal/reports/http"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	ReportHandler  *reporthttp.Handler
	PayoutHandler  *payouts.Handler
	Cache          *memocache.Store
	Metrics        *observability.Metrics
	ReadinessCheck func() error
}

// NewRouter constructs the chi.Router serving the partner portal API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.ReadinessCheck != nil {
			if err := params.ReadinessCheck(); err != nil {
				params.Logger.Warn("readiness check failed", slog.Any("error", err))
				httpx.Problem(w, http.StatusServiceUnavailable, "Not Ready", "a backing store is unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	if params.Cache != nil {
		r.Get("/internal/cache", func(w http.ResponseWriter, r *http.Request) {
			size, keys := params.Cache.Stats()
			httpx.JSON(w, http.StatusOK, map[string]any{"size": size, "keys": keys})
		})
	}

	if params.ReportHandler != nil {
		params.ReportHandler.MountRoutes(r)
	}
	if params.PayoutHandler != nil {
		params.PayoutHandler.MountRoutes(r)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
