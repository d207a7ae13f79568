package reporthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the reporting endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/analytics", h.handleAnalytics)
	r.Delete("/analytics", h.handleInvalidateAnalytics)
	r.Get("/leaderboard", h.handleLeaderboard)
	r.Get("/franchise/stats", h.handleFranchiseStats)
	r.Delete("/franchise/stats", h.handleInvalidateFranchiseStats)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/zones", h.handleZones)
		gr.Get("/zones/reports", h.handleZoneReport)
	})
}
