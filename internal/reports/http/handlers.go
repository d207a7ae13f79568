// Package reporthttp exposes the analytics, leaderboard, and zone report
// endpoints.
package reporthttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/thekada/revenue-engine/internal/platform/httpx"
	"github.com/thekada/revenue-engine/internal/reconcile"
	"github.com/thekada/revenue-engine/internal/reports"
)

// ReportService is the reporter contract used by the handler.
type ReportService interface {
	Analytics(ctx context.Context, refresh bool) reports.AnalyticsResult
	InvalidateAnalytics(ctx context.Context)
	Leaderboard(ctx context.Context, monthKey string, limit int) (reports.LeaderboardReport, error)
	FranchiseStats(ctx context.Context, zoneID int64, refresh bool) reports.FranchiseStatsReport
	InvalidateFranchiseStats(ctx context.Context, zoneID int64)
	Zones(ctx context.Context) []reconcile.Zone
	ZoneReport(ctx context.Context) reports.ZoneReportSummary
	ZoneDetail(ctx context.Context, zoneID int64) (reports.ZoneReportDetail, error)
}

// Handler coordinates HTTP requests for the reporting surface.
type Handler struct {
	logger  *slog.Logger
	service ReportService
}

// NewHandler constructs the reports HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"
	result := h.service.Analytics(r.Context(), refresh)
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleInvalidateAnalytics(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateAnalytics(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Limit", "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	report, err := h.service.Leaderboard(r.Context(), q.Get("month"), limit)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Month", "month must be formatted as YYYY-MM")
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleFranchiseStats(w http.ResponseWriter, r *http.Request) {
	zoneID, ok := zoneIDParam(w, r)
	if !ok {
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"
	httpx.JSON(w, http.StatusOK, h.service.FranchiseStats(r.Context(), zoneID, refresh))
}

func (h *Handler) handleInvalidateFranchiseStats(w http.ResponseWriter, r *http.Request) {
	zoneID, ok := zoneIDParam(w, r)
	if !ok {
		return
	}
	h.service.InvalidateFranchiseStats(r.Context(), zoneID)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) handleZones(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"zones": h.service.Zones(r.Context())})
}

func (h *Handler) handleZoneReport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("zoneId") == "" {
		httpx.JSON(w, http.StatusOK, h.service.ZoneReport(r.Context()))
		return
	}
	zoneID, ok := zoneIDParam(w, r)
	if !ok {
		return
	}
	detail, err := h.service.ZoneDetail(r.Context(), zoneID)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Zone Not Found", "no zone exists with the requested id")
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func zoneIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("zoneId")
	zoneID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || zoneID < 1 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Zone", "zoneId must be a positive integer")
		return 0, false
	}
	return zoneID, true
}
