package payouts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/thekada/revenue-engine/internal/platform/httpx"
)

// Handler manages the payout endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the payout handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers payout routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/payouts", h.handleEarnings)
	r.Post("/payouts/process", h.handleProcess)
	r.Get("/payouts/history", h.handleHistory)
	r.Get("/payouts/recipients", h.handleRecipients)
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}

	rec, err := h.service.Process(r.Context(), req)
	if err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", verr.Error())
			return
		}
		h.logger.Error("payout processing failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Payout Failed", "the payout could not be stored")
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year := 0
	month := time.January
	if raw := q.Get("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Month", "month must be formatted as YYYY-MM")
			return
		}
		year, month = parsed.Year(), parsed.Month()
	}

	records, err := h.service.History(r.Context(), year, month)
	if err != nil {
		h.logger.Error("payout history query failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "History Unavailable", "the payout ledger could not be read")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payouts": records})
}

func (h *Handler) handleRecipients(w http.ResponseWriter, r *http.Request) {
	recipients, err := h.service.Recipients(r.Context())
	if err != nil {
		h.logger.Error("payout recipients query failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Recipients Unavailable", "approved franchises could not be listed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"recipients": recipients})
}

func (h *Handler) handleEarnings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	zoneID, err := strconv.ParseInt(q.Get("zoneId"), 10, 64)
	if err != nil || zoneID < 1 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Zone", "zoneId must be a positive integer")
		return
	}
	from, to := q.Get("dateFrom"), q.Get("dateTo")
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "dateFrom and dateTo must be formatted as YYYY-MM-DD")
			return
		}
	}
	httpx.JSON(w, http.StatusOK, h.service.Earnings(r.Context(), zoneID, from, to))
}
