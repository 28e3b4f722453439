package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/labor-tracker/internal/application"
)

type costService interface {
	LiveCost(ctx context.Context) (application.LiveCostReport, error)
	LiveCostWithRates(ctx context.Context) (application.PrivilegedLiveCostReport, error)
	CostSummary(ctx context.Context, start, end time.Time, project string) (application.CostSummary, error)
	CostSummaryWithRates(ctx context.Context, start, end time.Time, project string) (application.PrivilegedCostSummary, error)
}

type forecastService interface {
	Forecast(ctx context.Context, start, end time.Time, days int, project string) (application.Forecast, error)
}

type CostHandler struct {
	costs     costService
	forecasts forecastService
	responder responder
}

func NewCostHandler(costs costService, forecasts forecastService, logger *slog.Logger) *CostHandler {
	return &CostHandler{costs: costs, forecasts: forecasts, responder: newResponder(logger)}
}

func (h *CostHandler) Live(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.costs == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	report, err := h.costs.LiveCost(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, report)
}

func (h *CostHandler) LiveWithRates(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.costs == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !h.requireRatesPermission(w, r) {
		return
	}

	report, err := h.costs.LiveCostWithRates(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, report)
}

func (h *CostHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.costs == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	start, end, project, err := parseRangeParams(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	summary, err := h.costs.CostSummary(r.Context(), start, end, project)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, summary)
}

func (h *CostHandler) SummaryWithRates(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.costs == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !h.requireRatesPermission(w, r) {
		return
	}

	start, end, project, err := parseRangeParams(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	summary, err := h.costs.CostSummaryWithRates(r.Context(), start, end, project)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, summary)
}

func (h *CostHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.forecasts == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	start, end, project, err := parseRangeParams(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	days := 30
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("days must be an integer"))
			return
		}
	}

	forecast, err := h.forecasts.Forecast(r.Context(), start, end, days, project)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, forecast)
}

// requireRatesPermission enforces the edge gate in front of the privileged
// views. The safe endpoints never reach compensation data, so only these
// entry points carry the check.
func (h *CostHandler) requireRatesPermission(w http.ResponseWriter, r *http.Request) bool {
	auth, _ := AuthFromContext(r.Context())
	if !auth.HasPermission(application.PermissionViewRates) {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return false
	}
	return true
}

func parseRangeParams(query url.Values) (start, end time.Time, project string, err error) {
	start, err = parseTimeParam(query.Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, "", errors.New("start must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}
	if start.IsZero() {
		return time.Time{}, time.Time{}, "", errors.New("start is required")
	}

	end, err = parseTimeParam(query.Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, "", errors.New("end must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}
	if end.IsZero() {
		return time.Time{}, time.Time{}, "", errors.New("end is required")
	}

	return start, end, strings.TrimSpace(query.Get("project")), nil
}

func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}
