package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"linkmon/internal/models"
	"linkmon/internal/monitor"
	"linkmon/internal/report"
	"linkmon/internal/storage"
	"linkmon/internal/urlutil"
)

// Monitor runs checks on behalf of the API.
type Monitor interface {
	Check(ctx context.Context, url string) (models.CheckOutcome, error)
	CheckMany(ctx context.Context, urls []string) []models.CheckOutcome
	Run(ctx context.Context) (*monitor.RunSummary, error)
}

// Handlers holds dependencies for the API handlers.
type Handlers struct {
	monitor Monitor
	reports *report.Service
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(m Monitor, reports *report.Service) *Handlers {
	return &Handlers{monitor: m, reports: reports}
}

type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to write response")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: true, Message: msg})
}

// writeError maps err onto a status code: caller mistakes are 400, unknown URLs 404, the rest 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, report.ErrInvalidInput), errors.Is(err, urlutil.ErrInvalidURL):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		logrus.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeMessage(w, http.StatusInternalServerError, err.Error())
	}
}

// Monitor probes and records a single URL.
func (h *Handlers) Monitor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.URL == "" {
		writeMessage(w, http.StatusBadRequest, "url is required")
		return
	}
	if err := urlutil.Validate(body.URL); err != nil {
		writeError(w, r, err)
		return
	}

	outcome, err := h.monitor.Check(r.Context(), body.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": outcome})
}

// BatchMonitor probes and records several URLs at once.
func (h *Handlers) BatchMonitor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.URLs) == 0 {
		writeMessage(w, http.StatusBadRequest, "urls must be a non-empty array")
		return
	}
	for _, u := range body.URLs {
		if err := urlutil.Validate(u); err != nil {
			writeError(w, r, err)
			return
		}
	}

	outcomes := h.monitor.CheckMany(r.Context(), body.URLs)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(outcomes), "data": outcomes})
}

// CronCheck performs one scheduled ingestion-and-check run.
func (h *Handlers) CronCheck(w http.ResponseWriter, r *http.Request) {
	summary, err := h.monitor.Run(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		*monitor.RunSummary
	}{true, "check run complete", summary})
}

// Status returns the latest status of ?url, or of every URL.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	if url := r.URL.Query().Get("url"); url != "" {
		ls, err := h.reports.Latest(r.Context(), url)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": ls})
		return
	}
	all, err := h.reports.ListLatest(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(all), "data": all})
}

// Data lists raw history rows filtered by ?url, ?available and ?limit.
func (h *Handlers) Data(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := report.DataFilter{URL: q.Get("url")}
	if a := q.Get("available"); a != "" {
		v := a == "true"
		f.Available = &v
	}
	if l := q.Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v <= 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = v
	}

	rows, err := h.reports.Data(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(rows), "data": rows})
}

// History pages through the current month's checks of ?url.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	hp, err := h.reports.History(r.Context(), q.Get("url"), page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*report.HistoryPage
	}{true, hp})
}

// Monthly returns the per-URL, per-day uptime map of ?month in ?timezone.
func (h *Handlers) Monthly(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mu, err := h.reports.MonthlyUptime(r.Context(), q.Get("month"), q.Get("timezone"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*report.MonthlyUptime
	}{true, mu})
}

// CurrentMonth returns this month's daily buckets of ?url.
func (h *Handlers) CurrentMonth(w http.ResponseWriter, r *http.Request) {
	cm, err := h.reports.CurrentMonth(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": cm})
}

// RecentStats returns the trailing-window series of ?url, or of every URL.
func (h *Handlers) RecentStats(w http.ResponseWriter, r *http.Request) {
	var (
		data any
		err  error
	)
	if url := r.URL.Query().Get("url"); url != "" {
		data, err = h.reports.Recent(r.Context(), url)
	} else {
		data, err = h.reports.RecentAll(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// Healthz is a simple health check endpoint.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
