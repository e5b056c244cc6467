package api

import (
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter registers the API handlers and wraps them with CORS, gzip and request logging.
func NewRouter(h *Handlers) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/api/monitor", h.Monitor).Methods(http.MethodPost)
	router.HandleFunc("/api/batch-monitor", h.BatchMonitor).Methods(http.MethodPost)
	router.HandleFunc("/api/cron-check", h.CronCheck).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/api/status", h.Status).Methods(http.MethodGet)
	router.HandleFunc("/api/data", h.Data).Methods(http.MethodGet)
	router.HandleFunc("/api/history", h.History).Methods(http.MethodGet)
	router.HandleFunc("/api/monthly", h.Monthly).Methods(http.MethodGet)
	router.HandleFunc("/api/current-month", h.CurrentMonth).Methods(http.MethodGet)
	router.HandleFunc("/api/recent-stats", h.RecentStats).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed on "+r.URL.Path)
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})

	return logRequests(withCORS(gziphandler.GzipHandler(router)))
}

// withCORS allows any origin and answers preflight requests directly.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Credentials", "true")
		hdr.Set("Access-Control-Allow-Origin", "*")
		hdr.Set("Access-Control-Allow-Methods", "GET,OPTIONS,POST")
		hdr.Set("Access-Control-Allow-Headers", "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, X-Api-Version")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logrus.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  rec.status,
			"elapsed": time.Since(start).Round(time.Microsecond),
		}).Debug("request served")
	})
}
