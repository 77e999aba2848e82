package ipc

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server wraps an HTTP server with engine-specific routing.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server that binds to the given address.
func NewServer(h *Handler, listenAddr string) *Server {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           corsMiddleware(h.instrument(h.Routes())),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: srv}
}

// Routes registers every endpoint on a new ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Schedule queries.
	mux.HandleFunc("GET /api/v1/calendar", h.GetCalendar)
	mux.HandleFunc("GET /api/v1/custody", h.GetCustody)

	// Rules and validation.
	mux.HandleFunc("GET /api/v1/rules", h.ListRules)
	mux.HandleFunc("GET /api/v1/rules/{ruleID}", h.GetRule)
	mux.HandleFunc("POST /api/v1/validate", h.ValidateRules)
	mux.HandleFunc("POST /api/v1/validate/schedule", h.ValidateSchedule)

	// Policy checks.
	mux.HandleFunc("POST /api/v1/policy/rofr", h.CheckRefusal)
	mux.HandleFunc("POST /api/v1/policy/travel", h.CheckTravel)
	mux.HandleFunc("POST /api/v1/policy/childcare", h.CheckChildcare)

	// Calendar sync.
	mux.HandleFunc("POST /api/v1/sync", h.TriggerSync)
	mux.HandleFunc("GET /api/v1/sync/runs", h.ListSyncRuns)

	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics.Handler())
	}
	return mux
}

// Start begins listening for HTTP connections. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for browser clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
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

// instrument records request metrics by route pattern and logs each request.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		elapsed := time.Since(began)
		if h.Metrics != nil {
			h.Metrics.ObserveHTTP(r.Method, pattern, rec.status, elapsed)
		}
		if h.Log != nil {
			h.Log.WithFields(logrus.Fields{
				"method":  r.Method,
				"path":    r.URL.Path,
				"status":  rec.status,
				"elapsed": elapsed.String(),
			}).Debug("request")
		}
	})
}
