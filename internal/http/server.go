package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finance/internal/core"
	"finance/internal/middleware/security"
	"finance/internal/middleware/trace"
	"finance/internal/obs"
)

// Snapshotter yields a consistent report of the ledger.
type Snapshotter interface {
	Snapshot() core.Report
}

// Renderer turns a report into an HTML page.
type Renderer interface {
	Render(r core.Report) ([]byte, error)
}

// Server is a read-only view over the ledger: the dashboard page, the derived
// reports as JSON, health and Prometheus metrics. It never records anything.
type Server struct {
	http.Server
	source    Snapshotter
	dashboard Renderer
	logger    *slog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// metrics may be nil, in which case /metrics is not mounted.
func NewServer(addr string, source Snapshotter, dashboard Renderer, metrics *obs.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		source:    source,
		dashboard: dashboard,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)

	var observer trace.Observer
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
		observer = metrics
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	handler := trace.NewMiddleware(logger, observer).Middleware(
		headers.Middleware(security.NoStore(mux)))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.dashboard == nil {
		http.Error(w, "dashboard not configured", http.StatusNotFound)
		return
	}

	rep := s.source.Snapshot()
	page, err := s.dashboard.Render(rep)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard render failed",
			"error", err,
			"revision", rep.Revision,
			"request_id", trace.GetRequestID(r.Context()))
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rep := s.source.Snapshot()
	s.writeJSON(w, r, http.StatusOK, newSummaryResponse(rep.Revision, rep.Summary))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	rep := s.source.Snapshot()
	s.writeJSON(w, r, http.StatusOK, newCategoriesResponse(rep.Revision, rep.Categories))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	rep := s.source.Snapshot()
	s.writeJSON(w, r, http.StatusOK, newTransactionsResponse(rep.Revision, rep.Rows))
}
