// Package server is the `cuin dev` HTTP server. It serves the analysis
// report as JSON for the web UI, plus run history, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gnana997/cuin/pkg/history"
	"github.com/gnana997/cuin/pkg/report"
	"github.com/gnana997/cuin/pkg/service"
)

const (
	// DefaultPort is the port `cuin dev` listens on.
	DefaultPort = 3214

	shutdownTimeout = 5 * time.Second
)

// Analyzer runs an analysis. *service.Service satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*service.Result, error)
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. "localhost:3214".
	Addr string

	// Path is the analyzed project path.
	Path string

	// CachePayload keeps the last report until Invalidate is called. Set it
	// when a watcher drives invalidation; otherwise every request
	// re-analyzes.
	CachePayload bool

	// History, when set, receives a snapshot of every analysis.
	History *history.Store
}

// Server serves analysis results over HTTP.
type Server struct {
	analyzer Analyzer
	opts     Options
	logger   *slog.Logger

	// mu serializes analyses and guards cached.
	mu     sync.Mutex
	cached *service.Result

	analyses atomic.Int64
}

// New creates a server.
func New(a Analyzer, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = net.JoinHostPort("localhost", strconv.Itoa(DefaultPort))
	}
	return &Server{analyzer: a, opts: opts, logger: logger}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.opts.Addr
}

// Invalidate drops the cached report so the next request re-analyzes.
func (s *Server) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/payload.json", s.handlePayload)
	mux.HandleFunc("GET /api/history.json", s.handleHistory)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("dev server listening", "url", "http://"+ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dev server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dev server shutdown: %w", err)
	}
	s.logger.Info("dev server stopped")
	return nil
}

// result returns the cached result or runs a new analysis.
func (s *Server) result(ctx context.Context) (*service.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.CachePayload && s.cached != nil {
		return s.cached, nil
	}

	res, err := s.analyzer.Analyze(ctx, s.opts.Path)
	if err != nil {
		return nil, err
	}
	s.analyses.Add(1)
	s.recordHistory(res)
	if s.opts.CachePayload {
		s.cached = res
	}
	return res, nil
}

func (s *Server) recordHistory(res *service.Result) {
	if s.opts.History == nil {
		return
	}
	snap := history.NewSnapshot(res.Report, res.Files, res.Stats.FilesFailed, res.Duration)
	if _, err := s.opts.History.SaveSnapshot(snap); err != nil {
		s.logger.Warn("failed to save history snapshot", "error", err)
	}
}

func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	res, err := s.result(r.Context())
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := report.Write(w, res.Report, false); err != nil {
		s.logger.Warn("failed to write payload", "error", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history is disabled"})
		return
	}

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	res, err := s.result(r.Context())
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	snaps, err := s.opts.History.LoadSnapshots(res.Report.Meta.BasePath, limit)
	if err != nil {
		s.logger.Error("failed to load history", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

type healthStatus struct {
	Status   string `json:"status"`
	Path     string `json:"path"`
	Cached   bool   `json:"cached"`
	Analyses int64  `json:"analyses"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	cached := s.cached != nil
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, healthStatus{
		Status:   "up",
		Path:     s.opts.Path,
		Cached:   cached,
		Analyses: s.analyses.Load(),
	})
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var aerr *service.AnalysisError
	if errors.As(err, &aerr) {
		body.Kind = aerr.Kind.String()
		if aerr.Kind == service.KindNoFilesFound || aerr.Kind == service.KindInvalidPath {
			status = http.StatusUnprocessableEntity
		}
	}
	s.logger.Warn("analysis failed", "error", err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
