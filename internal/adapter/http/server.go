// Package http serves the rendered choropleth alongside health,
// readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/temp-choropleth-service/internal/render"
)

// frameCacheEntries bounds how many rendered frame SVGs are kept in memory.
const frameCacheEntries = 32

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// RunView exposes the artifacts of the most recent pipeline run. Both
// methods return nil until a run has completed.
type RunView interface {
	Animation() *render.Animation
	StaticSVG() []byte
}

// Server exposes the viewer plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	view       RunView
	logger     *slog.Logger

	mu     sync.Mutex
	cached *render.Animation
	frames *render.FrameCache
}

// NewServer creates an HTTP server with the animation page at /, frame
// SVGs under /frames/{index}, the static map at /static, and the usual
// /healthz, /readyz, and /metrics routes.
func NewServer(addr string, ready ReadinessChecker, view RunView, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		view:   view,
		logger: logger,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /frames/{index}", s.handleFrame)
	mux.HandleFunc("GET /static", s.handleStatic)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	anim := s.view.Animation()
	if anim == nil {
		http.Error(w, "no animation rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := anim.WriteHTML(w); err != nil {
		s.logger.Error("write animation page", "error", err)
	}
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "frame index must be an integer", http.StatusBadRequest)
		return
	}
	cache, ok := s.frameCache()
	if !ok {
		http.Error(w, "no animation rendered yet", http.StatusServiceUnavailable)
		return
	}
	if index < 0 || index >= cache.FrameCount() {
		http.Error(w, "no such frame", http.StatusNotFound)
		return
	}
	svg, err := cache.Frame(index)
	if err != nil {
		s.logger.Error("render frame", "index", index, "error", err)
		http.Error(w, "frame rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg) //nolint:errcheck // client may hang up mid-body
}

func (s *Server) handleStatic(w http.ResponseWriter, _ *http.Request) {
	svg := s.view.StaticSVG()
	if svg == nil {
		http.Error(w, "no map rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg) //nolint:errcheck // client may hang up mid-body
}

// frameCache returns the cache for the current animation, rebuilding it
// when a newer run has replaced the animation.
func (s *Server) frameCache() (*render.FrameCache, bool) {
	anim := s.view.Animation()
	if anim == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if anim != s.cached {
		s.cached = anim
		s.frames = render.NewFrameCache(anim, frameCacheEntries)
	}
	return s.frames, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
