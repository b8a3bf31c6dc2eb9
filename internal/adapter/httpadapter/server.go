package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outputs locates the files produced by a pipeline run.
type Outputs struct {
	FrameDir      string
	AnimationPath string
	ManifestPath  string // optional
}

// Server exposes health, readiness and metrics endpoints alongside the
// rendered frames, the animation and the run manifest.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /frames/, /animation.gif and /manifest.yaml routes. Output routes answer
// 503 until ready reports a completed run.
func NewServer(addr string, ready sharedobs.ReadinessChecker, out Outputs, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	frames := http.StripPrefix("/frames/", http.FileServer(http.Dir(out.FrameDir)))
	mux.Handle("GET /frames/", afterRun(ready, frames))
	mux.Handle("GET /animation.gif", afterRun(ready, serveFile(out.AnimationPath, "image/gif")))
	if out.ManifestPath != "" {
		mux.Handle("GET /manifest.yaml", afterRun(ready, serveFile(out.ManifestPath, "application/yaml")))
	}

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

func afterRun(ready sharedobs.ReadinessChecker, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ready.CheckReadiness(r.Context()); err != nil {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func serveFile(path, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		http.ServeFile(w, r, path)
	})
}
