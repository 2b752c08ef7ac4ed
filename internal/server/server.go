// Package server exposes the pipeline over HTTP. Every POST endpoint takes a
// multipart form with the CSV in the "file" field.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
	"github.com/Kumkum-Mishra/CleanForge/internal/pipeline"
)

const defaultMaxUpload = 32 << 20

// Config carries the server's knobs.
type Config struct {
	Addr           string
	CORSOrigins    []string
	MaxUploadBytes int64
	ReadOptions    dataset.ReadOptions
}

// Server routes requests to a pipeline.Runner.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	logger *zap.Logger
}

func New(cfg Config, runner *pipeline.Runner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	return &Server{cfg: cfg, runner: runner, logger: logger.Named("server")}
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /profile", s.handleProfile)
	mux.HandleFunc("POST /semantic", s.handleSemantic)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /clean", s.handleClean)
	return requestLogger(s.logger)(cors(s.cfg.CORSOrigins)(mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
