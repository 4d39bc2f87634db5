// Package server exposes the backend service over HTTP with the JSON
// contract of the web front ends.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Alioninja/codeclip/internal/process"
	"github.com/Alioninja/codeclip/internal/protocol"
	"github.com/Alioninja/codeclip/internal/scan"
	"github.com/Alioninja/codeclip/internal/service"
)

// maxBodySize bounds request bodies. Process requests carry one path per
// selected file.
const maxBodySize = 32 << 20

// Server is the HTTP front of a service.Service.
type Server struct {
	svc     *service.Service
	logger  *zap.Logger
	metrics *metrics
}

// New creates a server for svc.
func New(svc *service.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, logger: logger, metrics: newMetrics()}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())

	// Directory API
	mux.HandleFunc("GET /api/get-current-directory", s.handleCurrentDirectory)
	mux.HandleFunc("POST /api/browse-directory", s.handleBrowse)
	mux.HandleFunc("POST /api/select-directory", s.handleSelect)
	mux.HandleFunc("POST /api/browse-native", s.handleBrowseNative)
	mux.HandleFunc("POST /api/find-directory", s.handleFind)
	mux.HandleFunc("GET /api/get-common-directories", s.handleCommonDirectories)
	mux.HandleFunc("GET /api/get-home-directories", s.handleHomeDirectories)

	// Processing API
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/progress", s.handleProgress)

	// Config API
	mux.HandleFunc("GET /api/get-config", s.handleGetConfig)
	mux.HandleFunc("POST /api/update-config", s.handleUpdateConfig)
	mux.HandleFunc("POST /api/reset-config", s.handleResetConfig)

	return s.instrument(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCurrentDirectory(w http.ResponseWriter, r *http.Request) {
	cwd, err := s.svc.CurrentDirectory()
	if err != nil {
		s.sendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cwd)
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	var req protocol.PathRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.svc.Browse(req.Path)
	if err != nil {
		s.sendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req protocol.PathRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.svc.SelectDirectory(r.Context(), req.Path)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.metrics.projectExtCount.Set(float64(len(p.Extensions)))
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleBrowseNative(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.BrowseNative())
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	var req protocol.FindRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.svc.FindDirectory(req.Name)
	if err != nil {
		s.sendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommonDirectories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.CommonDirectories())
}

func (s *Server) handleHomeDirectories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.HomeDirectories())
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req protocol.ProcessRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.svc.Process(r.Context(), req)
	if err != nil {
		s.metrics.processRuns.WithLabelValues("error").Inc()
		s.sendError(w, err)
		return
	}
	s.metrics.processRuns.WithLabelValues("success").Inc()
	s.metrics.processedFiles.Add(float64(resp.FileCount))
	s.metrics.processedBytes.Add(float64(resp.TotalSize))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	pct, err := s.svc.Progress(r.Context())
	if err != nil {
		s.sendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.ProgressResponse{Progress: pct})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.svc.Config()
	writeJSON(w, http.StatusOK, protocol.ConfigResponse{Success: true, Config: &cfg})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	// Fields missing from the body keep their current values.
	req := protocol.ConfigRequest{Config: s.svc.Config()}
	if !s.decode(w, r, &req) {
		return
	}
	cfg, err := s.svc.UpdateConfig(req.Config)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.ConfigResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, protocol.ConfigResponse{Success: true, Config: &cfg})
}

func (s *Server) handleResetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.svc.ResetConfig()
	writeJSON(w, http.StatusOK, protocol.ConfigResponse{Success: true, Config: &cfg})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) sendError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}
	writeJSON(w, code, protocol.ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyPath),
		errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrInvalidDirectory),
		errors.Is(err, service.ErrNoProject),
		errors.Is(err, process.ErrNoFiles),
		errors.Is(err, process.ErrNoMatchingFiles),
		errors.Is(err, scan.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
