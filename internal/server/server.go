// Package server provides the HTTP API for Shotseek.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/minatori/shotseek/internal/config"
	"github.com/minatori/shotseek/internal/engine"
	"github.com/minatori/shotseek/internal/ingest"
	"github.com/minatori/shotseek/internal/submit"
	"go.uber.org/zap"
)

// WatchService is the part of the artifact watcher the API manages.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the Shotseek API.
type Server struct {
	engine     *engine.Engine
	pipeline   *ingest.Pipeline
	watch      WatchService
	submitter  *submit.Client
	submitLog  *submit.Log
	config     *config.Config
	configPath string
	configMu   sync.Mutex
	logger     *zap.Logger
	server     *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithWatch attaches the artifact watcher and the config path used to
// persist directory changes made through the API.
func WithWatch(w WatchService, configPath string) ServerOption {
	return func(s *Server) {
		s.watch = w
		s.configPath = configPath
	}
}

// WithSubmit attaches the submission client and its log.
func WithSubmit(c *submit.Client, log *submit.Log) ServerOption {
	return func(s *Server) {
		s.submitter = c
		s.submitLog = log
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(eng *engine.Engine, pipeline *ingest.Pipeline, cfg *config.Config, logger *zap.Logger, opts ...ServerOption) *Server {
	s := &Server{
		engine:   eng,
		pipeline: pipeline,
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	if s.config.Server.AllowCORSOrDefault() {
		r.Use(corsAllowAll)
	}

	r.Get("/api/v1/search", s.handleSearchGet)
	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/shots/{position}", s.handleGetShot)
	r.Get("/api/v1/videos", s.handleListVideos)
	r.Get("/api/v1/videos/{id}/shots", s.handleVideoShots)
	r.Get("/api/v1/stats", s.handleStats)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Post("/api/v1/snapshot", s.handleSnapshot)
	r.Post("/api/v1/submit", s.handleSubmit)
	r.Get("/api/v1/submissions", s.handleSubmissionsList)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)

	if dir := s.config.Storage.KeyframeDir; dir != "" {
		r.Handle("/keyframes/*", http.StripPrefix("/keyframes/", http.FileServer(http.Dir(dir))))
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsAllowAll mirrors the permissive policy the browser frontend expects:
// any origin may call the API and fetch keyframes.
func corsAllowAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
