// internal/server/server.go
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"propsim/internal/common/config"
	apperrors "propsim/internal/common/errors"
	"propsim/internal/common/logger"
	"propsim/internal/service"
	"propsim/internal/storage"
)

// Server exposes the simulator over REST. Scenario execution, ad-hoc
// simulation, and validated writes go through the service layer; plain
// record reads and deletes talk to storage directly.
type Server struct {
	cfg           config.ServerConfig
	sweepDefaults config.SweepConfig
	repo          storage.Repository
	svc           *service.Service
	log           logger.Logger
	httpServer    *http.Server
}

// New wires the router and the underlying http.Server. Timeouts come from
// the server config in milliseconds.
func New(cfg config.ServerConfig, sweepDefaults config.SweepConfig, repo storage.Repository, svc *service.Service, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Server{
		cfg:           cfg,
		sweepDefaults: sweepDefaults,
		repo:          repo,
		svc:           svc,
		log:           log.WithFields(map[string]interface{}{"component": "http-server"}),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Routes(),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
	return s
}

// Routes assembles the chi router. Exposed separately so tests can drive
// handlers through httptest without binding a socket.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", s.listProperties)
			r.Post("/", s.createProperty)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getProperty)
				r.Put("/", s.updateProperty)
				r.Delete("/", s.deleteProperty)
				r.Get("/scenarios", s.listScenarios)
				r.Post("/scenarios", s.createScenario)
			})
		})
		r.Route("/scenarios/{id}", func(r chi.Router) {
			r.Get("/", s.getScenario)
			r.Put("/", s.updateScenario)
			r.Delete("/", s.deleteScenario)
			r.Post("/duplicate", s.duplicateScenario)
			r.Post("/runs", s.runScenario)
			r.Get("/runs", s.listRuns)
		})
		r.Get("/runs/{id}/csv", s.runCSV)
		r.Post("/simulate", s.simulate)
		r.Post("/sweep", s.sweep)
	})
	return r
}

// Start begins serving and blocks until the listener fails or Shutdown
// runs. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", map[string]interface{}{
		"address": s.cfg.Address,
	})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("HTTP server shutting down", nil)
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "propsim",
	})
}

// handleReady pings storage; a failed ping reports 503 so orchestrators
// hold traffic until the database comes back.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		s.fail(w, r, apperrors.NewStorageConnectionFailedError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
