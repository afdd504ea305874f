// Package server binds the manager's control surface and the per-game
// event stream to HTTP and WebSocket transports. All engine semantics stay
// behind the manager; this layer only translates requests, errors and
// frames.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hockeysim/hockeysim/sim"
	"github.com/hockeysim/hockeysim/sim/manager"
)

// RosterProvider supplies the immutable roster snapshot for a game at run
// start. It is the engine's rating input boundary: league, contract and
// lineup administration all live behind it.
type RosterProvider interface {
	Roster(ctx context.Context, gameID string) (*sim.RosterSnapshot, error)
}

// StaticProvider serves rosters from a fixed in-memory set, keyed by game
// ID. Used by the demo server and tests.
type StaticProvider map[string]*sim.RosterSnapshot

func (p StaticProvider) Roster(_ context.Context, gameID string) (*sim.RosterSnapshot, error) {
	r, ok := p[gameID]
	if !ok {
		return nil, sim.ErrNotFound
	}
	return r, nil
}

// Config tunes the HTTP server.
type Config struct {
	Addr string
	// RequestsPerSecond bounds the control surface per process; the
	// stream endpoint is exempt since it holds one long-lived connection.
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns serving defaults.
func DefaultConfig() Config {
	return Config{Addr: ":8080", RequestsPerSecond: 50, Burst: 100}
}

// Server wires handlers to a manager and roster provider.
type Server struct {
	cfg     Config
	mgr     *manager.Manager
	rosters RosterProvider
	limiter *rate.Limiter
	log     *logrus.Entry
}

// New builds a Server.
func New(cfg Config, mgr *manager.Manager, rosters RosterProvider) *Server {
	return &Server{
		cfg:     cfg,
		mgr:     mgr,
		rosters: rosters,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		log:     logrus.WithField("component", "server"),
	}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/games/{gameID}/simulations", s.handleStart)
			r.Get("/simulations/{runID}", s.handleStatus)
			r.Post("/simulations/{runID}/pause", s.handleControl("pause"))
			r.Post("/simulations/{runID}/resume", s.handleControl("resume"))
			r.Post("/simulations/{runID}/terminate", s.handleControl("terminate"))
			r.Post("/simulations/{runID}/speed", s.handleSpeed)
		})
		r.Get("/games/{gameID}/stream", s.handleStream)
	})
	return r
}

// ListenAndServe runs the server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.WithField("addr", s.cfg.Addr).Info("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// startRequest is the POST body admitting a new run.
type startRequest struct {
	Config *sim.Config         `json:"config,omitempty"`
	Seed   *int64              `json:"seed,omitempty"`
	Roster *sim.RosterSnapshot `json:"roster,omitempty"`
}

type startResponse struct {
	RunID  string        `json:"run_id"`
	GameID string        `json:"game_id"`
	Seed   int64         `json:"seed"`
	Status sim.RunStatus `json:"status"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	var req startRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
	}

	cfg := sim.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	roster := req.Roster
	if roster == nil {
		var err error
		roster, err = s.rosters.Roster(r.Context(), gameID)
		if err != nil {
			s.writeError(w, http.StatusNotFound, "no roster available for game "+gameID)
			return
		}
	}
	roster.GameID = gameID

	run, err := s.mgr.Start(roster, cfg, seed)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	report, _ := s.mgr.Status(run.ID)
	s.writeJSON(w, http.StatusCreated, startResponse{
		RunID:  run.ID,
		GameID: run.GameID,
		Seed:   run.Seed,
		Status: report.Status,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.mgr.Status(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleControl(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")
		var err error
		switch op {
		case "pause":
			err = s.mgr.Pause(runID)
		case "resume":
			err = s.mgr.Resume(runID)
		case "terminate":
			err = s.mgr.Terminate(runID, terminateReason(r))
		}
		if err != nil {
			s.writeManagerError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
	}
}

func terminateReason(r *http.Request) string {
	var body struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.Reason == "" {
		return "terminated via API"
	}
	return body.Reason
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Multiplier float64 `json:"multiplier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.mgr.SetSpeed(chi.URLParam(r, "runID"), body.Multiplier); err != nil {
		s.writeManagerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

// writeManagerError maps the engine error taxonomy onto status codes.
func (s *Server) writeManagerError(w http.ResponseWriter, err error) {
	var validation *sim.ValidationError
	var invalidState *sim.InvalidStateError
	switch {
	case errors.As(err, &validation):
		s.writeError(w, http.StatusUnprocessableEntity, validation.Error())
	case errors.Is(err, sim.ErrConflict):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sim.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sim.ErrQueueFull):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &invalidState):
		s.writeError(w, http.StatusConflict, invalidState.Error())
	default:
		s.log.WithError(err).Error("unhandled manager error")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}
