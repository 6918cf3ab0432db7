package vizserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"sensorsim/internal/config"
	"sensorsim/internal/logging"
	"sensorsim/internal/model"
	"sensorsim/internal/scape"
	"sensorsim/internal/storage"
)

const (
	shutdownTimeout = 5 * time.Second

	// DefaultMaxTicks and DefaultMaxAgents bound runs started over HTTP.
	DefaultMaxTicks  = 10000
	DefaultMaxAgents = 1000

	maxRequestBody = 1 << 20
)

// RunFunc starts a simulation. The server wires it to an experiment.Runner
// observed by the hub.
type RunFunc func(ctx context.Context, exp config.Experiment) (model.RunRecord, error)

type Config struct {
	Store storage.Store
	Hub   *Hub
	// Base is the experiment POST /api/runs starts from.
	Base config.Experiment
	// Run is required for POST /api/runs; nil disables the route.
	Run    RunFunc
	Logger *slog.Logger
	// AccessLog receives one combined-log line per request. Nil disables it.
	AccessLog io.Writer
	// MaxTicks and MaxAgents cap POST /api/runs. Zero selects the defaults.
	MaxTicks  int
	MaxAgents int
}

type Server struct {
	store     storage.Store
	hub       *Hub
	base      config.Experiment
	run       RunFunc
	logger    *slog.Logger
	accessLog io.Writer
	maxTicks  int
	maxAgents int
}

// startRunRequest holds the fields a client may override. Storage, logging
// and artifact output always come from the server's base experiment.
type startRunRequest struct {
	Topology config.TopologyConfig `json:"topology"`
	Agents   config.AgentsConfig   `json:"agents"`
	Network  config.NetworkConfig  `json:"network"`
	Ticks    int                   `json:"ticks"`
	Seed     int64                 `json:"seed"`
	Scoring  bool                  `json:"scoring"`
}

type runDetail struct {
	Run    model.RunRecord       `json:"run"`
	Agents []model.AgentSnapshot `json:"agents"`
}

type errorBody struct {
	Error string `json:"error"`
}

func NewServer(cfg Config) *Server {
	s := &Server{
		store:     cfg.Store,
		hub:       cfg.Hub,
		base:      cfg.Base,
		run:       cfg.Run,
		logger:    cfg.Logger,
		accessLog: cfg.AccessLog,
		maxTicks:  cfg.MaxTicks,
		maxAgents: cfg.MaxAgents,
	}
	if s.maxTicks <= 0 {
		s.maxTicks = DefaultMaxTicks
	}
	if s.maxAgents <= 0 {
		s.maxAgents = DefaultMaxAgents
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	return s
}

func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/api/topologies", s.handleTopologies).Methods(http.MethodGet)
	router.HandleFunc("/api/runs", s.handleListRuns).Methods(http.MethodGet)
	router.HandleFunc("/api/runs/{id:[a-zA-Z0-9\\-]+}", s.handleGetRun).Methods(http.MethodGet)
	if s.run != nil {
		router.HandleFunc("/api/runs", s.handleStartRun).Methods(http.MethodPost)
	}
	router.HandleFunc("/ws", s.hub.ServeWS).Methods(http.MethodGet)

	if s.accessLog == nil {
		return router
	}
	return handlers.CombinedLoggingHandler(s.accessLog, router)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("viz server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleTopologies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scape.Names())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []model.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, ok, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "run not found: " + id})
		return
	}
	agents, _, err := s.store.GetAgentSnapshots(r.Context(), id)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runDetail{Run: run, Agents: agents})
}

// handleStartRun runs the base experiment, overlaid by the simulation fields
// of the JSON body, and answers with the finished record. Ticks stream to
// watchers meanwhile.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody{Error: "content type must be application/json"})
		return
	}

	req := startRunRequest{
		Topology: s.base.Topology,
		Agents:   s.base.Agents,
		Network:  s.base.Network,
		Ticks:    s.base.Ticks,
		Seed:     s.base.Seed,
		Scoring:  s.base.Scoring,
	}
	req.Network.Hidden = append([]int(nil), s.base.Network.Hidden...)

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "decode experiment: " + err.Error()})
		return
	}
	if req.Ticks > s.maxTicks {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("ticks must be at most %d, got %d", s.maxTicks, req.Ticks)})
		return
	}
	if req.Agents.Count > s.maxAgents {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("agent count must be at most %d, got %d", s.maxAgents, req.Agents.Count)})
		return
	}

	exp := s.base
	exp.Topology = req.Topology
	exp.Agents = req.Agents
	exp.Network = req.Network
	exp.Ticks = req.Ticks
	exp.Seed = req.Seed
	exp.Scoring = req.Scoring
	if err := exp.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	run, err := s.run(r.Context(), exp)
	if err != nil {
		if errors.Is(err, scape.ErrTopologyNotFound) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.logger.Error("request failed", "status", status, "error", err)
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
