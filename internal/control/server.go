// Package control serves a read-only HTTP inspection API over a running
// population of sampler chains, plus a queue of accepted commands
// (pause, resume, request-snapshot). The sampler does not read that
// queue: commands are accepted and buffered, not acted on. It follows
// the teacher's internal/api chi-router/middleware/lifecycle idiom.
package control

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Command is one inspection request accepted on POST /commands and
// buffered on the Commands channel. Package sampler does not read that
// channel, so a queued command has no effect on a running chain.
type Command struct {
	Kind string // "pause", "resume", "snapshot"
	ID   string
}

// Snapshot is the inspection payload the server hands back for /status:
// a point-in-time summary of every chain's progress, refreshed by
// whatever drives the population (cmd/dpmtfbs).
type Snapshot struct {
	RunID      uuid.UUID       `json:"run_id"`
	Paused     bool            `json:"paused"`
	StartedAt  time.Time       `json:"started_at"`
	Chains     []ChainStatus   `json:"chains"`
}

// ChainStatus is one chain's latest recorded scalars.
type ChainStatus struct {
	Index         int     `json:"index"`
	Step          int     `json:"step"`
	Switches      int     `json:"switches"`
	LogLikelihood float64 `json:"log_likelihood"`
	LogPosterior  float64 `json:"log_posterior"`
	NumComponents int     `json:"num_components"`
	Temperature   float64 `json:"temperature"`
}

// Server is the control-plane HTTP surface: GET /status for a read-only
// inspection snapshot, POST /commands to enqueue a pause/resume/snapshot
// request on the Commands channel.
type Server struct {
	RunID uuid.UUID

	mu       sync.RWMutex
	snapshot Snapshot

	commands chan Command

	router *chi.Mux
	server *http.Server
}

// NewServer builds a control server listening on addr, with a command
// queue of the given buffer size. When reg is non-nil, the Prometheus
// collectors registered against it are additionally exposed on
// GET /metrics.
func NewServer(addr string, commandQueueSize int, reg *prometheus.Registry) *Server {
	s := &Server{
		RunID:    uuid.New(),
		commands: make(chan Command, commandQueueSize),
	}
	s.snapshot = Snapshot{RunID: s.RunID, StartedAt: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/status", s.handleStatus)
	r.Post("/commands", s.handleEnqueueCommand)
	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	s.router = r
	s.server = &http.Server{Addr: addr, Handler: r}
	return s
}

// Start begins serving and blocks until Shutdown is called or the
// listener fails.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// UpdateSnapshot replaces the inspection snapshot the /status endpoint
// serves. cmd/dpmtfbs calls it once, with every chain's final status,
// after sampling has finished.
func (s *Server) UpdateSnapshot(paused bool, chains []ChainStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Paused = paused
	s.snapshot.Chains = chains
}

// Commands returns the channel accepted commands are queued on. Nothing
// in package sampler or cmd/dpmtfbs reads from it.
func (s *Server) Commands() <-chan Command {
	return s.commands
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleEnqueueCommand(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid command body: "+err.Error())
		return
	}
	switch cmd.Kind {
	case "pause", "resume", "snapshot":
	default:
		s.respondError(w, http.StatusBadRequest, "unknown command kind: "+cmd.Kind)
		return
	}
	cmd.ID = uuid.NewString()

	select {
	case s.commands <- cmd:
		s.respondJSON(w, http.StatusAccepted, cmd)
	default:
		s.respondError(w, http.StatusServiceUnavailable, "command queue full")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
