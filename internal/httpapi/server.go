// Package httpapi exposes a Store over HTTP.
//
// Routes:
//
//	GET  /                     static files
//	GET  /api/state            current state plus history position
//	POST /api/dispatch         schema-checked action JSON
//	GET  /api/snapshots        stored snapshots, newest first
//	POST /api/snapshots        persist the current teams
//	GET  /api/snapshots/{id}   one stored snapshot
//	GET  /api/stream           websocket, one state message per change
//
// The Store is single-threaded; every handler touching it holds Server.mu.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/roach88/teamsplit/internal/engine"
	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/persist"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server routes HTTP requests to a Store.
type Server struct {
	mu      sync.Mutex
	store   *engine.Store
	backend persist.Backend
	logger  *slog.Logger
	schema  *jsonschema.Schema
	hub     *hub
	mux     *http.ServeMux

	staticDir       string
	defaultStrategy string
	seed            func() int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStaticDir serves dir at /. An empty dir disables static files.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithDefaultStrategy fills GENERATE_TEAMS requests that name no strategy.
func WithDefaultStrategy(strategy string) Option {
	return func(s *Server) {
		s.defaultStrategy = strategy
	}
}

// WithSeedSource fills GENERATE_TEAMS requests that carry no seed.
func WithSeedSource(seed func() int64) Option {
	return func(s *Server) {
		s.seed = seed
	}
}

// New creates a server for store, saving snapshots to backend.
func New(store *engine.Store, backend persist.Backend, opts ...Option) (*Server, error) {
	sch, err := compileActionSchema()
	if err != nil {
		return nil, err
	}
	s := &Server{
		store:   store,
		backend: backend,
		logger:  slog.Default(),
		schema:  sch,
		hub:     newHub(),
		seed:    rand.Int64,
	}
	for _, opt := range opts {
		opt(s)
	}

	store.Subscribe(func(next, _ ir.State) {
		s.hub.broadcast(s.viewLocked(next))
	}, nil)

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/dispatch", s.handleDispatch)
	s.mux.HandleFunc("GET /api/snapshots", s.handleListSnapshots)
	s.mux.HandleFunc("POST /api/snapshots", s.handleSaveSnapshot)
	s.mux.HandleFunc("GET /api/snapshots/{id}", s.handleGetSnapshot)
	s.mux.HandleFunc("GET /api/stream", s.handleStream)
	if s.staticDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// StateView is the JSON shape of GET /api/state and stream messages.
type StateView struct {
	State          ir.State `json:"state"`
	HistoryPointer int      `json:"history_pointer"`
	HistoryLen     int      `json:"history_len"`
	Session        string   `json:"session"`
}

// DispatchResult is the JSON shape of POST /api/dispatch.
type DispatchResult struct {
	StateView
	Changed bool `json:"changed"`
}

// envelope mirrors the CLI's JSON output.
type envelope struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Error  *envelopeError `json:"error,omitempty"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// viewLocked builds a StateView; callers hold s.mu.
func (s *Server) viewLocked(state ir.State) StateView {
	return StateView{
		State:          state,
		HistoryPointer: s.store.HistoryPointer(),
		HistoryLen:     len(s.store.History()),
		Session:        s.store.Session(),
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	view := s.viewLocked(s.store.State())
	s.mu.Unlock()
	s.writeOK(w, http.StatusOK, view)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := validateAction(s.schema, body); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_ACTION", err.Error())
		return
	}

	var action ir.Action
	if err := json.Unmarshal(body, &action); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_ACTION", err.Error())
		return
	}
	if !action.Type.IsPublic() {
		s.writeError(w, http.StatusBadRequest, "INVALID_ACTION", fmt.Sprintf("%s cannot be dispatched", action.Type))
		return
	}
	if action.Type == ir.ActionGenerateTeams {
		action = s.fillGenerate(action, body)
	}

	s.mu.Lock()
	before := s.store.State()
	s.store.Dispatch(action)
	after := s.store.State()
	result := DispatchResult{StateView: s.viewLocked(after), Changed: !cmp.Equal(before, after)}
	s.mu.Unlock()

	s.logger.Debug("http dispatch", "action", action.Type, "changed", result.Changed)
	s.writeOK(w, http.StatusOK, result)
}

// fillGenerate supplies a seed and strategy the request left out.
func (s *Server) fillGenerate(action ir.Action, body []byte) ir.Action {
	p, _ := action.Payload.(ir.GeneratePayload)
	var probe struct {
		Payload struct {
			Seed *int64 `json:"seed"`
		} `json:"payload"`
	}
	_ = json.Unmarshal(body, &probe)
	if probe.Payload.Seed == nil {
		p.Seed = s.seed()
	}
	if p.Strategy == "" {
		p.Strategy = s.defaultStrategy
	}
	return ir.GenerateTeams(p.Seed, p.Strategy)
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap, err := s.store.Snapshot()
	s.mu.Unlock()

	if engine.IsValidationError(err) {
		s.writeError(w, http.StatusConflict, "NO_TEAMS", err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "SNAPSHOT_FAILED", err.Error())
		return
	}

	if err := s.backend.Write(r.Context(), snap); err != nil {
		s.logger.Error("snapshot write failed", "id", snap.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "PERSIST_FAILED", err.Error())
		return
	}
	s.logger.Info("snapshot saved", "id", snap.ID, "teams", len(snap.Teams))
	s.writeOK(w, http.StatusCreated, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.backend.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "PERSIST_FAILED", err.Error())
		return
	}
	s.writeOK(w, http.StatusOK, snaps)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.backend.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, ir.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "PERSIST_FAILED", err.Error())
		return
	}
	s.writeOK(w, http.StatusOK, snap)
}

func (s *Server) writeOK(w http.ResponseWriter, status int, data any) {
	s.writeJSON(w, status, envelope{Status: "ok", Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, envelope{Status: "error", Error: &envelopeError{Code: code, Message: message}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}
