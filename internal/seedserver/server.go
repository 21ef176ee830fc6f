// Package seedserver exposes seed generation and the seed archive over HTTP.
//
//	POST /v1/seeds       generate a seed (optional {"seed": n} body)
//	GET  /v1/seeds       list archived seeds (?limit=n)
//	GET  /v1/seeds/{id}  fetch an archived seed with its spoiler
//	GET  /healthz        liveness, including archive reachability
package seedserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/internal/generator"
	"github.com/cory-johannsen/dkrando/internal/observability"
	"github.com/cory-johannsen/dkrando/internal/rng"
	"github.com/cory-johannsen/dkrando/internal/spoiler"
	"github.com/cory-johannsen/dkrando/internal/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
	maxBodyBytes     = 1 << 10
	healthTimeout    = 2 * time.Second
)

// Generator produces seeds.
type Generator interface {
	Generate(ctx context.Context, seed uint64) (*generator.Result, error)
}

// Server serves the seed API. It is safe for concurrent use.
type Server struct {
	gen     Generator
	archive storage.Archive
	metrics *observability.Metrics
	logger  *zap.Logger
	newSeed func() uint64
}

// Option configures a Server.
type Option func(*Server)

// WithArchive stores every generated seed in a.
func WithArchive(a storage.Archive) Option {
	return func(s *Server) { s.archive = a }
}

// WithMetrics records request latency on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithSeedSource replaces the source of seeds for requests that name none.
func WithSeedSource(f func() uint64) Option {
	return func(s *Server) { s.newSeed = f }
}

// New creates a Server.
//
// Precondition: gen and logger must be non-nil.
func New(gen Generator, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		gen:     gen,
		logger:  logger,
		metrics: observability.NopMetrics(),
		newSeed: rng.NewSeed,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the API routes. metricsHandler, when non-nil, is served
// at GET /metrics.
func (s *Server) Handler(metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "POST /v1/seeds", s.handleGenerate)
	s.route(mux, "GET /v1/seeds", s.handleList)
	s.route(mux, "GET /v1/seeds/{id}", s.handleGet)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return mux
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, observability.Middleware(s.metrics, pattern)(h))
}

// handleHealth answers 200 unless the archive is configured and fails to
// answer a ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	p, ok := s.archive.(storage.Pinger)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		s.logger.Warn("archive health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "archive": "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "archive": "ok"})
}

type generateRequest struct {
	Seed *uint64 `json:"seed"`
}

// SeedResponse is the JSON body describing one seed.
type SeedResponse struct {
	ID        string          `json:"id,omitempty"`
	Seed      uint64          `json:"seed"`
	Hash      string          `json:"hash"`
	Attempts  int             `json:"attempts"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	Spoiler   json.RawMessage `json:"spoiler,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	seed := s.newSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	res, err := s.gen.Generate(r.Context(), seed)
	if err != nil {
		s.logger.Warn("generation failed", zap.Uint64("seed", seed), zap.Error(err))
		switch {
		case errors.Is(err, generator.ErrExhausted):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "generation cancelled")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	var doc bytes.Buffer
	if err := spoiler.Encode(&doc, spoiler.Build(res), spoiler.FormatJSON); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := SeedResponse{
		Seed:     res.Seed,
		Hash:     res.Hash,
		Attempts: res.Attempts,
		Spoiler:  json.RawMessage(bytes.TrimSpace(doc.Bytes())),
	}

	if s.archive != nil {
		settingsJSON, err := json.Marshal(res.Settings)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		stored, err := s.archive.Save(r.Context(), storage.Seed{
			Seed:     res.Seed,
			Hash:     res.Hash,
			Attempts: res.Attempts,
			Settings: settingsJSON,
			Spoiler:  resp.Spoiler,
		})
		if err != nil {
			s.logger.Error("archiving seed", zap.Uint64("seed", seed), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "archiving seed failed")
			return
		}
		resp.ID = stored.ID.String()
		resp.CreatedAt = &stored.CreatedAt
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotImplemented, "archive disabled")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid seed id")
		return
	}
	stored, err := s.archive.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrSeedNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := toResponse(stored)
	resp.Spoiler = json.RawMessage(stored.Spoiler)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotImplemented, "archive disabled")
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}
	seeds, err := s.archive.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]SeedResponse, 0, len(seeds))
	for _, st := range seeds {
		out = append(out, toResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func toResponse(st storage.Seed) SeedResponse {
	created := st.CreatedAt
	return SeedResponse{
		ID:        st.ID.String(),
		Seed:      st.Seed,
		Hash:      st.Hash,
		Attempts:  st.Attempts,
		CreatedAt: &created,
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
