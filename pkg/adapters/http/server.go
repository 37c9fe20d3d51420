package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/catena/internal/logging"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines what the HTTP surface needs from the chain engine.
type Engine interface {
	List(ctx context.Context) ([]string, error)
	Describe(ctx context.Context, id string) (domain.ActionDescription, error)
	Effects(ctx context.Context, id string) ([]domain.Effect, error)
	ExecuteByID(ctx context.Context, id string, task *domain.Task, tx ports.Transaction) (*domain.Result, error)
	Watch(ctx context.Context) (<-chan string, error)
}

// Server serves the catalog of an Engine over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	version string
	metrics prometheus.Gatherer
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes the metrics of g under GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = g
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// ExecuteRequest is the body of POST /chains/{id}/execute.
type ExecuteRequest struct {
	Data    *domain.Dataset `json:"data,omitempty"`
	Surface *domain.Surface `json:"surface,omitempty"`
	Object  string          `json:"object,omitempty"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Index *int   `json:"index,omitempty"`
}

// NewHandler creates a new HTTP handler for the engine.
// Chain IDs containing slashes must be path-escaped, e.g. /chains/orders%2Fclose.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		version: "unknown",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/chains", func(r chi.Router) {
		r.Get("/", s.ListChains)
		r.Get("/{id}", s.GetChain)
		r.Get("/{id}/effects", s.GetEffects)
		r.Post("/{id}/execute", s.ExecuteChain)
	})
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "catena-http",
		"version": s.version,
	})
}

// ListChains handles the GET /chains request.
func (s *Server) ListChains(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"chains": ids})
}

// GetChain handles the GET /chains/{id} request.
func (s *Server) GetChain(w http.ResponseWriter, r *http.Request) {
	id, ok := s.chainID(w, r)
	if !ok {
		return
	}
	desc, err := s.Engine.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, desc)
}

// GetEffects handles the GET /chains/{id}/effects request.
func (s *Server) GetEffects(w http.ResponseWriter, r *http.Request) {
	id, ok := s.chainID(w, r)
	if !ok {
		return
	}
	effects, err := s.Engine.Effects(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]domain.EffectDescription, len(effects))
	for i, e := range effects {
		out[i] = domain.DescribeEffect(e)
	}
	s.writeJSON(w, http.StatusOK, map[string][]domain.EffectDescription{"effects": out})
}

// ExecuteChain handles the POST /chains/{id}/execute request.
// The engine owns the transaction. The result is also broadcast to /events?chain={id}.
func (s *Server) ExecuteChain(w http.ResponseWriter, r *http.Request) {
	id, ok := s.chainID(w, r)
	if !ok {
		return
	}

	var body ExecuteRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.logger.Warn("ExecuteChain: invalid request body", "err", err)
			s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
	}

	task := domain.NewTask(body.Data)
	task.Surface = body.Surface
	if body.Object != "" {
		o := domain.ParseObject(body.Object)
		task.Object = &o
	}

	res, err := s.Engine.ExecuteByID(r.Context(), id, task, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if payload, err := json.Marshal(res); err == nil {
		s.Streams.Broadcast(id, string(payload))
	}
	s.writeJSON(w, http.StatusOK, res)
}

// SubscribeEvents handles the GET /events request (SSE).
// Without a chain parameter it streams catalog changes; with ?chain={id} it streams the
// results of every execution of that chain.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var events <-chan string
	if chainID := r.URL.Query().Get("chain"); chainID != "" {
		ch, cancel := s.Streams.Subscribe(chainID)
		defer cancel()
		events = ch
		s.logger.Info("SSE: subscribing to executions", "chain", chainID)
	} else {
		ch, err := s.Engine.Watch(r.Context())
		if err != nil {
			s.writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: err.Error()})
			return
		}
		events = ch
		s.logger.Info("SSE: subscribing to catalog changes")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

func (s *Server) chainID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid chain id"})
		return "", false
	}
	return id, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var ce *domain.ConfigError
	var se *domain.StepError
	switch {
	case errors.Is(err, domain.ErrChainNotFound):
		status = http.StatusNotFound
	case errors.As(err, &ce):
		status = http.StatusUnprocessableEntity
		resp.Code = ce.Code
		if ce.Index >= 0 {
			resp.Index = &ce.Index
		}
	case errors.Is(err, domain.ErrInvalidDescription), errors.Is(err, domain.ErrUnknownAction):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &se):
		resp.Index = &se.Index
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
