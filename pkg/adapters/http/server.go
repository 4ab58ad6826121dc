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

	"github.com/aretw0/strata/internal/logging"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/ports"
	"github.com/aretw0/strata/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine is what the HTTP adapter needs from the composition engine.
type Engine interface {
	ports.CompositionService
	Watch(ctx context.Context) (<-chan string, error)
}

// Server serves composed-stage queries.
type Server struct {
	Engine  Engine
	logger  *slog.Logger
	metrics http.Handler
	version string
	events  *eventHub
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion reports v from /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = newEventHub(engine, s.logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/stages/{layer}/prims", s.GetPrim)
	r.Get("/stages/{layer}/prims/*", s.GetPrim)
	r.Get("/stages/{layer}/attr/{attr}/prims/*", s.GetAttribute)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetPrim handles GET /stages/{layer}/prims/*.
func (s *Server) GetPrim(w http.ResponseWriter, r *http.Request) {
	layerID, path, ok := s.target(w, r)
	if !ok {
		return
	}

	idx, err := s.Engine.Inspect(r.Context(), layerID, path)
	if err != nil {
		s.fail(w, err, "Inspect failed", "layer", layerID, "path", path)
		return
	}

	s.writeJSON(w, http.StatusOK, PrimResponse{
		Layer:  layerID,
		Path:   path,
		Exists: path.IsRoot() || !idx.IsEmpty(),
		Index:  idx,
		Errors: issuesOf(idx),
	})
}

// GetAttribute handles GET /stages/{layer}/attr/{attr}/prims/*.
func (s *Server) GetAttribute(w http.ResponseWriter, r *http.Request) {
	layerID, path, ok := s.target(w, r)
	if !ok {
		return
	}
	attr := chi.URLParam(r, "attr")

	v, found, err := s.Engine.AttributeValue(r.Context(), layerID, path, attr)
	if err != nil {
		s.fail(w, err, "Attribute lookup failed", "layer", layerID, "path", path, "attribute", attr)
		return
	}

	resp := AttributeResponse{Layer: layerID, Path: path, Attribute: attr, Found: found}
	if found {
		raw, err := schema.Encode(v)
		if err != nil {
			s.fail(w, err, "Attribute encode failed", "layer", layerID, "path", path, "attribute", attr)
			return
		}
		resp.Type = schema.TypeNameOf(v)
		resp.Value = raw
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "strata-http",
		"version": strings.TrimSpace(s.version),
	})
}

// SubscribeEvents handles the GET /events request (SSE). Each message is
// the identifier of a layer that changed outside the process. All clients
// share one engine watch.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	events, err := s.events.subscribe()
	if err != nil {
		s.fail(w, err, "Watch failed")
		return
	}
	defer s.events.unsubscribe(events)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: layer_changed\ndata: %s\n\n", id)
			flusher.Flush()
		}
	}
}

// target extracts the root layer and prim path. Layer identifiers with
// slashes are sent percent-encoded.
func (s *Server) target(w http.ResponseWriter, r *http.Request) (string, domain.Path, bool) {
	layerID, err := url.PathUnescape(chi.URLParam(r, "layer"))
	if err != nil || layerID == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid layer identifier"})
		return "", "", false
	}
	path, err := domain.ParsePath("/" + strings.Trim(chi.URLParam(r, "*"), "/"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return "", "", false
	}
	return layerID, path, true
}

func (s *Server) fail(w http.ResponseWriter, err error, msg string, args ...any) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrLayerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPath), errors.Is(err, domain.ErrInvalidIdentifier):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(msg, append(args, "err", err)...)
	} else {
		s.logger.Debug(msg, append(args, "err", err)...)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
