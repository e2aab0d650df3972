// internal/server/server.go

// Package server exposes the caller-facing HTTP surface: single-shot
// generation, streaming sessions, scheduler control, and post reads.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/user/inkwell/internal/pipeline"
	"github.com/user/inkwell/internal/scheduler"
	"github.com/user/inkwell/internal/stream"
	"github.com/user/inkwell/internal/types"
)

// Server is a lightweight HTTP handler over the content pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	proxy    *stream.Proxy
	sched    *scheduler.Scheduler
	store    types.ContentStore
	mux      *http.ServeMux
}

// New creates a Server wired to the pipeline, streaming proxy, scheduler, and
// content store.
func New(p *pipeline.Pipeline, proxy *stream.Proxy, sched *scheduler.Scheduler, store types.ContentStore) *Server {
	s := &Server{
		pipeline: p,
		proxy:    proxy,
		sched:    sched,
		store:    store,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/generate/stream", s.handleGenerateStream)
	s.mux.HandleFunc("GET /api/scheduler", s.handleSchedulerStatus)
	s.mux.HandleFunc("POST /api/scheduler/start", s.handleSchedulerStart)
	s.mux.HandleFunc("POST /api/scheduler/stop", s.handleSchedulerStop)
	s.mux.HandleFunc("GET /api/posts", s.handlePosts)
	s.mux.HandleFunc("GET /api/posts/{slug}", s.handlePostBySlug)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// generateRequest is the JSON body for POST /api/generate.
type generateRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	post, err := s.pipeline.Generate(r.Context(), req.Topic)
	if err != nil {
		slog.Error("generation failed", "topic", req.Topic, "error", err)
		status, msg := mapFailure(err)
		httpError(w, status, msg)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}

// mapFailure translates a pipeline error into a status code and an
// operator-facing message that distinguishes transient outages from
// producer-format drift.
func mapFailure(err error) (int, string) {
	switch pipeline.Classify(err) {
	case pipeline.FailureUpstream:
		return http.StatusBadGateway, "upstream agent unavailable"
	case pipeline.FailureUnusable:
		return http.StatusBadGateway, "agent returned unusable content"
	case pipeline.FailureValidation:
		return http.StatusUnprocessableEntity, "generated content failed validation"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// streamRequest is the JSON body for POST /api/generate/stream.
type streamRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Prompt == "" {
		httpError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The request context doubles as the cancellation token: a client
	// disconnect tears down the upstream agent connection.
	_, err := s.proxy.Open(r.Context(), req.Prompt, func(ev stream.Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	})
	if err != nil {
		slog.Error("streaming session failed", "error", err)
	}
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"armed": s.sched.IsArmed()})
}

func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	if err := s.sched.Start(); err != nil {
		slog.Error("scheduler start failed", "error", err)
		httpError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"armed": true})
}

func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	s.sched.Stop()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"armed": false})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.List(r.Context(), 50)
	if err != nil {
		slog.Error("list posts failed", "error", err)
		httpError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(posts)
}

func (s *Server) handlePostBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	post, err := s.store.FindBySlug(r.Context(), slug)
	if err != nil {
		slog.Error("find post failed", "slug", slug, "error", err)
		httpError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if post == nil {
		httpError(w, http.StatusNotFound, "post not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
