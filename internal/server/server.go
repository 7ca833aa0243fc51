// Package server exposes the assistant over HTTP for the web front-end.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/harunnryd/eventcorner/internal/backend"
	"github.com/harunnryd/eventcorner/internal/config"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/transcript"
)

const (
	serviceName  = "Event Corner Assistant API"
	maxBodyBytes = 1 << 20
)

// Assistant answers the two AI endpoints.
type Assistant interface {
	Chat(ctx context.Context, message, chatContext string) (string, error)
	ConverseEvent(ctx context.Context, message string, history []transcript.HistoryEntry) (*backend.ExtractionResult, error)
}

// HealthChecker reports whether the model behind the assistant is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Options struct {
	Assistant Assistant
	Health    HealthChecker
	// Model is reported by /health.
	Model     string
	Server    config.ServerConfig
	RateLimit config.RateLimitConfig
}

type Server struct {
	assistant   Assistant
	health      HealthChecker
	model       string
	handler     http.Handler
	server      *http.Server
	shutdownTTL time.Duration
}

type errorBody struct {
	Detail string `json:"detail"`
}

type statusBody struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func New(opts Options) (*Server, error) {
	if opts.Assistant == nil {
		return nil, ecerrors.InvalidInput("assistant is required")
	}

	readTimeout, err := config.DurationOrDefault(opts.Server.ReadTimeout, config.DefaultServerReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server read timeout: %w", err)
	}
	writeTimeout, err := config.DurationOrDefault(opts.Server.WriteTimeout, config.DefaultServerWriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server write timeout: %w", err)
	}
	idleTimeout, err := config.DurationOrDefault(opts.Server.IdleTimeout, config.DefaultServerIdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server idle timeout: %w", err)
	}
	shutdownTimeout, err := config.DurationOrDefault(opts.Server.ShutdownTimeout, config.DefaultServerShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server shutdown timeout: %w", err)
	}

	s := &Server{
		assistant:   opts.Assistant,
		health:      opts.Health,
		model:       opts.Model,
		shutdownTTL: shutdownTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /create-event-conversation", s.handleEventConversation)

	mws := []middleware{withRequestID, withAccessLog, withCORS}
	if opts.RateLimit.RequestsPerMinute > 0 {
		limiter := newClientLimiter(opts.RateLimit.RequestsPerMinute, opts.RateLimit.Burst, opts.RateLimit.TrustProxyHeaders)
		mws = append(mws, limiter.middleware)
	}
	s.handler = chain(mux, mws...)

	port := opts.Server.Port
	if port <= 0 {
		port = config.DefaultServerPort
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Addr() string {
	return s.server.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting assistant server", "addr", s.server.Addr, "model", s.model)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("assistant server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTTL)
	defer cancel()
	slog.Info("Stopping assistant server", "timeout", s.shutdownTTL)
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown assistant server: %w", err)
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusBody{Status: "running", Service: serviceName})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := backend.HealthResponse{Status: "healthy", ModelLoaded: true, Model: s.model}
	if s.health != nil {
		if err := s.health.Health(r.Context()); err != nil {
			slog.Warn("Model health check failed", "model", s.model, "error", err)
			resp.Status = "degraded"
			resp.ModelLoaded = false
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req backend.ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	answer, err := s.assistant.Chat(r.Context(), req.Message, req.Context)
	if err != nil {
		writeError(w, r, "Chat", err)
		return
	}
	writeJSON(w, http.StatusOK, backend.ChatResponse{Success: true, Response: answer})
}

func (s *Server) handleEventConversation(w http.ResponseWriter, r *http.Request) {
	var req backend.ExtractRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.assistant.ConverseEvent(r.Context(), req.Message, req.ConversationHistory)
	if err != nil {
		writeError(w, r, "Event conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, backend.ExtractResponse{Success: true, Result: result})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
		return false
	}
	return true
}

// writeError maps a category to the status the web front-end expects.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	switch {
	case ecerrors.IsCategory(err, ecerrors.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Message is required"})
	case ecerrors.IsCategory(err, ecerrors.ErrTransient):
		slog.WarnContext(r.Context(), operation+" model unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Detail: "Model service is not available"})
	case errors.Is(err, context.Canceled):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Detail: "Request cancelled"})
	default:
		slog.ErrorContext(r.Context(), operation+" failed", "category", ecerrors.Category(err), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: fmt.Sprintf("%s failed: %s", operation, err.Error())})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
