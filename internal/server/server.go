// Package server exposes the financial dictionary over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/cognicore/finlex/pkg/finlex"
)

// LiveMessage is returned by the root endpoint.
const LiveMessage = "Financial Dictionary API is LIVE!"

const requestIDHeader = "X-Request-ID"

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// MaxConcurrent bounds in-flight queries; 0 uses GOMAXPROCS.
	MaxConcurrent int
	// MaxBodyBytes caps a query body; larger bodies get 413.
	MaxBodyBytes int64
	// QueryTimeout bounds queueing plus extraction for one query.
	QueryTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

const (
	defaultMaxBodyBytes = 64 << 10
	defaultQueryTimeout = 10 * time.Second
)

// Server serves queries against a finlex.Service.
type Server struct {
	svc     *finlex.Service
	opts    Options
	sem     *semaphore.Weighted
	logger  *slog.Logger
	handler http.Handler
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	UserInput *string `json:"user_input"`
}

// QueryResponse is the body returned by POST /query.
type QueryResponse struct {
	Response string `json:"response"`
}

// TermResponse is the body returned by GET /terms/{term}.
type TermResponse struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Response   string `json:"response"`
}

// New creates a Server for svc.
func New(svc *finlex.Service, opts Options) *Server {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = runtime.GOMAXPROCS(0)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		svc:    svc,
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		logger: logger.With(slog.String("component", "api-server")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /terms/{term}", s.handleTerm)

	s.handler = s.withRequestID(withCORS(opts.AllowedOrigins, mux))
	return s
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("api server listening", slog.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("api server stopped")
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": LiveMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	v := s.svc.Vocabulary()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"terms":       v.Len(),
		"aliases":     v.AliasCount(),
		"fingerprint": fmt.Sprintf("%016x", v.Fingerprint()),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return
	}
	if req.UserInput == nil {
		s.writeError(w, http.StatusUnprocessableEntity, "user_input is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.QueryTimeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	defer s.sem.Release(1)

	ans, err := s.svc.Answer(ctx, *req.UserInput)
	if err != nil {
		s.logger.Warn("query abandoned",
			slog.String("request_id", w.Header().Get(requestIDHeader)),
			slog.String("error", err.Error()))
		s.writeError(w, http.StatusServiceUnavailable, "query timed out")
		return
	}
	s.logger.Debug("query answered",
		slog.String("request_id", w.Header().Get(requestIDHeader)),
		slog.String("outcome", ans.Outcome.String()),
		slog.String("term", ans.Term))
	s.writeJSON(w, http.StatusOK, QueryResponse{Response: ans.Message})
}

func (s *Server) handleTerm(w http.ResponseWriter, r *http.Request) {
	ans, ok := s.svc.Lookup(r.PathValue("term"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "term not found")
		return
	}
	s.writeJSON(w, http.StatusOK, TermResponse{
		Term:       ans.Term,
		Definition: ans.Definition,
		Response:   ans.Message,
	})
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
