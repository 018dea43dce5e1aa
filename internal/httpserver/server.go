// Package httpserver exposes sync runs over HTTP for the web application.
// The caller's identity is taken from a header set by the session layer in
// front of this server; the server itself performs no authentication.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"artsync/internal/artsync"
)

const (
	maxBodyBytes    = 1 << 16
	shutdownTimeout = 10 * time.Second

	noOpMessage = "no artefacts to sync"
)

// Syncer runs syncs and connection tests for a scope.
type Syncer interface {
	Sync(ctx context.Context, scope artsync.Scope) (*artsync.Result, error)
	TestConnection(ctx context.Context, scope artsync.Scope) (*artsync.RepositoryInfo, error)
}

// Server wraps the HTTP server configuration and dependencies.
type Server struct {
	addr            string
	principalHeader string
	syncer          Syncer
	logger          artsync.Logger
	handler         http.Handler
}

// NewServer creates an HTTP server with routes and middleware.
func NewServer(addr, principalHeader string, syncer Syncer, logger artsync.Logger) *Server {
	s := &Server{
		addr:            addr,
		principalHeader: principalHeader,
		syncer:          syncer,
		logger:          logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/v1/sync", s.handleSync)

	s.handler = recoverer(logger, mux)
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type syncRequest struct {
	Scope          string `json:"scope"`
	TestConnection bool   `json:"testConnection"`
}

type syncResponse struct {
	Success      bool   `json:"success"`
	FilesUpdated *int   `json:"filesUpdated,omitempty"`
	CommitHash   string `json:"commitHash,omitempty"`
	Message      string `json:"message,omitempty"`
	Repository   string `json:"repository,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	principal := r.Header.Get(s.principalHeader)
	if principal == "" {
		s.fail(w, r, withCode(errors.New("not signed in"), http.StatusUnauthorized))
		return
	}

	var req syncRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			s.fail(w, r, withCode(fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest))
			return
		}
	}

	scope, err := artsync.ParseScope(req.Scope, principal)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if req.TestConnection {
		info, err := s.syncer.TestConnection(r.Context(), scope)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, syncResponse{
			Success:    true,
			Message:    "connection ok",
			Repository: info.FullName,
		})
		return
	}

	res, err := s.syncer.Sync(r.Context(), scope)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.NoOp {
		writeJSON(w, http.StatusOK, syncResponse{Success: true, Message: noOpMessage})
		return
	}
	files := res.FilesUpdated
	writeJSON(w, http.StatusOK, syncResponse{
		Success:      true,
		FilesUpdated: &files,
		CommitHash:   res.CommitHash,
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	s.logger.Warn("sync request failed", "path", r.URL.Path, "status", status, "error", err)
	writeError(w, status, publicMessage(err, status))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
