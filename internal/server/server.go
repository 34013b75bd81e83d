// Package server exposes the dispatcher over HTTP together with the health,
// stats and audit endpoints.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tkingovr/monday-mcp/internal/audit"
	"github.com/tkingovr/monday-mcp/internal/board"
	"github.com/tkingovr/monday-mcp/internal/dispatch"
)

// MaxBodyBytes bounds a single JSON-RPC request body.
const MaxBodyBytes = 1 << 20

const shutdownTimeout = 5 * time.Second

// BoardStatus reports the cached board for /health.
type BoardStatus interface {
	BoardID() string
	Snapshot() (*board.Snapshot, bool)
}

// Options configure a Server.
type Options struct {
	Addr            string
	Version         string
	ProtocolVersion string
	AllowedOrigins  []string
	// TokenConfigured is reported as monday_connected.
	TokenConfigured bool

	// Board and Audit are optional.
	Board BoardStatus
	Audit audit.Store

	Logger *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	dispatcher *dispatch.Dispatcher
	opts       Options
	logger     *slog.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// New creates a server that routes JSON-RPC bodies to d.
func New(d *dispatch.Dispatcher, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		dispatcher: d,
		opts:       opts,
		logger:     opts.Logger,
		mux:        http.NewServeMux(),
	}
	s.registerRoutes()
	s.handler = cors(opts.AllowedOrigins, s.mux)
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /{$}", s.handleRPC)
	s.mux.HandleFunc("POST /mcp", s.handleRPC)
	s.mux.HandleFunc("/{$}", s.handleRPCMethodNotAllowed)
	s.mux.HandleFunc("/mcp", s.handleRPCMethodNotAllowed)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /audit", s.handleAudit)
	s.mux.HandleFunc("GET /audit/stream", s.handleAuditStream)
}

// Handler returns the HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"listen", s.opts.Addr,
			"notification_mode", s.dispatcher.Mode(),
			"tools", s.dispatcher.Tools().Names(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
