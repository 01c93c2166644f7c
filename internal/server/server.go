package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/ironsheep/tavern-watch/internal/broadcast"
	"github.com/ironsheep/tavern-watch/internal/pipeline"
)

// Name is reported by GET / and in the MCP handshake.
const Name = "tavern-watch"

// ErrNoSnapshot is returned when no snapshot has been published yet.
var ErrNoSnapshot = errors.New("no snapshot available yet")

// Scheduler is the part of the pipeline scheduler the server drives.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
	Stats() pipeline.Stats
}

// Options configures a Server.
type Options struct {
	Broadcaster *broadcast.Broadcaster
	Scheduler   Scheduler

	// Version is reported in the MCP handshake (default: "dev").
	Version string

	// WriteTimeout bounds each WebSocket frame write; zero means no deadline.
	WriteTimeout time.Duration

	// BaseContext is the lifetime of work started by the server, such as a
	// scheduler started through start_recognition (default: context.Background()).
	BaseContext context.Context

	Logger *slog.Logger
}

// Server serves the HTTP, WebSocket and MCP surfaces.
type Server struct {
	broadcaster  *broadcast.Broadcaster
	scheduler    Scheduler
	version      string
	writeTimeout time.Duration
	baseCtx      context.Context
	logger       *slog.Logger
	upgrader     websocket.Upgrader
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		broadcaster:  opts.Broadcaster,
		scheduler:    opts.Scheduler,
		version:      opts.Version,
		writeTimeout: opts.WriteTimeout,
		baseCtx:      opts.BaseContext,
		logger:       opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local overlay clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/api/status", s.handleStatus)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// ListenAndServe serves HTTP on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.baseCtx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errc <- hs.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

type rootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message: Name + " recognition service",
		Status:  broadcast.StatusRunning,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.broadcaster.Status())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
