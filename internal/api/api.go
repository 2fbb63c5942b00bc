// Package api provides the HTTP surface for Zappy: the Messenger webhook
// (verification and event delivery) and the admin endpoints for inspecting
// threads, clearing conversations, and initiating flows.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/store"
)

// DefaultAddr is the listen address unless overridden.
const DefaultAddr = ":8080"

// dispatcher is the slice of the flow processor the server needs.
type dispatcher interface {
	ProcessEvent(ctx context.Context, event models.IncomingEvent) error
	InitiateFlow(ctx context.Context, ssid string, flowType models.FlowType) error
}

// Opts holds configuration for the API server.
type Opts struct {
	Addr        string
	VerifyToken string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithVerifyToken sets the webhook verification token.
func WithVerifyToken(token string) Option {
	return func(o *Opts) { o.VerifyToken = token }
}

// Server is the Zappy HTTP server.
type Server struct {
	addr        string
	verifyToken string
	st          store.Store
	proc        dispatcher
	httpServer  *http.Server
}

// NewServer creates the API server.
func NewServer(st store.Store, proc dispatcher, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		addr:        cfg.Addr,
		verifyToken: cfg.VerifyToken,
		st:          st,
		proc:        proc,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /webhook", s.verifyWebhookHandler)
	mux.HandleFunc("POST /webhook", s.receiveWebhookHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /api/threads", s.listThreadsHandler)
	mux.HandleFunc("GET /api/threads/{id}/messages", s.listMessagesHandler)
	mux.HandleFunc("POST /api/threads/{id}/clear", s.clearThreadHandler)
	mux.HandleFunc("POST /api/flows/initiate", s.initiateFlowHandler)
	return mux
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", s.addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		slog.Info("Server shutting down")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}
