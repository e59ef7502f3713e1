// Package api provides the HTTP surface of the intake service.
//
// It exposes the Telegram webhook, the web-widget chat and booking
// endpoints, read-only service and booking listings, and a health check.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pravoline/intakebot/internal/bot"
	"github.com/pravoline/intakebot/internal/flow"
	"github.com/pravoline/intakebot/internal/store"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server handles the HTTP API.
type Server struct {
	addr      string
	bot       *bot.Handler
	responder bot.Responder
	intake    *flow.IntakeService
	archive   store.Store
	services  []string
}

// Option configures the server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// NewServer creates the HTTP server. The bot handler may be nil when the
// Telegram webhook is not in use.
func NewServer(botHandler *bot.Handler, responder bot.Responder, intake *flow.IntakeService, archive store.Store, services []string, opts ...Option) *Server {
	s := &Server{
		addr:      DefaultAddr,
		bot:       botHandler,
		responder: responder,
		intake:    intake,
		archive:   archive,
		services:  services,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// routes builds the request mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhookHandler)
	mux.HandleFunc("/api/chat", corsMiddleware(s.chatHandler))
	mux.HandleFunc("/api/booking", corsMiddleware(s.bookingHandler))
	mux.HandleFunc("/api/services", corsMiddleware(s.servicesHandler))
	mux.HandleFunc("/api/bookings", corsMiddleware(s.bookingsHandler))
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}

// corsMiddleware allows the static widget, served from any origin, to call
// the API.
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}
