package web

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/smalltalk/internal/config"
	"github.com/saltyorg/smalltalk/internal/database"
	"github.com/saltyorg/smalltalk/internal/monitoring"
	"github.com/saltyorg/smalltalk/internal/social"
	"github.com/saltyorg/smalltalk/internal/web/feed"
	"github.com/saltyorg/smalltalk/internal/web/handlers"
	"github.com/saltyorg/smalltalk/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	db         *database.DB
	port       int
	bind       string
	allowedNet *net.IPNet
	timeouts   *config.TimeoutConfig
	router     *chi.Mux
	broker     *feed.Broker
	handlers   *handlers.Handlers
}

// NewServer creates a new web server. hasher may be nil to keep passwords verbatim.
func NewServer(db *database.DB, hasher social.PasswordHasher, port int, bind string, allowedNet *net.IPNet) *Server {
	timeouts := config.GetTimeouts()
	s := &Server{
		db:         db,
		port:       port,
		bind:       bind,
		allowedNet: allowedNet,
		timeouts:   timeouts,
		router:     chi.NewRouter(),
		broker:     feed.NewBroker(timeouts.FeedHeartbeat),
	}

	s.handlers = handlers.New(
		social.NewAccountManager(db, hasher),
		social.NewMessageManager(db),
		s.broker,
		db,
	)

	s.setupRoutes()
	return s
}

// Broker returns the message feed broker
func (s *Server) Broker() *feed.Broker {
	return s.broker
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router
	h := s.handlers

	// Global middleware (applied to all routes, except timeout which is per-group)
	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.allowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)

	// Feed endpoints - no timeout (long-lived connections)
	r.Get("/messages/events", s.broker.ServeHTTP)
	r.Get("/messages/ws", s.broker.ServeWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.timeouts.Request))

		r.Get("/healthz", h.Healthz)
		r.Handle("/metrics", monitoring.Handler())

		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Post("/messages", h.CreateMessage)
		r.Get("/messages", h.ListMessages)
		r.Get("/messages/{id}", h.GetMessage)
		r.Delete("/messages/{id}", h.DeleteMessage)
		r.Patch("/messages/{id}", h.UpdateMessage)

		r.Get("/accounts/{id}/messages", h.ListAccountMessages)
	})
}

// Start starts the web server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	var addr string
	if s.bind != "" {
		addr = fmt.Sprintf("%s:%d", s.bind, s.port)
	} else {
		addr = fmt.Sprintf(":%d", s.port)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.timeouts.ReadHeader,
		// WriteTimeout disabled (0) to allow feed long-lived connections
		// Chi middleware timeout protects regular requests
		WriteTimeout: 0,
		IdleTimeout:  s.timeouts.Idle,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		// Stop the broker first to close all feed connections gracefully
		s.broker.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.Shutdown)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		s.broker.Stop()
		return err
	}
}
