// Package server serves the Planifika admin dashboard. Every route answers
// with a JSON view model; each browser session gets its own token store and
// auth gate.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/drimsoft/planifika-admin/internal/config"
	"github.com/drimsoft/planifika-admin/internal/forms"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    zerolog.Logger
	validator *forms.Validator
	sessions  *sessionManager
	redis     *redis.Client
	version   string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	var rdb *redis.Client
	if cfg.Session.Backend == "redis" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Address, err)
		}
		zlog.Info().Str("address", cfg.Redis.Address).Msg("Storing sessions in Redis")
	}

	return newServer(cfg, zlog, rdb, version)
}

func newServer(cfg *config.Config, zlog zerolog.Logger, rdb *redis.Client, version string) (*Server, error) {
	var cmdable redis.Cmdable
	if rdb != nil {
		cmdable = rdb
	}

	sessions, err := newSessionManager(cfg, cmdable, zlog)
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:    cfg,
		logger:    zlog,
		validator: forms.New(),
		sessions:  sessions,
		redis:     rdb,
		version:   version,
	}

	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	if len(s.config.Server.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.Server.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Location", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Health check endpoint (no session required)
	s.router.GET("/health", s.healthCheck)

	withSession := s.router.Group("")
	withSession.Use(s.sessionMiddleware())
	{
		// Reports the session without redirecting so the front end can
		// decide what to render
		withSession.GET("/session", s.getSession)
		// Clears the stored keys whatever state the session is in
		withSession.POST("/logout", s.logout)
	}

	pages := withSession.Group("")
	pages.Use(s.gateMiddleware())
	{
		pages.GET("/", s.home)

		// Auth
		pages.GET("/login", s.loginPage)
		pages.POST("/login", s.login)
		pages.GET("/edit-profile", s.editProfilePage)
		pages.POST("/edit-profile", s.updateProfile)

		// Dashboard
		pages.GET("/dashboard", s.dashboard)
		pages.GET("/dashboard/charts/:name", s.getChart)

		// Organizations
		pages.GET("/organizations", s.listOrganizations)
		pages.POST("/organizations", s.createOrganization)
		pages.GET("/organizations/:id", s.getOrganization)
		pages.PUT("/organizations/:id", s.updateOrganization)
		pages.DELETE("/organizations/:id", s.deleteOrganization)

		// Internal users
		pages.GET("/users", s.listUsers)
		pages.POST("/users", s.createUser)
		pages.GET("/users/:id", s.getUser)
		pages.PUT("/users/:id", s.updateUser)
		pages.DELETE("/users/:id", s.deleteUser)

		// Tickets
		pages.GET("/tickets", s.listTickets)
		pages.POST("/tickets", s.createTicket)
		pages.GET("/tickets/:id", s.getTicket)
		pages.POST("/tickets/:id/answer", s.answerTicket)
		pages.PATCH("/tickets/:id/status", s.setTicketStatus)
		pages.PATCH("/tickets/:id/assign", s.assignTicket)
		pages.PATCH("/tickets/:id/read", s.markTicketRead)

		// Planifika organization admins
		pages.GET("/planifika-admins", s.listPlanifikaAdmins)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "planifika-admin",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler serving the dashboard
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := s.config.Server.Address

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// Every request may wait on the backend for up to its timeout
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.Backend.Timeout + 30*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.closeRedis()
		return fmt.Errorf("HTTP server error: %w", err)
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		s.closeRedis()
		return err
	}

	s.closeRedis()
	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

func (s *Server) closeRedis() {
	if s.redis == nil {
		return
	}
	if err := s.redis.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Redis client")
	}
}
