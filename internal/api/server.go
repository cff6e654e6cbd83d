package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tsanders-rh/analyticsctl/internal/admission"
	apimiddleware "github.com/tsanders-rh/analyticsctl/internal/api/middleware"
	"github.com/tsanders-rh/analyticsctl/internal/auth"
	"github.com/tsanders-rh/analyticsctl/internal/events"
	"github.com/tsanders-rh/analyticsctl/internal/migrate"
	"github.com/tsanders-rh/analyticsctl/internal/quota"
	"github.com/tsanders-rh/analyticsctl/internal/store"
)

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	EnableCORS      bool
	JWTSecret       string
	JWTAccessTTL    time.Duration
	AllowedOrigins  []string
	MaxBodySize     string
	RequestTimeout  time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            8080,
		ShutdownTimeout: 10 * time.Second,
		EnableCORS:      true,
		JWTSecret:       "change-me-in-production-min-32-chars",
		JWTAccessTTL:    15 * time.Minute,
		AllowedOrigins:  []string{"http://localhost:3000"},
		// Migration snapshots carry full event tables
		MaxBodySize:    "512M",
		RequestTimeout: 5 * time.Minute,
	}
}

// Server represents the HTTP API server
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
	store  *store.Store
	events *events.Client
	plans  *quota.Registry
	auth   *auth.Auth
}

// NewServer creates a new API server
func NewServer(
	config *ServerConfig,
	st *store.Store,
	ev *events.Client,
	plans *quota.Registry,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Disable Echo's default logger, we'll use our own
	e.Logger.SetOutput(io.Discard)

	// Set custom validator
	e.Validator = NewValidator()

	authService := auth.NewAuth(
		config.JWTSecret,
		config.JWTAccessTTL,
	)

	s := &Server{
		echo:   e,
		config: config,
		store:  st,
		events: ev,
		plans:  plans,
		auth:   authService,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware stack
func (s *Server) setupMiddleware() {
	// Recover from panics
	s.echo.Use(middleware.Recover())

	// Request ID for tracing
	s.echo.Use(middleware.RequestID())

	// Logging middleware
	s.echo.Use(apimiddleware.Logger())

	// CORS if enabled
	if s.config.EnableCORS {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     s.config.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			ExposeHeaders:    []string{echo.HeaderContentLength, echo.HeaderContentDisposition},
		}))
	}

	// Body limit
	s.echo.Use(middleware.BodyLimit(s.config.MaxBodySize))

	// Timeout middleware
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: s.config.RequestTimeout,
	}))
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	// Health check (no auth required)
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readyCheck)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Auth routes (public)
	authHandler := NewAuthHandler(s.store.Users, s.auth)
	v1.POST("/auth/login", authHandler.Login)

	// Import admission routes (site admins)
	limiter := admission.NewLimiter(s.store.Sites, s.store.Organizations, s.plans, s.store.Imports)
	quotas := quota.Deps{
		Orgs:  s.store.Organizations,
		Sites: s.store.Sites,
		Usage: s.events,
		Plans: s.plans,
	}
	importHandler := NewImportHandler(s.store.Sites, limiter, quotas, s.store.Imports)
	sitesGroup := v1.Group("/sites", auth.RequireAuth(s.auth))
	sitesGroup.POST("/:site/import", importHandler.Create)
	sitesGroup.GET("/:site/imports", importHandler.List)

	// Migration routes (platform admins only)
	migrateHandler := NewMigrateHandler(
		migrate.NewExporter(s.store, s.events),
		migrate.NewImporter(s.store, s.events),
	)
	migrateGroup := v1.Group("/migrate", auth.RequireAuth(s.auth), auth.RequireAdmin())
	migrateGroup.GET("/export", migrateHandler.Export)
	migrateGroup.POST("/import", migrateHandler.Import)
}

// healthCheck returns basic health status
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// readyCheck checks if server is ready to handle requests.
// Both stores must answer: imports and migrations need the pair.
func (s *Server) readyCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "database unavailable",
		})
	}

	if err := s.events.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "event store unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	fmt.Printf("Starting API server on %s\n", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance for testing
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
