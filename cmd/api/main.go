package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tsanders-rh/analyticsctl/internal/api"
	"github.com/tsanders-rh/analyticsctl/internal/events"
	"github.com/tsanders-rh/analyticsctl/internal/janitor"
	"github.com/tsanders-rh/analyticsctl/internal/quota"
	"github.com/tsanders-rh/analyticsctl/internal/store"
)

func main() {
	// Load configuration from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost:5432/analytics?sslmode=disable"
	}

	chAddr := os.Getenv("CLICKHOUSE_ADDR")
	if chAddr == "" {
		chAddr = "localhost:9000"
	}

	plansDir := os.Getenv("PLANS_DIR")

	port := parsePort(os.Getenv("PORT"), 8080)

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Println("WARNING: Using default JWT_SECRET. Set JWT_SECRET environment variable in production!")
		jwtSecret = "change-me-in-production-min-32-chars"
	}

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}

	// Initialize relational store
	log.Println("Connecting to database...")
	st, err := store.NewStore(dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	// Initialize event store
	log.Println("Connecting to event store...")
	chCfg := events.DefaultConfig(chAddr)
	chCfg.Database = envOr("CLICKHOUSE_DATABASE", chCfg.Database)
	chCfg.Username = envOr("CLICKHOUSE_USERNAME", chCfg.Username)
	chCfg.Password = os.Getenv("CLICKHOUSE_PASSWORD")

	chCtx, chCancel := context.WithTimeout(context.Background(), 10*time.Second)
	ev, err := events.Open(chCtx, chCfg)
	chCancel()
	if err != nil {
		log.Fatalf("Failed to connect to event store: %v", err)
	}
	defer ev.Close()

	// Initialize plan registry
	plans := quota.NewRegistry()
	if plansDir != "" {
		if err := plans.LoadDir(plansDir); err != nil {
			log.Fatalf("Failed to load plans: %v", err)
		}
	}
	log.Printf("Loaded %d plan tiers", plans.Count())

	// Create server config
	config := api.DefaultServerConfig()
	config.Port = port
	config.JWTSecret = jwtSecret
	config.AllowedOrigins = []string{corsOrigins}

	log.Printf("Server configured:")
	log.Printf("  Port: %d", config.Port)
	log.Printf("  CORS origins: %v", config.AllowedOrigins)

	// Create API server
	server := api.NewServer(config, st, ev, plans)

	// Start the stuck-import reaper
	jan := janitor.NewJanitor(nil, st)
	go func() {
		if err := jan.Start(context.Background()); err != nil && err != context.Canceled {
			log.Printf("Janitor stopped: %v", err)
		}
	}()

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	jan.Stop()

	// Gracefully shutdown the server with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parsePort(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		log.Printf("WARNING: Invalid PORT %q, using default %d", s, fallback)
		return fallback
	}
	return port
}
