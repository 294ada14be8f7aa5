package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/anonto42/nano-social/backend/internal/handlers"
	"github.com/anonto42/nano-social/backend/internal/realtime"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/repositories/memory"
	"github.com/anonto42/nano-social/backend/internal/router"
	"github.com/anonto42/nano-social/backend/internal/validators"
	"github.com/anonto42/nano-social/backend/pkg/config"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := config.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	var store repositories.Store
	if db.Mongo != nil {
		if err := repositories.EnsureIndexes(ctx, db.Mongo, cfg.MongoDatabase); err != nil {
			log.Fatalf("Failed to create MongoDB indexes: %v", err)
		}
		store = repositories.NewMongoStore(db.Mongo, cfg.MongoDatabase)
	} else {
		log.Println("Using the in-memory store; data is lost on restart.")
		store = memory.NewStore().Repositories()
	}

	var sessions repositories.SessionRepository
	if db.Postgres != nil {
		pgSessions := repositories.NewPostgresSessionRepository(db.Postgres)
		if err := pgSessions.Migrate(); err != nil {
			log.Fatalf("Failed to auto migrate sessions: %v", err)
		}
		log.Println("PostgreSQL auto-migrations completed.")
		sessions = pgSessions
	} else {
		sessions = memory.NewSessionRepository()
	}

	// Initialize Firebase
	var verifier handlers.TokenVerifier
	authClient, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case errors.Is(err, firebase.ErrNotConfigured):
		log.Println("Firebase credentials not set, Firebase login disabled.")
	case err != nil:
		log.Fatalf("Failed to initialize Firebase: %v", err)
	default:
		verifier = authClient
	}

	hub := realtime.NewHub(logger)
	eng := engine.New(store, hub, logger).WithSessions(sessions)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(logger)

	// Setup global middleware
	config.SetupMiddleware(e, cfg, logger)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Dependencies{
		Engine:   eng,
		Users:    store.Users,
		Sessions: sessions,
		Hub:      hub,
		Firebase: verifier,
		Tokens: handlers.TokenConfig{
			AccessSecret:  cfg.JWTSecret,
			RefreshSecret: cfg.RefreshTokenSecret,
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshTTL:    cfg.RefreshTokenTTL,
		},
		Origins: cfg.ClientOrigins,
		Logger:  logger,
	})

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
