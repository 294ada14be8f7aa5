package router

import (
	"log"
	"log/slog"

	"github.com/anonto42/nano-social/backend/internal/engine"
	"github.com/anonto42/nano-social/backend/internal/handlers"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/realtime"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// Dependencies is everything the HTTP layer needs. Firebase may be nil.
type Dependencies struct {
	Engine   *engine.Engine
	Users    repositories.UserRepository
	Sessions repositories.SessionRepository
	Hub      *realtime.Hub
	Firebase handlers.TokenVerifier
	Tokens   handlers.TokenConfig
	Origins  []string
	Logger   *slog.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(deps.Engine, deps.Users, deps.Sessions, deps.Firebase, deps.Tokens)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.Tokens.AccessSecret))
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	handlers.NewUserHandler(deps.Engine, deps.Users).RegisterUserRoutes(api)
	log.Println("User routes configured.")

	handlers.NewPostHandler(deps.Engine).RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	handlers.NewCommentHandler(deps.Engine).RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	handlers.NewLikeHandler(deps.Engine).RegisterLikeRoutes(api)
	log.Println("Like routes configured.")

	handlers.NewNotificationHandler(deps.Engine).RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	handlers.NewActivityHandler(deps.Engine).RegisterActivityRoutes(api)
	log.Println("Activity routes configured.")

	handlers.NewRealtimeHandler(deps.Hub, deps.Origins, deps.Logger).RegisterRealtimeRoutes(api)
	log.Println("Realtime routes configured.")

	log.Println("All routes configured.")
}
