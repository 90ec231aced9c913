package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/circleup/backend/internal/auth"
	"github.com/circleup/backend/internal/cache"
	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/handlers"
	"github.com/circleup/backend/internal/logger"
	"github.com/circleup/backend/internal/middleware"
	"github.com/circleup/backend/internal/suggest"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Circleup server starting ===")

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Auth service
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService([]byte(jwtSecret))

	// Redis is optional; without it suggestion responses are computed fresh
	// on every request
	var redisCache *cache.RedisClient
	if host := os.Getenv("REDIS_HOST"); host != "" {
		rc, err := cache.NewRedisClient(host, os.Getenv("REDIS_PORT"), os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			logger.WarnWithFields("Redis unavailable, running without suggestion cache", err)
		} else {
			redisCache = rc
			defer redisCache.Close()
		}
	}

	scorer := suggest.NewScorer(database.DB)
	h := handlers.NewHandlers(scorer, redisCache)
	authHandlers := handlers.NewAuthHandlers(authService)

	router := setupRouter(h, authHandlers, authService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoWithFields("Listening on :" + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Forced shutdown", err)
	}
	logger.Log.Info("Server stopped")
}

func setupRouter(h *handlers.Handlers, authHandlers *handlers.AuthHandlers, authService *auth.Service) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Public API, any origin may call it
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		if err := database.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")

	// Auth endpoints, no token required
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandlers.Register)
		authGroup.POST("/login", authHandlers.Login)
		authGroup.GET("/me", authService.Middleware(), authHandlers.Me)
	}

	// Everything else requires a valid token
	protected := api.Group("")
	protected.Use(authService.Middleware())
	{
		protected.GET("/suggestions", h.GetSuggestions)
		protected.POST("/suggestions/events", h.CreateSuggestionEvent)

		protected.PUT("/users/me", h.UpdateMyProfile)
		protected.GET("/users/:id/profile", h.GetUserProfile)
		protected.GET("/users/:id/followers", h.GetUserFollowers)
		protected.GET("/users/:id/following", h.GetUserFollowing)
		protected.GET("/users/:id/posts", h.GetUserPosts)
		protected.POST("/users/:id/follow", h.FollowUserByID)
		protected.DELETE("/users/:id/follow", h.UnfollowUserByID)

		protected.POST("/posts", h.CreatePost)
		protected.GET("/posts/:id", h.GetPost)
		protected.DELETE("/posts/:id", h.DeletePost)
		protected.POST("/posts/:id/like", h.LikePost)
		protected.DELETE("/posts/:id/like", h.UnlikePost)
		protected.POST("/posts/:id/comments", h.CreateComment)
		protected.GET("/posts/:id/comments", h.GetComments)

		protected.POST("/verification/request", h.RequestVerification)
	}

	// Admin endpoints
	admin := api.Group("/admin")
	admin.Use(authService.Middleware(), authService.AdminMiddleware())
	{
		admin.GET("/verification", h.ListVerificationRequests)
		admin.POST("/verification/:id/approve", h.ApproveVerification)
		admin.POST("/verification/:id/reject", h.RejectVerification)
	}

	return router
}
