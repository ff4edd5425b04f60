// Package server contains the HTTP handlers and route wiring for the API.
package server

import (
	"context"
	"log"
	"time"

	"circle/internal/cache"
	"circle/internal/config"
	"circle/internal/database"
	"circle/internal/media"
	"circle/internal/middleware"
	"circle/internal/models"
	"circle/internal/repository"
	"circle/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	mongoClient    *mongo.Client
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	mediaStore     media.Store
	userService    *service.UserService
	postService    *service.PostService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	mongoClient, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := mongoClient.Database(cfg.MongoDatabase)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	mediaStore, err := media.NewS3Store(ctx, media.S3Config{
		Bucket:        cfg.MediaBucket,
		Region:        cfg.MediaRegion,
		Endpoint:      cfg.MediaEndpoint,
		PublicBaseURL: cfg.MediaBaseURL,
	})
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(mongoClient, db)
	postRepo := repository.NewPostRepository(db)

	server := &Server{
		config:         cfg,
		mongoClient:    mongoClient,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("circle-api"),
		userRepo:       userRepo,
		postRepo:       postRepo,
		mediaStore:     mediaStore,
	}
	server.userService = service.NewUserService(userRepo, postRepo, mediaStore)
	server.postService = service.NewPostService(postRepo, userRepo, mediaStore)

	return server, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the connections.
func NewServerWithDeps(cfg *config.Config, userRepo repository.UserRepository, postRepo repository.PostRepository, mediaStore media.Store, redisClient *redis.Client) *Server {
	server := &Server{
		config:     cfg,
		redis:      redisClient,
		userRepo:   userRepo,
		postRepo:   postRepo,
		mediaStore: mediaStore,
	}
	server.userService = service.NewUserService(userRepo, postRepo, mediaStore)
	server.postService = service.NewPostService(postRepo, userRepo, mediaStore)
	return server
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Tracing before context middleware so trace IDs reach the logger
	app.Use(middleware.TracingMiddleware())

	// Context middleware to propagate request ID, user ID, and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// User routes
	users := api.Group("/users")
	users.Get("/profile/:query", s.GetUserProfile)
	users.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	users.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	users.Post("/logout", s.Logout)
	users.Post("/follow/:id", s.AuthRequired(), s.FollowUnfollow)
	users.Patch("/update/:id", s.AuthRequired(), s.UpdateProfile)

	// Post routes. Specific paths before the generic /:id route.
	posts := api.Group("/posts")
	posts.Get("/feed", s.AuthRequired(), s.GetFeed)
	posts.Get("/user/:username", s.GetUserPosts)
	posts.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 5, time.Minute, "create_post"), s.CreatePost)
	posts.Put("/:id/like", s.AuthRequired(), s.LikeUnlikePost)
	posts.Put("/:id/reply", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "reply"), s.ReplyToPost)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.mongoClient == nil {
		dbStatus = "unavailable"
	} else if err := s.mongoClient.Ping(ctx, nil); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The cache is optional; readiness only degrades, not fails.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:   "Circle API",
		BodyLimit: 10 * 1024 * 1024, // base64 image payloads
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.mongoClient != nil {
		if derr := s.mongoClient.Disconnect(ctx); derr != nil {
			log.Printf("error disconnecting mongodb: %v", derr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
