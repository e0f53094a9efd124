// Package server contains the HTTP and WebSocket handlers of the suggestion box.
package server

import (
	"context"
	"fmt"
	"html/template"
	"time"

	_ "beatbox/docs" // swagger docs
	"beatbox/internal/cache"
	"beatbox/internal/config"
	"beatbox/internal/database"
	"beatbox/internal/middleware"
	"beatbox/internal/models"
	"beatbox/internal/notifications"
	"beatbox/internal/pagination"
	"beatbox/internal/repository"
	"beatbox/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	suggestionRepo repository.SuggestionRepository
	paginator      *pagination.Paginator
	suggestions    *service.SuggestionService
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	pages          *template.Template
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; the live feed, logout and rate limits then degrade.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	paginator, err := pagination.New(cfg.CursorSalt)
	if err != nil {
		return nil, fmt.Errorf("cursor codec: %w", err)
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("beatbox-api"),
		userRepo:       repository.NewUserRepository(db),
		suggestionRepo: repository.NewSuggestionRepository(db),
		paginator:      paginator,
		pages:          pages,
	}

	// Cache helpers share the server's client.
	cache.SetClient(redisClient)
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
	}

	var events service.EventPublisher
	if server.notifier != nil {
		events = server.notifier
	}
	server.suggestions = service.NewSuggestionService(server.suggestionRepo, paginator, events)

	return server, nil
}

// NewApp builds a Fiber app with the full middleware chain and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "Beat Box API",
		StrictRouting: false,
		BodyLimit:     1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Propagates request, trace and user ids into the request context.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		ExposeHeaders:    likeChangedHeader,
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Server-rendered pages and schema metadata
	app.Get("/home", s.HomePage)
	app.Post("/home", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.HomeLogin)
	app.Get("/basic", s.PageAuthRequired(), s.BasicPage)
	app.Get("/info", s.Info)

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	s.registerSuggestionRoutes(api.Group("/suggestions", s.AuthRequired()))
	s.registerSuggestionRoutes(app.Group("/suggestions", s.AuthRequired()))

	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/", s.FeedHandler())
}

func (s *Server) registerSuggestionRoutes(r fiber.Router) {
	r.Get("/", s.ListSuggestions)
	r.Post("/", s.CreateSuggestion)
	// Action routes before the generic /:id routes.
	r.Post("/:id/like", s.LikeSuggestion)
	r.Post("/:id/unlike", s.UnlikeSuggestion)
	r.Get("/:id", s.GetSuggestion)
	r.Put("/:id", s.UpdateSuggestion)
	r.Patch("/:id", s.PartialUpdateSuggestion)
	r.Delete("/:id", s.DeleteSuggestion)
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
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired verifies the bearer token and stores the user id in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := middleware.BearerToken(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication credentials were not provided."))
		}

		claims, err := s.authenticate(c.UserContext(), tokenString)
		if err != nil {
			return models.RespondWithError(c, models.StatusFor(err), err)
		}

		c.Locals("userID", claims.UserID)
		c.Locals("tokenClaims", claims)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

// authenticate checks the token signature, its revocation and that the
// account it was issued for still exists. Users are read through the cache.
func (s *Server) authenticate(ctx context.Context, token string) (middleware.TokenClaims, error) {
	claims, err := middleware.ParseToken(s.config.JWTSecret, token)
	if err != nil {
		return middleware.TokenClaims{}, models.NewUnauthorizedError("Invalid or expired token")
	}

	if revoked, err := cache.IsRevoked(ctx, claims.JTI); err == nil && revoked {
		return middleware.TokenClaims{}, models.NewUnauthorizedError("Token has been revoked")
	}

	if _, err := s.userRepo.GetByID(ctx, claims.UserID); err != nil {
		if models.StatusFor(err) == fiber.StatusNotFound {
			return middleware.TokenClaims{}, models.NewUnauthorizedError("User no longer exists")
		}
		return middleware.TokenClaims{}, err
	}
	return claims, nil
}

// Start builds the app, wires the live feed and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start live feed wiring", "error", err)
			}
		}()
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down live feed", "error", err)
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", "error", err)
	}

	if s.redis != nil {
		if err := cache.Close(); err != nil {
			middleware.Logger.Error("error closing redis", "error", err)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
