// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "viralpik/docs" // swagger docs
	"viralpik/internal/cache"
	"viralpik/internal/catalog"
	"viralpik/internal/config"
	"viralpik/internal/database"
	"viralpik/internal/featureflags"
	"viralpik/internal/mail"
	"viralpik/internal/middleware"
	"viralpik/internal/models"
	"viralpik/internal/notifications"
	"viralpik/internal/repository"
	"viralpik/internal/service"
	"viralpik/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	profileRepo    repository.ProfileRepository
	assetRepo      repository.AssetRepository
	socialRepo     repository.SocialRepository
	commentRepo    repository.CommentRepository
	collectionRepo repository.CollectionRepository
	downloadRepo   repository.DownloadRepository
	prefsRepo      repository.PreferencesRepository
	supportRepo    repository.SupportRepository

	store        storage.ObjectStore
	mailer       *mail.SMTPMailer
	tokens       *middleware.Tokens
	catalog      *catalog.Catalog
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	hubs         []wireableHub
	featureFlags *featureflags.Manager

	assetService      *service.AssetService
	profileService    *service.ProfileService
	socialService     *service.SocialService
	commentService    *service.CommentService
	collectionService *service.CollectionService
	downloadService   *service.DownloadService
	authService       *service.AuthService
	settingsService   *service.SettingsService
	supportService    *service.SupportService
	uploadService     *service.UploadService
	adminService      *service.AdminService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("viralpik-api"),
		profileRepo:    repository.NewProfileRepository(db),
		assetRepo:      repository.NewAssetRepository(db),
		socialRepo:     repository.NewSocialRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		collectionRepo: repository.NewCollectionRepository(db),
		downloadRepo:   repository.NewDownloadRepository(db),
		prefsRepo:      repository.NewPreferencesRepository(db),
		supportRepo:    repository.NewSupportRepository(db),
		store:          store,
		mailer:         mail.NewSMTPMailer(cfg),
		tokens:         middleware.NewTokens(cfg.JWTSecret),
		catalog:        catalog.Default(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	server.initServices()

	// Realtime delivery needs Redis pub/sub to fan out across instances
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub(redisClient)
		server.hubs = []wireableHub{server.hub}
	}

	return server, nil
}

const defaultAllowedOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

// globalRequestLimit caps requests per IP per minute on this instance.
const globalRequestLimit = 100

// SetupMiddleware installs the global chain. Order matters: ids and the
// trace span come first so every later record carries them, and CORS runs
// before the limiter so a 429 still reaches the browser.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New(), requestid.New(), middleware.ContextMiddleware(), middleware.TracingMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	// previews are embedded by the web app from another origin
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	origins := cmp.Or(s.config.AllowedOrigins, defaultAllowedOrigins)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		ExposeHeaders:    "X-Total-Count, X-Trace-ID, X-RateLimit-Remaining, Retry-After",
		AllowCredentials: origins != "*",
		MaxAge:           int((24 * time.Hour).Seconds()),
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        globalRequestLimit,
		Expiration: time.Minute,
		// preflights and media are never limited
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), storage.MediaPrefix+"/")
		},
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later."))
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
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "ViralPik Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Locally stored uploads
	app.Get(storage.MediaPrefix+"/*", s.ServeMedia)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", s.Logout)
	auth.Get("/username-available", middleware.RateLimit(
		s.redis, 60, time.Minute, "username_check"), s.UsernameAvailable)
	auth.Post("/password-reset", middleware.RateLimit(
		s.redis, 3, 15*time.Minute, "password_reset"), s.RequestPasswordReset)
	auth.Post("/password-reset/confirm", s.ResetPassword)

	// Public browse routes
	api.Get("/catalog", s.GetCatalog)
	api.Get("/feed", s.GetFeed)
	api.Get("/settings/schema", s.GetSettingsSchema)
	api.Post("/support", middleware.RateLimit(
		s.redis, 5, time.Hour, "support"), s.CreateSupportTicket)

	publicAssets := api.Group("/assets")
	publicAssets.Get("/", s.GetAssets)
	publicAssets.Get("/:id/comments", s.GetComments)
	publicAssets.Get("/:id", s.GetAsset)

	publicUsers := api.Group("/users")
	publicUsers.Get("/by-username/:username", s.GetProfileByUsername)
	publicUsers.Get("/:id<int>/collections", s.GetUserCollections)
	publicUsers.Get("/:id<int>/followers", s.GetFollowers)
	publicUsers.Get("/:id<int>/following", s.GetFollowing)
	// numeric only so /users/me falls through to the protected routes
	publicUsers.Get("/:id<int>", s.GetProfile)

	api.Get("/collections/:id", s.GetCollection)
	api.Get("/collections/:id/assets", s.GetCollectionAssets)

	// WebSocket ticket issuance
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	protected.Post("/upload", middleware.RateLimit(
		s.redis, 30, 10*time.Minute, "upload"), s.Upload)
	protected.Post("/enrich", s.EnrichAsset)
	protected.Post("/download", s.DownloadAsset)
	protected.Get("/downloads/quota", s.GetDownloadQuota)
	protected.Get("/downloads", s.GetDownloadHistory)

	assets := protected.Group("/assets")
	assets.Post("/", middleware.RateLimit(
		s.redis, 20, 10*time.Minute, "create_asset"), s.CreateAsset)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	assets.Post("/:id/like", s.LikeAsset)
	assets.Delete("/:id/like", s.UnlikeAsset)
	assets.Post("/:id/save", s.SaveAsset)
	assets.Delete("/:id/save", s.UnsaveAsset)
	assets.Post("/:id/comments", middleware.RateLimit(
		s.redis, 5, time.Minute, "create_comment"), s.CreateComment)
	assets.Delete("/:id/comments/:commentId", s.DeleteComment)
	assets.Delete("/:id", s.DeleteAsset)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/me/saved", s.GetSavedAssets)
	users.Get("/me/stats", s.GetMyStats)
	users.Post("/:id/follow", s.FollowUser)
	users.Delete("/:id/follow", s.UnfollowUser)

	collections := protected.Group("/collections")
	collections.Post("/", s.CreateCollection)
	collections.Put("/:id", s.UpdateCollection)
	collections.Delete("/:id", s.DeleteCollection)
	collections.Post("/:id/assets/:assetId", s.AddCollectionAsset)
	collections.Delete("/:id/assets/:assetId", s.RemoveCollectionAsset)

	settings := protected.Group("/settings")
	settings.Get("/", s.GetSettings)
	settings.Put("/", s.UpdateSettings)

	// Websocket endpoints - protected by AuthRequired
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/", s.WebsocketHandler())

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Put("/feature-flags/:name", s.SetFeatureFlag)
	admin.Get("/stats", s.GetAdminStats)
	admin.Get("/assets", s.GetModerationQueue)
	admin.Post("/assets/:id/approve", s.ApproveAsset)
	admin.Post("/assets/:id/reject", s.RejectAsset)
	admin.Get("/creators", s.GetCreators)
	admin.Post("/creators/:id/approval", s.SetCreatorApproval)
	admin.Post("/users/:id/tier", s.SetUserTier)
	admin.Get("/support", s.GetSupportTickets)
	admin.Post("/support/:id/close", s.CloseSupportTicket)
}

// HealthCheck answers the bare /api probe.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
}

const (
	statusHealthy     = "healthy"
	statusUnhealthy   = "unhealthy"
	statusUnavailable = "unavailable"
)

func (s *Server) databaseStatus(ctx context.Context) string {
	if s.db == nil {
		return statusUnhealthy
	}
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return statusUnhealthy
	}
	return statusHealthy
}

// redisStatus reports unavailable rather than unhealthy when Redis was
// never configured: quotas and revocation degrade but the API still serves.
func (s *Server) redisStatus(ctx context.Context) string {
	switch {
	case s.redis == nil:
		return statusUnavailable
	case s.redis.Ping(ctx).Err() != nil:
		return statusUnhealthy
	}
	return statusHealthy
}

// ReadinessCheck returns 503 when the database or a configured Redis is
// unreachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	checks := fiber.Map{
		"database": s.databaseStatus(ctx),
		"redis":    s.redisStatus(ctx),
		"storage":  statusUnavailable,
	}
	if s.store != nil {
		checks["storage"] = s.store.Backend()
	}

	overall, code := statusHealthy, fiber.StatusOK
	if checks["database"] == statusUnhealthy || checks["redis"] == statusUnhealthy {
		overall, code = statusUnhealthy, fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"message": "ViralPik API",
		"version": "1.0.0",
		"status":  overall,
		"checks":  checks,
		"time":    time.Now(),
	})
}

// NewApp builds the fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	// multipart framing on top of the largest accepted file
	bodyLimit := int(s.uploadSvc().MaxBytes()) + 1<<20

	app := fiber.New(fiber.Config{
		AppName:   "ViralPik API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start runs background workers and serves until Shutdown.
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	s.app = s.NewApp()

	for _, h := range s.hubs {
		go func() {
			if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("hub wiring failed", "hub", h.Name(), "error", err)
			}
		}()
	}
	if s.store != nil && s.assetRepo != nil {
		service.NewEnrichmentWorker(s.assetRepo, s.store, s.config.EnrichPollInterval()).Start(s.shutdownCtx)
	}

	middleware.Logger.Info("server listening", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops workers, closes sockets before draining HTTP, then
// releases the database and Redis. It returns every close error joined.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	var errs []error
	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http: %w", err))
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database: %w", err))
			}
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	middleware.Logger.Info("server stopped")
	return errors.Join(errs...)
}
