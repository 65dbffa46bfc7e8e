// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"questhub/internal/bootstrap"
	"questhub/internal/cache"
	"questhub/internal/config"
	"questhub/internal/database"
	"questhub/internal/featureflags"
	"questhub/internal/middleware"
	"questhub/internal/models"
	"questhub/internal/partner"
	"questhub/internal/repository"
	"questhub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	app         *fiber.App
	shutdownCtx context.Context
	shutdownFn  context.CancelFunc

	userRepo        repository.UserRepository
	workspaceRepo   repository.WorkspaceRepository
	membershipRepo  repository.MembershipRepository
	challengeRepo   repository.ChallengeRepository
	activityRepo    repository.ActivityRepository
	assignmentRepo  repository.AssignmentRepository
	enrollmentRepo  repository.EnrollmentRepository
	submissionRepo  repository.SubmissionRepository
	rewardRepo      repository.RewardRepository
	webhookLogRepo  repository.WebhookLogRepository
	idempotencyRepo repository.IdempotencyRepository

	rateStore    middleware.RateLimitStore
	featureFlags *featureflags.Manager
	partner      *partner.Client

	permissionService *service.PermissionService
	workspaceService  *service.WorkspaceService
	challengeService  *service.ChallengeService
	assignmentService *service.AssignmentService
	enrollmentService *service.EnrollmentService
	submissionService *service.SubmissionService
	reviewService     *service.ReviewService
	ledgerService     *service.LedgerService
	webhookService    *service.WebhookService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)
	if redisClient != nil {
		middleware.SetRevocationCheck(func(ctx context.Context, jti string) bool {
			n, err := redisClient.Exists(ctx, "blacklist:"+jti).Result()
			return err == nil && n > 0
		})
	}

	server := &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		userRepo:        repository.NewUserRepository(db),
		workspaceRepo:   repository.NewWorkspaceRepository(db),
		membershipRepo:  repository.NewMembershipRepository(db),
		challengeRepo:   repository.NewChallengeRepository(db),
		activityRepo:    repository.NewActivityRepository(db),
		assignmentRepo:  repository.NewAssignmentRepository(db),
		enrollmentRepo:  repository.NewEnrollmentRepository(db),
		submissionRepo:  repository.NewSubmissionRepository(db),
		rewardRepo:      repository.NewRewardRepository(db),
		webhookLogRepo:  repository.NewWebhookLogRepository(db),
		idempotencyRepo: repository.NewIdempotencyRepository(db),
		featureFlags:    featureflags.NewManager(cfg.FeatureFlags),
		partner:         partner.NewClient(cfg.PartnerAPIURL, cfg.PartnerAPIKey),
	}

	if redisClient != nil {
		server.rateStore = middleware.NewRedisRateLimitStore(redisClient)
	} else {
		server.rateStore = middleware.NewMemoryRateLimitStore()
	}

	server.permissionService = service.NewPermissionService(
		server.workspaceRepo, server.challengeRepo, server.membershipRepo,
		server.assignmentRepo, server.enrollmentRepo)
	resolve := server.permissionService.ResolveForChallenge

	server.workspaceService = service.NewWorkspaceService(server.workspaceRepo, server.membershipRepo)
	server.challengeService = service.NewChallengeService(server.challengeRepo, server.activityRepo, server.membershipRepo)
	server.assignmentService = service.NewAssignmentService(server.assignmentRepo, server.challengeRepo, server.membershipRepo, resolve)
	server.enrollmentService = service.NewEnrollmentService(server.enrollmentRepo, server.challengeRepo, server.membershipRepo, resolve)
	server.submissionService = service.NewSubmissionService(server.submissionRepo, server.activityRepo, server.enrollmentRepo, resolve)

	// SKU pricing falls back to the partner catalog only when configured.
	var skuValue func(ctx context.Context, skuID string) (int64, error)
	if server.partner.Configured() {
		skuValue = server.partner.CatalogItemValue
	}
	server.ledgerService = service.NewLedgerService(server.rewardRepo, server.submissionRepo, server.activityRepo, skuValue)
	server.reviewService = service.NewReviewService(server.submissionRepo, server.ledgerService, resolve)
	server.webhookService = service.NewWebhookService(
		server.workspaceRepo, server.webhookLogRepo, server.idempotencyRepo,
		server.ledgerService, server.enrollmentService, server.rateStore,
		cfg.WebhookRateLimit, time.Duration(cfg.WebhookRateWindowSeconds)*time.Second)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics for every request
	middleware.InitMetrics(app, "questhub-api")
	app.Use(middleware.MetricsMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Webhook-Signature",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
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
	// Backwards-compatible legacy route: map /health to readiness
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "QuestHub Backend Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.rateStore, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.rateStore, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", middleware.AuthRequired, s.Logout)

	// Partner webhook ingress. Unauthenticated by design: the pipeline
	// verifies the per-workspace HMAC signature itself.
	api.Post("/webhooks/partner/:workspaceId", s.PartnerWebhook)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	protected.Get("/feature-flags", s.GetFeatureFlags)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)

	// Workspace routes
	workspaces := protected.Group("/workspaces")
	workspaces.Post("/", s.CreateWorkspace)
	// Specific /memberships route before generic /:id routes
	workspaces.Get("/memberships/me", s.GetMyMemberships)
	workspaces.Get("/:id/members", s.GetWorkspaceMembers)
	workspaces.Post("/:id/members", s.AddWorkspaceMember)
	workspaces.Put("/:id/members/:userId/role", s.ChangeMemberRole)
	workspaces.Delete("/:id/members/:userId", s.RemoveWorkspaceMember)
	workspaces.Put("/:id/integration", s.ConfigureIntegration)
	workspaces.Get("/:id/challenges", s.GetChallenges)
	workspaces.Post("/:id/challenges", s.CreateChallenge)
	workspaces.Get("/:id/rewards/me", s.GetMyRewards)

	// Challenge routes
	challenges := protected.Group("/challenges")
	challenges.Get("/:id/permissions/me", s.GetMyPermissions)
	challenges.Put("/:id/status", s.SetChallengeStatus)
	challenges.Get("/:id/activities", s.GetActivities)
	challenges.Post("/:id/activities", s.CreateActivity)
	challenges.Get("/:id/assignments", s.GetAssignments)
	challenges.Post("/:id/assignments", s.CreateAssignment)
	challenges.Get("/:id/enrollments", s.GetEnrollments)
	challenges.Delete("/:id/enrollments/:userId", s.RemoveEnrollment)
	challenges.Post("/:id/enroll", s.Enroll)
	challenges.Post("/:id/invite", s.InviteParticipant)
	challenges.Post("/:id/withdraw", s.Withdraw)
	challenges.Get("/:id/submissions", s.GetSubmissions)

	assignments := protected.Group("/assignments")
	assignments.Delete("/:id", s.DeleteAssignment)

	// Submission routes
	submissions := protected.Group("/submissions")
	submissions.Post("/", middleware.RateLimit(
		s.rateStore, 30, time.Minute, "create_submission"), s.CreateSubmission)
	submissions.Post("/:id/review", s.ReviewSubmission)
	submissions.Get("/:id", s.GetSubmission)
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
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
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is required for full readiness: rate limit budgets and the
		// token blacklist live there.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "QuestHub",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "QuestHub API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	bootstrap.StartReconciliation(s.shutdownCtx, s.config, s.featureFlags, s.ledgerService)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop background sweeps
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
