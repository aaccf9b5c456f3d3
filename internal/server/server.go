package server

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/liftline/liftline/internal/config"
	"github.com/liftline/liftline/internal/domain"
	"github.com/liftline/liftline/internal/engine"
	"github.com/liftline/liftline/internal/handler"
	"github.com/liftline/liftline/internal/middleware"
	"github.com/liftline/liftline/internal/repository"
	"github.com/liftline/liftline/internal/service"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	// Initialize repositories
	cacheRepo := repository.NewRedisCacheRepository(deps.RedisClient)
	planRepo := repository.NewMongoWorkoutPlanRepository(deps.MongoDB)
	sessionRepo := repository.NewCachedSessionRepository(repository.NewMongoSessionRepository(deps.MongoDB), cacheRepo)
	recordRepo := repository.NewCachedPersonalRecordRepository(repository.NewMongoPersonalRecordRepository(deps.MongoDB), cacheRepo)
	statsRepo := repository.NewCachedUserStatsRepository(repository.NewMongoUserStatsRepository(deps.MongoDB), cacheRepo)

	var mediaRepo domain.MediaRepository
	if deps.Config.S3.Enabled {
		s3Repo, err := repository.NewS3MediaRepository(context.Background(), deps.Config.S3)
		if err != nil {
			log.Printf("Warning: Failed to initialize S3 repository: %v", err)
		} else {
			mediaRepo = s3Repo
		}
	}

	// Initialize services
	sessionService := service.NewSessionService(planRepo, engine.Repos{
		Sessions: sessionRepo,
		Records:  recordRepo,
		Stats:    statsRepo,
	})

	// Initialize handlers
	planHandler := handler.NewPlanHandler(planRepo, mediaRepo)
	sessionHandler := handler.NewSessionHandler(sessionService)
	recordsHandler := handler.NewRecordsHandler(recordRepo, statsRepo)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "LiftLine API",
		BodyLimit:    int(deps.Config.Server.MaxUploadSizeMB * 1024 * 1024),
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "liftline",
		})
	})

	// API v1 routes
	v1 := app.Group("/v1")

	// ===========================================
	// PLANS API - public read, trainer write
	// ===========================================
	v1.Get("/plans", planHandler.ListPlans)
	v1.Get("/plans/:id", planHandler.GetPlan)

	trainerPlans := v1.Group("/plans")
	trainerPlans.Use(middleware.VerifyToken(deps.Config.JWT.Secret))
	trainerPlans.Use(middleware.AuthorizeRole(middleware.RoleTrainer))
	trainerPlans.Post("/", planHandler.CreatePlan)
	trainerPlans.Put("/:id", planHandler.UpdatePlan)
	trainerPlans.Delete("/:id", planHandler.DeletePlan)

	media := v1.Group("/media")
	media.Use(middleware.VerifyToken(deps.Config.JWT.Secret))
	media.Use(middleware.AuthorizeRole(middleware.RoleTrainer))
	media.Post("/", planHandler.UploadDemoVideo)

	// ===========================================
	// TRAINEE API - /v1/me/* (requires 'trainee' role)
	// ===========================================
	me := v1.Group("/me")
	me.Use(middleware.VerifyToken(deps.Config.JWT.Secret))
	me.Use(middleware.AuthorizeRole(middleware.RoleTrainee))

	meSession := me.Group("/session")
	meSession.Post("/", sessionHandler.StartSession)
	meSession.Get("/", sessionHandler.GetSession)
	meSession.Delete("/", sessionHandler.ExitSession)
	meSession.Post("/sets", sessionHandler.CompleteSet)
	meSession.Post("/rest/skip", sessionHandler.SkipRest)
	meSession.Post("/rest/pause", sessionHandler.PauseRest)
	meSession.Post("/rest/resume", sessionHandler.ResumeRest)
	meSession.Post("/rest/adjust", sessionHandler.AdjustRest)
	meSession.Get("/events", sessionHandler.GetEvents)
	meSession.Get("/summary", sessionHandler.GetSummary)

	me.Get("/sessions", sessionHandler.GetHistory)
	me.Post("/sessions/:id/rating", sessionHandler.RateSession)

	me.Get("/records", recordsHandler.GetMyRecords)
	me.Get("/stats", recordsHandler.GetMyStats)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
