package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/evalworks/audit-api/internal/config"
	"github.com/evalworks/audit-api/internal/database"
	"github.com/evalworks/audit-api/internal/handler"
	"github.com/evalworks/audit-api/internal/middleware"
	"github.com/evalworks/audit-api/internal/models"
	"github.com/evalworks/audit-api/internal/repository"
	"github.com/evalworks/audit-api/internal/router"
	"github.com/evalworks/audit-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.AuditProcess{},
		&models.AuditStep{},
		&models.ChecklistItem{},
		&models.ThresholdRule{},
		&models.AuditSession{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	hierarchyRepo := repository.NewHierarchyRepository(db)
	thresholdRepo := repository.NewThresholdRuleRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	outcomePublisher := service.NewOutcomePublisher(natsConn, cfg.OutcomeSubject, logger)
	cascadeService := service.NewCascadeService(hierarchyRepo, validate, activityService, logger)
	thresholdService := service.NewThresholdService(thresholdRepo, sessionRepo, activityService, outcomePublisher, logger)
	sessionService := service.NewSessionService(sessionRepo, hierarchyRepo, validate, logger)
	progressService := service.NewProgressService(hierarchyRepo, redisClient, cfg.ProgressCacheTTL, logger)

	stepHandler := handler.NewStepHandler(cascadeService, logger)
	scoringHandler := handler.NewScoringHandler(cascadeService, logger)
	sessionHandler := handler.NewSessionHandler(sessionService, thresholdService, logger)
	thresholdHandler := handler.NewThresholdHandler(thresholdService, logger)
	progressHandler := handler.NewProgressHandler(progressService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		StepHandler:      stepHandler,
		ScoringHandler:   scoringHandler,
		SessionHandler:   sessionHandler,
		ThresholdHandler: thresholdHandler,
		ProgressHandler:  progressHandler,
		ActivityHandler:  activityHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
