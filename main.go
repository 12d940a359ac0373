package main

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"

	"mailcadence/config"
	"mailcadence/correlator"
	"mailcadence/middleware"
	"mailcadence/provider"
	"mailcadence/routes"
	"mailcadence/scheduler"
	"mailcadence/utils"
	"mailcadence/worker"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger := utils.NewLogger(config.AppConfig.Environment)

	if config.AppConfig.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		})
		if err != nil {
			logger.WithError(err).Warn("Sentry initialization failed")
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	registry := provider.NewRegistry(config.DB, &config.AppConfig)

	sched := scheduler.New(config.DB, registry, utils.ComponentLogger(logger, "scheduler"))
	sched.BatchLimit = config.AppConfig.Scheduler.BatchLimit
	sched.SendTimeout = config.AppConfig.Scheduler.SendTimeout
	sched.StaleAfter = config.AppConfig.Scheduler.StaleClaimAfter

	corr := correlator.New(config.DB, utils.ComponentLogger(logger, "correlator"))

	var checkpoints worker.CheckpointStore
	if config.AppConfig.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.AppConfig.Redis.Address,
			Password: config.AppConfig.Redis.Password,
			DB:       config.AppConfig.Redis.DB,
		})
		checkpoints = worker.NewRedisCheckpointStore(rdb)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize and start the outreach worker
	outreachWorker := worker.NewOutreachWorker(sched,
		config.AppConfig.Scheduler.TickInterval,
		utils.ComponentLogger(logger, "outreach-worker"))
	go outreachWorker.Start(ctx)

	// Initialize and start the inbound worker
	inboundWorker := worker.NewInboundWorker(registry, corr, checkpoints,
		config.AppConfig.Scheduler.InboundInterval,
		config.AppConfig.Scheduler.InboundFetchLimit,
		utils.ComponentLogger(logger, "inbound-worker"))
	go inboundWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, sched, inboundWorker, logger)

	// Start server
	logger.Infof("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
