// Package main is the entry point for the SPX Analytics API
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/nsvirk/spxanalytics/internal/api"
	"github.com/nsvirk/spxanalytics/internal/api/middleware"
	"github.com/nsvirk/spxanalytics/internal/config"
	"github.com/nsvirk/spxanalytics/internal/fetcher"
	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/nsvirk/spxanalytics/internal/service"
	"github.com/nsvirk/spxanalytics/pkg/utils/zaplogger"
)

func main() {
	// Load configuration
	cfg, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Print the configuration
	fmt.Println(cfg.String())

	// Connect to the database
	db, err := repository.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Connect Redis, optional
	redisClient, err := repository.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Init logger
	err = zaplogger.InitLogger(db)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Setup logger
	defer zaplogger.Sync()
	zaplogger.SetLogLevel(cfg.ServerLogLevel)

	// startUpMessage
	zaplogger.Info(cfg.APIName + " - " + cfg.APIVersion + " initialized")
	zaplogger.Info("Database initialized", zaplogger.Fields{"driver": cfg.DatabaseDriver})
	if redisClient != nil {
		zaplogger.Info("Redis initialized")
	}

	// Sync engine
	syncService := service.NewSyncService(db,
		fetcher.NewConstituentScraper(cfg.ConstituentsURL, cfg.FetchTimeout),
		fetcher.NewYahooFetcher(cfg.PriceProviderURL, cfg.FetchTimeout),
		service.SyncOptionsFromConfig(cfg),
	)

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup middleware
	middleware.SetupLoggerMiddleware(e)

	// Setup routes
	api.SetupRoutes(e, cfg, db, redisClient, syncService)

	// Setup and start cron jobs
	cronService := service.NewCronService(cfg, db, syncService)
	cronService.Start()

	// Relay sync events, needs Postgres NOTIFY and Redis
	if cfg.DatabaseDriver == "postgres" && redisClient != nil {
		publishService := service.NewPublishService(redisClient, cfg.DatabaseDsn)
		go func() {
			if err := publishService.PublishSyncEventsToRedisChannel(context.Background()); err != nil {
				zaplogger.Error("Failed to relay sync events", zaplogger.Fields{"error": err.Error()})
			}
		}()
	}

	// Start the server
	startServer(e, cfg)
}

// startServer starts the Echo server on the specified port
func startServer(e *echo.Echo, cfg *config.Config) {
	port := cfg.ServerPort
	if port == "" {
		port = "3007"
	}
	zaplogger.Info("SERVER STARTED ON PORT " + port)
	e.Logger.Fatal(e.Start(":" + port))
}
