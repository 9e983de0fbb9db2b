// Package api contains the API routes for the SPX Analytics API
package api

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nsvirk/spxanalytics/internal/api/handlers"
	"github.com/nsvirk/spxanalytics/internal/config"
	"github.com/nsvirk/spxanalytics/internal/service"
	"github.com/nsvirk/spxanalytics/pkg/utils/response"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes configures the routes for the API
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *gorm.DB, redisClient *redis.Client, syncService *service.SyncService) {

	// Metrics
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Create a group for all API routes
	api := e.Group("/api")

	// Index route
	api.GET("/", indexRoute(cfg))

	// Sync routes
	syncHandler := handlers.NewSyncHandler(syncService)
	syncGroup := api.Group("/sp500")
	syncGroup.GET("/meta", syncHandler.SyncConstituents)
	syncGroup.GET("/prices", syncHandler.SyncPrices)
	syncGroup.GET("/prices/:ticker", syncHandler.SyncTickerPrices)
	syncGroup.GET("/runs", syncHandler.GetLatestRuns)

	// Asset routes
	assetHandler := handlers.NewAssetHandler(service.NewAssetService(db))
	assetGroup := api.Group("/assets")
	assetGroup.GET("", assetHandler.GetAssets)
	assetGroup.GET("/:ticker/prices", assetHandler.GetPrices)

	// Analytics routes
	analyticsService := service.NewAnalyticsService(db, cfg.BenchmarkSymbol, service.NewRedisAnalyticsCache(redisClient))
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	api.GET("/analytics/:ticker", analyticsHandler.GetAnalytics)
}

// indexRoute returns the API name and version
func indexRoute(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		message := fmt.Sprintf("%s %s", cfg.APIName, cfg.APIVersion)
		return response.SuccessResponse(c, message)
	}
}
