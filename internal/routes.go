package internal

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "swipely/api/v1"
	"swipely/internal/config"
	"swipely/internal/http"
	"swipely/internal/http/middleware"
	"swipely/internal/metrics"
	"swipely/internal/organizations"
	"swipely/internal/reportcache"
	"swipely/internal/reports"
)

// organizationCacheTTL bounds how long a resolved slug is reused.
const organizationCacheTTL = 5 * time.Minute

// publicCORSConfig is shared by the ingestion endpoints and the SDK, which are
// called from any site embedding swipeable content.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// reportsCORSConfig lets dashboards on other origins read reports and
// revalidate them with ETags.
var reportsCORSConfig = &cors.Config{
	AllowOrigins:  "*",
	AllowMethods:  "GET,OPTIONS",
	AllowHeaders:  "Origin, Content-Type, Accept, Authorization, If-None-Match",
	ExposeHeaders: "ETag, Retry-After",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()
	db := srv.GetDBManager().GetConnection()
	logger := srv.GetLogger()

	// Rate limiting would interfere with development and tests.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 70/min per IP covers a client flushing a batch every couple of seconds.
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	reportsRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(120),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// ============================================
	// DEPENDENCIES
	// ============================================

	cache, err := reportcache.Open(cfg.RedisURL, cfg.ReportCacheTTL(), logger)
	if err != nil {
		logger.Error("Report cache unavailable, serving uncached reports", slog.Any("error", err))
		cache = reportcache.Noop{}
	}
	var cachePinger http.Pinger
	if redisCache, ok := cache.(*reportcache.Redis); ok {
		cachePinger = redisCache
	}

	directory := organizations.NewDirectory(db, logger, organizationCacheTTL)
	reportService := reports.NewService(db, logger, reports.OptionsFromConfig(cfg),
		reports.WithCache(cache),
		reports.WithDirectory(directory),
		reports.WithMetrics(metrics.Default()),
	)
	reportsHandler := v1.NewReportsHandler(reportService)
	healthHandler := http.NewHealthHandler(cachePinger)

	// ============================================
	// ROUTE CONFIGURATIONS
	// ============================================

	// CORS runs first so 403 responses still carry CORS headers.
	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	sdkConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	reportsConfig := &cartridge.RouteConfig{
		EnableCORS: true,
		CustomMiddleware: []fiber.Handler{
			reportsRateLimiter,
			middleware.OrganizationFilter(directory, logger),
		},
		CORSConfig: reportsCORSConfig,
	}

	// Probes and scrapers are not browsers.
	probeConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
	}

	// === OPERATIONS ===
	srv.Get("/_health", healthHandler.IndexAction, probeConfig)
	srv.Head("/_health", healthHandler.IndexAction, probeConfig)

	metricsHandler := metrics.Handler()
	srv.Get("/metrics", func(ctx *cartridge.Context) error {
		return metricsHandler(ctx.Ctx)
	}, probeConfig)

	// === PUBLIC INGESTION ===
	srv.Post("/x/api/v1/events", v1.CreateEventsPublicAPIHandler, publicAPIConfig)
	srv.Options("/x/api/v1/events", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)
	srv.Post("/x/api/v1/events/beacon", v1.CreateEventsBeaconHandler, publicAPIConfig)
	srv.Options("/x/api/v1/events/beacon", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)

	// === SDK ===
	srv.Get("/y/api/v1/sdk.js", v1.GetSDKAction, sdkConfig)

	// === REPORTS ===
	srv.Get("/api/v1/organizations/:slug/analytics", reportsHandler.OverviewAction, reportsConfig)
	srv.Get("/api/v1/organizations/:slug/content-units/:publicId/analytics", reportsHandler.DeepDiveAction, reportsConfig)
}
