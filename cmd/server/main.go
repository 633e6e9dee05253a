package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"floreria/internal/config"
	"floreria/internal/delivery"
	handlers "floreria/internal/handlers/shared"
	"floreria/internal/middleware"
	"floreria/internal/repositories/mongodb"
	"floreria/internal/services"
	"floreria/internal/utils"
	"floreria/pkg/cache"
	"floreria/pkg/database"
	"floreria/pkg/logger"
	"floreria/pkg/maps"
	"floreria/pkg/metrics"
	"floreria/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if !config.IsProduction() {
		_ = godotenv.Load()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := newEngine(cfg.Delivery)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load delivery catalog")
	}
	if cfg.Delivery.CatalogFile != "" && cfg.Delivery.WatchCatalog {
		watcher, err := delivery.NewCatalogWatcher(engine, cfg.Delivery.CatalogFile, appLogger)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to watch delivery catalog")
		}
		go watcher.Run(ctx)
	}

	db, err := database.NewMongoDB(ctx, &database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close(context.Background())

	if cfg.Database.AutoMigrate {
		if err := database.NewMigrator(db.Database, appLogger, cfg.Delivery.QuoteRetention).Up(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	var (
		redisCache   *cache.RedisCache
		cacheService services.CacheService
	)
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(ctx, &cache.RedisConfig{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			appLogger.WithError(err).Warn("Redis unavailable, running without cache and with per-instance rate limiting")
		} else {
			defer redisCache.Close()
			cacheService = services.NewCacheService(redisCache, appLogger, utils.CacheKeyPrefix)
		}
	}

	geocoder, err := newGeocoder(cfg.Maps)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to create geocoder")
	}
	if geocoder == nil {
		appLogger.Warn("No maps provider configured, address resolution is disabled")
	}

	// Initialize services
	quoteRepo := mongodb.NewDeliveryQuoteRepository(db)
	deliveryService := services.NewDeliveryService(engine, quoteRepo, cacheService, geocoder, cfg.Delivery, appLogger)

	// Initialize handlers
	deliveryHandler := handlers.NewDeliveryHandler(deliveryService, engine.Location(), appLogger)
	deps := map[string]handlers.Pinger{"mongodb": db}
	if redisCache != nil {
		deps["redis"] = redisCache
	}
	healthHandler := handlers.NewHealthHandler(cfg.App.Version, deps)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxies")
	}

	// Global middleware
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	if cfg.App.MetricsEnabled {
		router.Use(middleware.MetricsMiddleware())
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	router.GET("/health", healthHandler.Health)

	var limiter middleware.RateLimiter
	if cacheService != nil {
		limiter = cacheService
	} else {
		local := middleware.NewLocalRateLimiter(10 * time.Minute)
		local.StartCleanup(ctx, time.Minute)
		limiter = local
	}

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimitMiddleware(limiter, cfg.Security.RateLimitPerMinute, appLogger))
	v1.Use(middleware.TimeoutMiddleware(cfg.Delivery.RequestTimeout))
	{
		routes.SetupDeliveryRoutes(v1, deliveryHandler, cfg.Security.JWTSecret)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(map[string]interface{}{
			"port":     cfg.App.Port,
			"timezone": engine.Location().String(),
			"cache":    cacheService != nil,
		}).Info("Starting delivery server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Graceful shutdown failed")
	}
}

func newEngine(cfg *config.DeliveryConfig) (*delivery.Engine, error) {
	catalog := delivery.DefaultCatalog()
	if cfg.CatalogFile != "" {
		var err error
		catalog, err = delivery.LoadCatalogFile(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
	}
	return delivery.NewEngine(catalog, delivery.WithLocation(utils.LoadLocation(cfg.Timezone))), nil
}

// newGeocoder returns nil when no provider is enabled.
func newGeocoder(cfg *config.MapsConfig) (maps.Geocoder, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	opts := maps.Options{Region: cfg.Region, Language: cfg.Language}
	switch cfg.Provider {
	case config.MapsProviderGoogle:
		provider, err := maps.NewGoogleMapsProvider(cfg.GoogleMaps.APIKey, opts)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case config.MapsProviderMapbox:
		opts.BaseURL = cfg.Mapbox.BaseURL
		return maps.NewMapboxProvider(cfg.Mapbox.AccessToken, opts), nil
	}
	return nil, nil
}
