package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/dealer-backend/config"
	"github.com/ikkim/dealer-backend/internal/app/controller"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	"github.com/ikkim/dealer-backend/internal/app/service"
	"github.com/ikkim/dealer-backend/internal/db"
	"github.com/ikkim/dealer-backend/internal/middleware"
	"github.com/ikkim/dealer-backend/internal/router"
	"github.com/ikkim/dealer-backend/internal/scheduler"
	"github.com/ikkim/dealer-backend/internal/storage"
	ws "github.com/ikkim/dealer-backend/internal/websocket"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/ikkim/dealer-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := cfg.Server.LogLevel
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.LogFormat == "console",
	})

	logger.Info("Starting dealership backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.SeedAdmin(db.GetDB(), cfg.Admin); err != nil {
		logger.Warn("Failed to seed admin account", map[string]interface{}{
			"error": err.Error(),
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional; without it analytics are uncached and logout is client side only
	var (
		reportCache service.ReportCache = service.NoopReportCache{}
		blacklist   service.TokenBlacklist
	)
	if cfg.Redis.Enabled() {
		client, err := redis.Init(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache and token blacklist", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
			reportCache = redis.NewJSONCache(client, "dealer:")
			blacklist = redis.NewBlacklist(client)
		}
	}

	var uploader service.ReportUploader
	if cfg.S3.Enabled() {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			logger.Warn("S3 unavailable, report upload disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			uploader = s3Storage
		}
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	gormDB := db.GetDB()
	userRepo := repository.NewUserRepository(gormDB)
	vehicleRepo := repository.NewVehicleRepository(gormDB)
	customerRepo := repository.NewCustomerRepository(gormDB)
	saleRepo := repository.NewSaleRepository(gormDB)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	vehicleService := service.NewVehicleService(vehicleRepo, nil)
	customerService := service.NewCustomerService(customerRepo, nil)
	saleService := service.NewSaleService(gormDB, saleRepo, vehicleRepo, customerRepo, vehicleService,
		service.WithSaleEventPublisher(service.SalePublishers{
			hub,
			service.NewReportInvalidator(reportCache),
		}),
	)
	analyticsService := service.NewAnalyticsService(saleRepo, vehicleRepo, customerRepo,
		service.WithReportCache(reportCache, cfg.Analytics.CacheTTL),
		service.WithProjectionConfig(cfg.Analytics.Projection),
	)
	exportService := service.NewReportExportService(analyticsService, uploader, nil)

	if cfg.Report.ExportCron != "" {
		reports := scheduler.NewReportScheduler(cfg.Report.ExportCron, exportService)
		if err := reports.Start(); err != nil {
			logger.Fatal("Failed to start report scheduler", err)
		}
		defer reports.Stop()
	}

	// Initialize controllers
	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewVehicleController(vehicleService),
		controller.NewCustomerController(customerService),
		controller.NewSaleController(saleService),
		controller.NewAnalyticsController(analyticsService, exportService),
		controller.NewSaleFeedController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(authService),
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
	}

	logger.Info("Server stopped successfully")
}
