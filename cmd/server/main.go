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

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	"github.com/ikkim/storefront-backend/internal/search"
	"github.com/ikkim/storefront-backend/internal/storage"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "debug"
	logFormat := "console"
	if cfg.Server.IsProduction() {
		logLevel = "info"
		logFormat = "json"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: !cfg.Server.IsProduction(),
	})
	apperrors.SetExposeDetails(cfg.Server.Environment == "development")

	logger.Info("Starting storefront backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()
	database := db.GetDB()

	if !cfg.Server.IsProduction() {
		if err := db.Migrate(database); err != nil {
			logger.Fatal("Failed to run migrations", err)
		}
	}
	if _, err := db.SeedAdmin(database, cfg.Admin); err != nil {
		logger.Warn("Failed to seed admin account", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Optional backends. Interfaces stay nil when a backend is off.
	var cache service.Cache
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, running without catalog cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			cache = redis.NewCache(redis.GetClient(), "catalog", cfg.Redis.CacheTTL)
			defer redis.Close()
		}
	}

	var index search.Index
	if cfg.Search.Enabled() {
		client, err := search.NewClient(cfg.Search)
		if err != nil {
			logger.Warn("Elasticsearch unavailable, search falls back to SQL", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			index = search.NewElasticIndex(client, cfg.Search.Index)
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", err)
		}
	}()

	var uploadController *controller.UploadController
	if s3, err := storage.NewS3Storage(ctx, cfg.S3); err != nil {
		logger.Warn("S3 unavailable, image uploads disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		uploadController = controller.NewUploadController(s3)
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	userRepo := repository.NewUserRepository(database)
	productRepo := repository.NewProductRepository(database)
	reviewRepo := repository.NewReviewRepository(database)
	cartRepo := repository.NewCartRepository(database)
	ticketRepo := repository.NewSupportTicketRepository(database)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiry)
	userService := service.NewUserService(userRepo, productRepo, publisher)
	productService := service.NewProductService(productRepo, cache, index, publisher)
	reviewService := service.NewReviewService(reviewRepo, productRepo, productService)
	cartService := service.NewCartService(database, cartRepo, productRepo)
	ticketService := service.NewSupportTicketService(database, ticketRepo, userRepo, hub, publisher)

	// Background jobs
	ticketScheduler := scheduler.NewTicketScheduler(ticketService, cfg.Tickets.AutoCloseCron, cfg.Tickets.AutoCloseAfter)
	if err := ticketScheduler.Start(); err != nil {
		logger.Fatal("Failed to start ticket scheduler", err)
	}
	defer ticketScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		router.Controllers{
			Auth:         controller.NewAuthController(authService),
			User:         controller.NewUserController(userService),
			Product:      controller.NewProductController(productService),
			Review:       controller.NewReviewController(reviewService),
			Cart:         controller.NewCartController(cartService),
			Support:      controller.NewSupportController(ticketService),
			Admin:        controller.NewAdminController(userService),
			Upload:       uploadController,
			Notification: controller.NewNotificationController(hub, cfg.CORS.AllowedOrigins),
		},
		middleware.NewAuthMiddleware(cfg.JWT.Secret, userRepo),
		middleware.NewRateLimiter(cfg.RateLimit.AuthPerSecond, cfg.RateLimit.AuthBurst),
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
