package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rmejia/cobranza-api/docs" // Swagger docs
	"github.com/rmejia/cobranza-api/internal/config"
	"github.com/rmejia/cobranza-api/internal/database"
	"github.com/rmejia/cobranza-api/internal/handlers"
	"github.com/rmejia/cobranza-api/internal/jobs"
	"github.com/rmejia/cobranza-api/internal/middleware"
	"github.com/rmejia/cobranza-api/internal/repository"
	"github.com/rmejia/cobranza-api/internal/services"
	"github.com/rmejia/cobranza-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Cobranza API
// @version 1.0
// @description REST API for the distribution back-office collections lifecycle
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Alert admins about overdue pending collections every hour
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Checking overdue collections...")
		if err := svcs.Collection.NotifyOverdueCollections(ctx); err != nil {
			logger.Error("Error checking overdue collections", "error", err)
		}
		return nil
	})
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Viewing (every role carries the view capability)
			viewing := protected.Group("")
			viewing.Use(middleware.RequireCapability(services.CapabilityView))
			{
				viewing.GET("/collections", h.Collection.Index)
				viewing.GET("/collections/grouped", h.Collection.Grouped)
				viewing.GET("/collections/:collection_id/cheques", h.Collection.Cheques)
				viewing.GET("/customers", h.Customer.Index)
				viewing.GET("/customers/:customer_id", h.Customer.Show)
				viewing.GET("/reports/aging", h.Export.AgingSummary)
			}

			// Completing operations (admin, manager, collector)
			completing := protected.Group("")
			completing.Use(middleware.RequireCapability(services.CapabilityVerifyAndComplete))
			{
				completing.POST("/collections/:collection_id/verify", h.Collection.Verify)
				completing.POST("/collections/:collection_id/recognize", h.Collection.Recognize)
				completing.POST("/collections/:collection_id/partial_payment", h.Collection.PartialPayment)
				completing.POST("/collections/:collection_id/cheques", h.Collection.RecordCheques)
				completing.POST("/collections/:collection_id/conversion", h.Collection.BeginConversion)
				completing.DELETE("/collections/:collection_id/conversion", h.Collection.AbortConversion)
			}

			// Exports (admin, manager)
			exporting := protected.Group("")
			exporting.Use(middleware.RequireCapability(services.CapabilityExport))
			{
				exporting.GET("/collections/export", h.Export.Export)
				exporting.GET("/reports/aging/pdf", h.Export.AgingReportPDF)
			}

			// Hard deletes (admin only)
			deleting := protected.Group("")
			deleting.Use(middleware.RequireCapability(services.CapabilityDelete))
			{
				deleting.DELETE("/collections/:collection_id", h.Collection.Delete)
			}

			// Notifications (personal data access)
			protected.GET("/notifications", h.Notification.Index)
			protected.PUT("/notifications/:id/read", h.Notification.MarkAsRead)
			protected.PUT("/notifications/read_all", h.Notification.MarkAllAsRead)
		}
	}

	return router
}
