package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/invoicer/backend/internal/infrastructure/cache"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/storage"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/invoicer/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.App, cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting invoicer",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	opts := []invoicing.Option{
		invoicing.WithDefaultCurrency(valueobject.Currency(cfg.Invoice.DefaultCurrency)),
	}
	var healthOpts []handler.HealthOption

	// Persistence is optional; without it only the stateless endpoints work
	if cfg.Database.Enabled {
		db, err := persistence.NewDatabase(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

		opts = append(opts, invoicing.WithRepository(persistence.NewGormInvoiceRepository(db.DB)))
		healthOpts = append(healthOpts, handler.WithHealthCheck("database", func(context.Context) error {
			return db.Ping()
		}))
	}

	// Document cache: Redis when configured, memory otherwise
	docCache, err := cache.NewDocumentCacheFactory(cfg.Redis, cache.WithLogger(log)).CreateCache()
	if err != nil {
		log.Fatal("Failed to create document cache", zap.Error(err))
	}
	defer func() {
		if err := docCache.Close(); err != nil {
			log.Error("Error closing document cache", zap.Error(err))
		}
	}()
	opts = append(opts, invoicing.WithDocumentCache(docCache))
	if pinger, ok := docCache.(interface{ Ping(context.Context) error }); ok {
		healthOpts = append(healthOpts, handler.WithHealthCheck("redis", pinger.Ping))
	}

	archive, err := newArchive(cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize PDF archive", zap.Error(err))
	}
	if archive != nil {
		opts = append(opts, invoicing.WithArchive(archive))
	}

	composer, err := printing.NewDocumentComposerFromConfig(cfg.Invoice)
	if err != nil {
		log.Fatal("Failed to initialize document composer", zap.Error(err))
	}

	invoiceService := invoicing.NewInvoiceService(composer, log, opts...)

	// Setup Gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log, logger.WithSkipPaths("/health", "/health/ready")))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var renderLimit gin.HandlerFunc
	if cfg.HTTP.RenderRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RenderRateLimit, cfg.HTTP.RenderRateWindow)
		defer limiter.Stop()
		renderLimit = middleware.RateLimit(limiter)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.InvoiceRoutes(handler.NewInvoiceHandler(invoiceService), renderLimit))
	r.RegisterRoot(handler.NewHealthHandler(cfg.App.Name, version, healthOpts...))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.Bool("persistence", invoiceService.PersistenceEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// newArchive returns the configured PDF archive, or nil when archiving is off
func newArchive(cfg config.StorageConfig, log *zap.Logger) (printing.PDFStorage, error) {
	switch cfg.Type {
	case config.StorageFileSystem:
		fsStorage, err := printing.NewFileSystemStorage(&printing.FileSystemStorageConfig{
			BasePath: cfg.BasePath,
			BaseURL:  cfg.BaseURL,
			Logger:   log,
		})
		if err != nil {
			return nil, err
		}
		return fsStorage, nil
	case config.StorageS3:
		s3Storage, err := storage.NewS3DocumentStorage(&cfg, storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s3Storage, nil
	default:
		return nil, nil
	}
}
