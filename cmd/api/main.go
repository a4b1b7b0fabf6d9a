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

	"coffee-on/internal/audit"
	"coffee-on/internal/catalog"
	"coffee-on/internal/config"
	"coffee-on/internal/database"
	"coffee-on/internal/handler"
	"coffee-on/internal/mailer"
	"coffee-on/internal/repository"
	"coffee-on/internal/router"
	"coffee-on/internal/service"
	"coffee-on/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("env", cfg.Env).Msg("starting coffee-on API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize session store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Session.RedisAddr,
		Password: cfg.Session.RedisPassword,
		DB:       cfg.Session.RedisDB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	sessions := session.NewRedisStore(redisClient, logger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	auditRepo := repository.NewAuditRepository(pool, logger)
	dashboardRepo := repository.NewDashboardRepository(pool, logger)

	if cfg.Catalog.SeedEnabled {
		if err := seedCatalog(ctx, cfg.Catalog, productRepo, logger); err != nil {
			return err
		}
	}

	recorder := audit.NewRecorder(auditRepo, logger)
	mail := mailer.New(cfg.SMTP, logger)

	// Initialize services
	accountService := service.NewAccountService(userRepo, sessions, cfg.Session.TTL, mail, recorder, logger)
	productService := service.NewProductService(productRepo, recorder, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, recorder, cfg.Pricing.Mode, logger)
	dashboardService := service.NewDashboardService(dashboardRepo, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Health: handler.NewHealthHandler(pool, logger),
		Auth: handler.NewAuthHandler(accountService, handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.Secure,
		}, logger),
		Users:     handler.NewUserHandler(accountService, logger),
		Products:  handler.NewProductHandler(productService, logger),
		Orders:    handler.NewOrderHandler(orderService, logger),
		Dashboard: handler.NewDashboardHandler(dashboardService, logger),
	}, router.Options{
		Accounts:       accountService,
		CookieName:     cfg.Session.CookieName,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("pricing_mode", cfg.Pricing.Mode).
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
		return nil
	})

	return g.Wait()
}

// seedCatalog imports the configured catalog files, reading from S3 when
// enabled and falling back to the local directory.
func seedCatalog(ctx context.Context, cfg config.CatalogConfig, store catalog.Store, logger zerolog.Logger) error {
	fileLoader := catalog.NewFileLoader(cfg.Dir, logger)

	var s3Loader catalog.Loader
	if cfg.S3.Enabled {
		l, err := catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	} else {
		logger.Info().Msg("using local file system for catalog files (S3 disabled)")
	}

	importer := catalog.NewImporter(catalog.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger), store, logger)

	res, err := importer.Import(ctx, cfg.Files)
	if err != nil {
		return fmt.Errorf("failed to import catalog: %w", err)
	}

	logger.Info().
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Msg("catalog imported")

	return nil
}
