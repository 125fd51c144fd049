package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dulces-mila/mila-backend/internal/app"
	"github.com/dulces-mila/mila-backend/internal/auth"
	"github.com/dulces-mila/mila-backend/internal/cart"
	"github.com/dulces-mila/mila-backend/internal/catalog"
	"github.com/dulces-mila/mila-backend/internal/jobs"
	"github.com/dulces-mila/mila-backend/internal/observability"
	"github.com/dulces-mila/mila-backend/internal/platform/db"
	"github.com/dulces-mila/mila-backend/internal/sales"
	"github.com/dulces-mila/mila-backend/internal/shared"
	"github.com/dulces-mila/mila-backend/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolConfig{MaxConns: cfg.PGMaxConns, MinConns: cfg.PGMinConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	userRepo := users.NewRepository(pool)
	userService := users.NewService(userRepo)

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authMiddleware := auth.NewMiddleware(tokens, logger)
	authHandler := auth.NewHandler(logger, userService, tokens, authMiddleware, app.LoginRateLimiter(cfg))
	usersHandler := users.NewHandler(logger, userService, authMiddleware.RequireAdmin)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, authMiddleware.RequireAdmin)

	cartRepo := cart.NewRepository(pool)
	cartService := cart.NewService(cartRepo, userRepo, catalogRepo)
	cartHandler := cart.NewHandler(logger, cartService, authMiddleware.RequireUser)

	receipts := jobs.NewReceiptEnqueuer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, userRepo, logger)
	defer func() {
		if err := receipts.Close(); err != nil {
			logger.Warn("receipt enqueuer close", slog.Any("error", err))
		}
	}()

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, userRepo, auditLogger, receipts)
	salesHandler := sales.NewHandler(logger, salesService, metrics, authMiddleware.RequireUser, app.CheckoutRateLimiter(cfg))

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,
		Pool:    pool,
		Redis:   redisClient,
		Auth:    authHandler,
		Users:   usersHandler,
		Catalog: catalogHandler,
		Cart:    cartHandler,
		Sales:   salesHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
