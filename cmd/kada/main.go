// Command kada runs the franchise partner portal API: cross-store revenue
// reconciliation, cached analytics, and payout processing.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thekada/revenue-engine/internal/app"
	"github.com/thekada/revenue-engine/internal/mailer"
	"github.com/thekada/revenue-engine/internal/memocache"
	"github.com/thekada/revenue-engine/internal/observability"
	"github.com/thekada/revenue-engine/internal/payouts"
	"github.com/thekada/revenue-engine/internal/platform/cache"
	"github.com/thekada/revenue-engine/internal/platform/db"
	"github.com/thekada/revenue-engine/internal/reconcile"
	"github.com/thekada/revenue-engine/internal/reports"
	reporthttp "github.com/thekada/revenue-engine/internal/reports/http"
	"github.com/thekada/revenue-engine/internal/shared"
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

	primary, err := db.NewPrimary(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect primary store", slog.Any("error", err))
		os.Exit(1)
	}
	defer primary.Close()

	operational, err := db.NewOperational(ctx, cfg.MySQLDSN)
	if err != nil {
		logger.Error("connect operational store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := operational.Close(); err != nil {
			logger.Warn("operational store close", slog.Any("error", err))
		}
	}()

	// The portal serves from in-process cache; redis only fans out
	// invalidations, so a missing redis degrades to single-replica behavior.
	memoStore := memocache.New()
	var broadcaster *memocache.Broadcaster
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, cache invalidation stays local", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		broadcaster = memocache.NewBroadcaster(redisClient, logger)
		broadcaster.Listen(ctx, memoStore)
	}

	var sender mailer.Sender
	if !cfg.MailOff {
		ses, err := mailer.NewSESSender(ctx, cfg.AWSRegion, cfg.MailFrom)
		if err != nil {
			logger.Warn("ses unavailable, payout email disabled", slog.Any("error", err))
		} else {
			sender = ses
		}
	}

	operationalRepo := reconcile.NewOperationalRepo(operational)
	primaryRepo := reconcile.NewPrimaryRepo(primary)
	aggregator := reconcile.NewService(operationalRepo, primaryRepo, logger, cfg.SubqueryTimeout)

	metrics := observability.NewMetrics()

	reportService := reports.NewService(aggregator, memoStore, broadcaster, nil)
	reportService.WithObserver(metrics)
	reportService.WithTTLs(cfg.CacheTTLAnalytics, cfg.CacheTTLStats, cfg.CacheTTLZones)
	reportHandler := reporthttp.NewHandler(logger, reportService)

	auditLogger := shared.NewAuditLogger(primary, logger)
	payoutRepo := payouts.NewRepository(primary)
	payoutService := payouts.NewService(payoutRepo, aggregator, sender, auditLogger, logger)
	payoutHandler := payouts.NewHandler(logger, payoutService)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		ReportHandler: reportHandler,
		PayoutHandler: payoutHandler,
		Cache:         memoStore,
		Metrics:       metrics,
		ReadinessCheck: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := primary.Ping(pingCtx); err != nil {
				return err
			}
			return operational.PingContext(pingCtx)
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
