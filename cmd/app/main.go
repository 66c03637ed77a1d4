// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"ebook-subscription/internal/config"
	"ebook-subscription/internal/domain/ports/adapter"
	payAdapters "ebook-subscription/internal/infra/adapters/payment"
	"ebook-subscription/internal/infra/api"
	pg "ebook-subscription/internal/infra/db/postgres"
	"ebook-subscription/internal/infra/logging"
	"ebook-subscription/internal/infra/metrics"
	red "ebook-subscription/internal/infra/redis"
	"ebook-subscription/internal/infra/sched"
	"ebook-subscription/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	paymentRepo := pg.NewPaymentRepoCacheDecorator(pg.NewPaymentRepo(pool), redisClient, cfg.Redis.TTL)
	userRepo := pg.NewUserRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopPaymentGateway()
		logger.Warn().Msg("payment gateway: noop (dev)")
	} else {
		gateway, err = payAdapters.NewMidtransGateway(cfg.Payment.Midtrans.ServerKey, cfg.Payment.Midtrans.Production)
		if err != nil {
			logger.Fatal().Err(err).Msg("midtrans gateway")
		}
	}

	// ---- Use cases ----
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, userRepo, gateway, cfg.Pricing, cfg.Payment.FrontendURL, logger)
	notifUC := usecase.NewNotificationUseCase(paymentRepo, userRepo, gateway, tm, logger)
	statsUC := usecase.NewStatsUseCase(paymentRepo, userRepo)

	// ---- Background workers ----
	sweeper := sched.NewPendingSweeper(paymentRepo, cfg.Sweeper.Interval, cfg.Sweeper.StaleAfter, logger)
	go sweeper.Start(ctx)

	go poolStatsLoop(ctx, pool)

	// ---- HTTP API ----
	auth := api.NewAuthManager(cfg.API.JWTSecret)
	limiter := red.NewRateLimiter(redisClient)
	server := api.NewServer(paymentUC, notifUC, statsUC, auth, limiter, cfg.API, logger)
	go func() {
		if err := server.Start(cfg.API.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

func poolStatsLoop(ctx context.Context, pool *pgxpool.Pool) {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st := pool.Stat()
			metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
		}
	}
}
