package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"market_dashboard/internal/app/di"
	"market_dashboard/internal/app/router"
	historicalhandler "market_dashboard/internal/feature/historical/transport/handler"
	historicalusecase "market_dashboard/internal/feature/historical/usecase"
	instrumenthandler "market_dashboard/internal/feature/instruments/transport/handler"
	instrumentusecase "market_dashboard/internal/feature/instruments/usecase"
	quotehandler "market_dashboard/internal/feature/quotes/transport/handler"
	quoteusecase "market_dashboard/internal/feature/quotes/usecase"
	"market_dashboard/internal/platform/config"
	infradb "market_dashboard/internal/platform/db"
	platformhandler "market_dashboard/internal/platform/http/handler"
	"market_dashboard/internal/platform/logger"
	infraredis "market_dashboard/internal/platform/redis"
	"market_dashboard/internal/platform/scheduler"
	"market_dashboard/internal/shared/timestamp"
)

const (
	instrumentSyncJob = "instrument-sync"
	shutdownTimeout   = 10 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env not found. Using process environment.")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] invalid config: %v", err)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.Open(infradb.LoadConfigFromEnv())
	if err != nil {
		log.Fatalf("[FATAL] open db: %v", err)
	}

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig()); err != nil {
		if errors.Is(err, infraredis.ErrNotConfigured) {
			log.Println("[INFO] Redis not configured. Running without cache.")
		} else {
			log.Println("[WARN] Redis unavailable. Running without cache.")
		}
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	syncSchedule, err := scheduler.ParseSpec(cfg.Instruments.SyncCron)
	if err != nil {
		log.Fatalf("[FATAL] parse sync schedule: %v", err)
	}

	// Repository / upstream
	market := di.NewMarket()
	instrumentRepo := di.NewInstrumentRepository(db, rdb, cfg.Instruments.CacheTTL, syncSchedule)

	// Usecase
	instrumentUC := instrumentusecase.NewInstrumentUsecase(instrumentRepo, market, cfg.Instruments.Exchange, cfg.Instruments.Popular)
	historicalUC := historicalusecase.NewHistoricalUsecase(market, instrumentUC, timestamp.Default, historicalusecase.SystemClock,
		historicalusecase.FetcherConfig{ChunkDays: cfg.Historical.ChunkDays, Timeout: cfg.Historical.ChunkTimeout})
	quoteUC := quoteusecase.NewQuoteUsecase(market, instrumentUC, historicalUC, timestamp.Default, historicalusecase.SystemClock)

	// Handler
	instrumentH := instrumenthandler.NewInstrumentHandler(instrumentUC)
	historicalH := historicalhandler.NewHistoricalHandler(historicalUC)
	quoteH := quotehandler.NewQuoteHandler(quoteUC)

	// 銘柄マスタの定期同期（IST）
	sched := scheduler.New(ctx, timestamp.IST)
	if err := sched.Register(instrumentSyncJob, cfg.Instruments.SyncCron, func(ctx context.Context) error {
		n, err := instrumentUC.Sync(ctx)
		if err != nil {
			return err
		}
		slog.Info("instrument directory synced", "exchange", instrumentUC.Exchange(), "count", n)
		return nil
	}); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()
	if cfg.Instruments.SyncOnStart {
		go func() { _ = sched.RunNow(instrumentSyncJob) }()
	}

	// ルータ生成
	r := router.NewRouter(router.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Ready:       platformhandler.Readiness(readinessChecks(db, rdb)),
	}, instrumentH, historicalH, quoteH)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("[ERROR] server shutdown:", err)
	}
}

func readinessChecks(db *gorm.DB, rdb *redisv9.Client) map[string]platformhandler.Check {
	checks := map[string]platformhandler.Check{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}
