package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"market_dashboard/internal/app/di"
	instrumentusecase "market_dashboard/internal/feature/instruments/usecase"
	"market_dashboard/internal/platform/config"
	infradb "market_dashboard/internal/platform/db"
	"market_dashboard/internal/platform/logger"
	infraredis "market_dashboard/internal/platform/redis"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env not found. Using process environment.")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dbCfg := infradb.LoadConfigFromEnv()
	dbCfg.Migrate = true
	db, err := infradb.Open(dbCfg)
	if err != nil {
		log.Fatal("failed to open db:", err)
	}

	// Redisがあれば同期後にシンボル解決のキャッシュを無効化する
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig()); err == nil {
		rdb = tmp
		defer func() { _ = rdb.Close() }()
	}

	repo := di.NewInstrumentRepository(db, rdb, cfg.Instruments.CacheTTL, nil)
	uc := instrumentusecase.NewInstrumentUsecase(repo, di.NewMarket(), cfg.Instruments.Exchange, cfg.Instruments.Popular)

	n, err := uc.Sync(ctx)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("sync ok: %d instruments (%s)", n, uc.Exchange())
}
