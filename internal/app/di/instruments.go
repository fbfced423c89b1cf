package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	instrumentadapters "market_dashboard/internal/feature/instruments/adapters"
	"market_dashboard/internal/feature/instruments/usecase"
	"market_dashboard/internal/platform/cache"
)

// NewInstrumentRepository creates an InstrumentRepository implementation.
// If Redis is available, symbol resolution is cached until ttl or the next
// scheduled sync, whichever comes first. Otherwise, it uses the database directly.
func NewInstrumentRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration, sync cron.Schedule) usecase.InstrumentRepository {
	repo := instrumentadapters.NewInstrumentRepository(db)
	if rdb != nil {
		return cache.NewCachingInstrumentRepository(rdb, ttl, repo, "instruments").WithRefreshSchedule(sync)
	}
	return repo
}
