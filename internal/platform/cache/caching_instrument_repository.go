// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"market_dashboard/internal/feature/instruments/domain/entity"
	"market_dashboard/internal/feature/instruments/usecase"
)

// DefaultTTL はシンボル解決結果のデフォルトのキャッシュ期間です。
const DefaultTTL = time.Hour

// CachingInstrumentRepository decorates an InstrumentRepository with Redis caching
// of symbol resolution. Listing and search queries pass through to the inner repository.
type CachingInstrumentRepository struct {
	inner     usecase.InstrumentRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	refresh   cron.Schedule
	now       func() time.Time
}

// CachingInstrumentRepositoryがInstrumentRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.InstrumentRepository = (*CachingInstrumentRepository)(nil)

// NewCachingInstrumentRepository decorates an InstrumentRepository with Redis caching.
// If ttl is 0, it defaults to 1 hour. If namespace is empty, it uses "instruments".
func NewCachingInstrumentRepository(rdb *redis.Client, ttl time.Duration, inner usecase.InstrumentRepository, namespace string) *CachingInstrumentRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = "instruments"
	}
	return &CachingInstrumentRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
	}
}

// WithRefreshSchedule sets the instrument sync schedule. Cached entries then expire
// no later than the next scheduled sync.
func (c *CachingInstrumentRepository) WithRefreshSchedule(schedule cron.Schedule) *CachingInstrumentRepository {
	c.refresh = schedule
	return c
}

// UpsertBatch inserts or updates instruments and invalidates resolution entries
// of every exchange touched by the batch.
func (c *CachingInstrumentRepository) UpsertBatch(ctx context.Context, instruments []entity.Instrument) error {
	if err := c.inner.UpsertBatch(ctx, instruments); err != nil {
		return err
	}
	if c.rdb == nil || len(instruments) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, inst := range instruments {
		prefix := c.cacheKeyPrefix(inst.Exchange)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		_ = c.deleteByPattern(ctx, prefix+"*") // best effort
	}
	return nil
}

// FindBySymbol resolves a symbol, checking cache first then falling back to the database.
// Misses (domain.ErrInstrumentNotFound) are not cached.
func (c *CachingInstrumentRepository) FindBySymbol(ctx context.Context, exchange, symbol string) (entity.Instrument, error) {
	if c.rdb == nil {
		return c.inner.FindBySymbol(ctx, exchange, symbol)
	}

	key := c.cacheKey(exchange, symbol)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.Instrument
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// 破損したエントリは削除する
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.FindBySymbol(ctx, exchange, symbol)
	if err != nil {
		return entity.Instrument{}, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.expiry()).Err()
	}
	return out, nil
}

// Search delegates to the inner repository.
func (c *CachingInstrumentRepository) Search(ctx context.Context, exchange, query string, limit int) ([]entity.Instrument, error) {
	return c.inner.Search(ctx, exchange, query, limit)
}

// List delegates to the inner repository.
func (c *CachingInstrumentRepository) List(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error) {
	return c.inner.List(ctx, exchange, search, offset, limit)
}

// ListBySymbols delegates to the inner repository.
func (c *CachingInstrumentRepository) ListBySymbols(ctx context.Context, exchange string, symbols []string) ([]entity.Instrument, error) {
	return c.inner.ListBySymbols(ctx, exchange, symbols)
}

func (c *CachingInstrumentRepository) expiry() time.Duration {
	return TTLUntilNext(c.refresh, c.now(), c.ttl)
}

// cacheKey generates a cache key for a symbol resolution.
func (c *CachingInstrumentRepository) cacheKey(exchange, symbol string) string {
	return c.cacheKeyPrefix(exchange) + safe(strings.ToUpper(strings.TrimSpace(symbol)))
}

// cacheKeyPrefix generates a prefix covering every resolution of an exchange.
func (c *CachingInstrumentRepository) cacheKeyPrefix(exchange string) string {
	return fmt.Sprintf("%s:resolve:%s:", c.namespace, safe(strings.ToUpper(exchange)))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingInstrumentRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
