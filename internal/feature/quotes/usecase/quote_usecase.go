// Package usecase は気配値・板情報・銘柄詳細・市場状態のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	historicalentity "market_dashboard/internal/feature/historical/domain/entity"
	instrumentsdomain "market_dashboard/internal/feature/instruments/domain"
	instrumententity "market_dashboard/internal/feature/instruments/domain/entity"
	"market_dashboard/internal/feature/quotes/domain"
	"market_dashboard/internal/feature/quotes/domain/entity"
	"market_dashboard/internal/shared/timestamp"
)

const (
	// DefaultDepth は板情報の片側のデフォルト段数です。
	DefaultDepth = 5
	// MaxDepth は板情報の片側の最大段数です（Kite のフル気配は20段）。
	MaxDepth = 20
	// HistoryDays は銘柄詳細に含める日足の暦日数です。
	HistoryDays = 30
)

// 銘柄詳細の一部が取得できなかったときに付与する案内文です。
const (
	NoteQuoteUnavailable   = "Live quote is unavailable; showing instrument details only."
	NoteHistoryUnavailable = "Recent daily candles could not be fetched from the data provider."
)

// 立会時間（IST）。取引所の休日は考慮しません。
const (
	sessionOpenMinute  = 9*60 + 15
	sessionCloseMinute = 15*60 + 30
)

// QuoteSource は "EXCHANGE:SYMBOL" 形式のキーで気配値を取得します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type QuoteSource interface {
	Quote(ctx context.Context, keys []string) (map[string]entity.Quote, error)
}

// InstrumentDirectory は銘柄の解決と件数の取得を行います。
type InstrumentDirectory interface {
	Exchange() string
	Resolve(ctx context.Context, symbol string) (instrumententity.Instrument, error)
	Count(ctx context.Context) (int64, error)
}

// RecentHistory は直近の日足を表示用に整形して返します。失敗した場合は true を返します。
type RecentHistory interface {
	RecentDaily(ctx context.Context, token int64, days int) ([]historicalentity.RenderedBar, bool)
}

// Clock は現在時刻を返します。
type Clock interface {
	Now() time.Time
}

// QuoteUsecase は気配値を中心とした照会を提供します。
type QuoteUsecase struct {
	source     QuoteSource
	directory  InstrumentDirectory
	history    RecentHistory
	normalizer *timestamp.Normalizer
	clock      Clock
}

// NewQuoteUsecase は QuoteUsecase を生成します。
func NewQuoteUsecase(source QuoteSource, directory InstrumentDirectory, history RecentHistory, normalizer *timestamp.Normalizer, clock Clock) *QuoteUsecase {
	if normalizer == nil {
		normalizer = timestamp.Default
	}
	return &QuoteUsecase{
		source:     source,
		directory:  directory,
		history:    history,
		normalizer: normalizer,
		clock:      clock,
	}
}

// StockDetail は銘柄情報に気配値と直近 HistoryDays 日の日足を加えて返します。
// 気配値や日足の取得失敗はエラーにせず、Notes に案内を入れます。
func (u *QuoteUsecase) StockDetail(ctx context.Context, symbol string) (*entity.StockDetail, error) {
	inst, err := u.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	detail := &entity.StockDetail{Instrument: inst}
	q, err := u.quote(ctx, inst)
	if err != nil {
		slog.Warn("failed to fetch quote", "symbol", inst.Symbol, "error", err)
		detail.Notes = append(detail.Notes, NoteQuoteUnavailable)
	} else {
		detail.Quote = &q
	}

	bars, failed := u.history.RecentDaily(ctx, inst.Token, HistoryDays)
	detail.History = bars
	if failed {
		detail.Notes = append(detail.Notes, NoteHistoryUnavailable)
	}

	detail.LastUpdated = u.normalizer.Render(u.clock.Now())
	return detail, nil
}

// OrderBook は板情報を片側 depth 段まで返します。depth が0の場合は DefaultDepth です。
func (u *QuoteUsecase) OrderBook(ctx context.Context, symbol string, depth int) (*entity.OrderBook, error) {
	if depth == 0 {
		depth = DefaultDepth
	}
	if depth < 0 || depth > MaxDepth {
		return nil, fmt.Errorf("%w: depth must be between 1 and %d", domain.ErrInvalidInput, MaxDepth)
	}

	inst, err := u.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}
	q, err := u.quote(ctx, inst)
	if err != nil {
		return nil, err
	}

	return &entity.OrderBook{
		Symbol: inst.Symbol,
		Bids:   truncate(q.Bids, depth),
		Asks:   truncate(q.Asks, depth),
		AsOf:   q.Timestamp,
	}, nil
}

// MarketStatus は取引所の銘柄数と、現在が立会時間内かどうかを返します。
func (u *QuoteUsecase) MarketStatus(ctx context.Context) (*entity.MarketStatus, error) {
	total, err := u.directory.Count(ctx)
	if err != nil {
		return nil, err
	}
	now := u.clock.Now()
	return &entity.MarketStatus{
		Exchange:     u.directory.Exchange(),
		Timestamp:    u.normalizer.Render(now),
		TotalSymbols: total,
		MarketOpen:   u.sessionOpen(now),
	}, nil
}

func (u *QuoteUsecase) resolve(ctx context.Context, symbol string) (instrumententity.Instrument, error) {
	symbol = strings.TrimSpace(symbol)
	inst, err := u.directory.Resolve(ctx, symbol)
	if err != nil {
		if errors.Is(err, instrumentsdomain.ErrInstrumentNotFound) {
			return instrumententity.Instrument{}, fmt.Errorf("%w: %q", domain.ErrNotFound, symbol)
		}
		return instrumententity.Instrument{}, fmt.Errorf("resolve symbol %q: %w", symbol, err)
	}
	return inst, nil
}

func (u *QuoteUsecase) quote(ctx context.Context, inst instrumententity.Instrument) (entity.Quote, error) {
	key := inst.Exchange + ":" + inst.Symbol
	quotes, err := u.source.Quote(ctx, []string{key})
	if err != nil {
		return entity.Quote{}, fmt.Errorf("fetch quote %s: %w", key, err)
	}
	q, ok := quotes[key]
	if !ok {
		return entity.Quote{}, fmt.Errorf("%w: %s", domain.ErrQuoteUnavailable, key)
	}
	return q, nil
}

// sessionOpen は now が平日の立会時間 [09:15, 15:30) IST に含まれるかを返します。
func (u *QuoteUsecase) sessionOpen(now time.Time) bool {
	t := now.In(u.normalizer.Location())
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return m >= sessionOpenMinute && m < sessionCloseMinute
}

func truncate(levels []entity.DepthLevel, n int) []entity.DepthLevel {
	if len(levels) > n {
		levels = levels[:n]
	}
	out := make([]entity.DepthLevel, len(levels))
	copy(out, levels)
	return out
}
