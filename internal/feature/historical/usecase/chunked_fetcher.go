// Package usecase は過去データ照会（分割取得・月次集約・検証）のビジネスロジックを実装します。
package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"market_dashboard/internal/feature/historical/domain/entity"
	"market_dashboard/internal/shared/timestamp"
)

const (
	// DefaultChunkDays はアップストリーム1回あたりの取得期間（日数）の上限です。
	DefaultChunkDays = 100
	// DefaultChunkTimeout はアップストリーム1回あたりのタイムアウトです。
	DefaultChunkTimeout = 30 * time.Second
)

// CandleSource はアップストリームからローソク足を取得するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleSource interface {
	GetCandles(ctx context.Context, token int64, from, to civil.Date, interval entity.Interval) ([]entity.Bar, error)
}

// Clock は現在時刻を返します。
type Clock interface {
	Now() time.Time
}

// ClockFunc は関数を Clock として使うためのアダプタです。
type ClockFunc func() time.Time

// Now は f() を返します。
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock は time.Now を使う Clock です。
var SystemClock Clock = ClockFunc(time.Now)

// FetcherConfig は ChunkedFetcher の設定です。ゼロ値の項目にはデフォルト値が使われます。
type FetcherConfig struct {
	ChunkDays int
	Timeout   time.Duration
}

// FetchResult は分割取得の結果です。
type FetchResult struct {
	Series entity.DailySeries
	Calls  int // アップストリーム呼び出し回数
	Failed int // 失敗して空として扱った区間の数
}

// ChunkedFetcher は長い期間を複数の区間に分けて日足を取得し、重複を除いて1本の系列にまとめます。
type ChunkedFetcher struct {
	source     CandleSource
	normalizer *timestamp.Normalizer
	clock      Clock
	chunkDays  int
	timeout    time.Duration
}

// NewChunkedFetcher は ChunkedFetcher を生成します。
func NewChunkedFetcher(source CandleSource, normalizer *timestamp.Normalizer, clock Clock, cfg FetcherConfig) *ChunkedFetcher {
	if cfg.ChunkDays <= 0 {
		cfg.ChunkDays = DefaultChunkDays
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultChunkTimeout
	}
	if normalizer == nil {
		normalizer = timestamp.Default
	}
	if clock == nil {
		clock = SystemClock
	}
	return &ChunkedFetcher{
		source:     source,
		normalizer: normalizer,
		clock:      clock,
		chunkDays:  cfg.ChunkDays,
		timeout:    cfg.Timeout,
	}
}

// SplitWindows は r を最大 spanDays 日の区間に分割します。
// 隣り合う区間は境界日を共有します（[s, s+span], [s+span, s+2*span], ...）。
func SplitWindows(r entity.DateRange, spanDays int) []entity.DateRange {
	if r.Empty() || spanDays <= 0 {
		return nil
	}
	if r.Span() <= spanDays {
		return []entity.DateRange{r}
	}
	var out []entity.DateRange
	cur := r.Start
	for {
		end := cur.AddDays(spanDays)
		if end.After(r.End) {
			end = r.End
		}
		out = append(out, entity.DateRange{Start: cur, End: end})
		if !end.Before(r.End) {
			return out
		}
		cur = end
	}
}

// FetchDaily は [start, end] の日足を区間ごとに順番に取得し、暦日で重複を除いて昇順に返します。
//
// アップストリームのエラーは返しません。失敗した区間はログに記録して空として扱い、
// 残りの区間の処理を続けます。end は今日に切り詰められ、結果が空の期間なら空の系列を返します。
func (f *ChunkedFetcher) FetchDaily(ctx context.Context, token int64, r entity.DateRange) FetchResult {
	today := f.normalizer.Today(f.clock.Now())
	if r.End.After(today) {
		r.End = today
	}

	var res FetchResult
	windows := SplitWindows(r, f.chunkDays)
	if len(windows) == 0 {
		res.Series = entity.DailySeries{}
		return res
	}

	merged := make(map[civil.Date]entity.Bar)
	for _, w := range windows {
		res.Calls++
		bars, err := f.fetchWindow(ctx, token, w)
		if err != nil {
			// 1区間の失敗で全体を止めずにログに出力し、次の区間へ
			slog.Warn("failed to fetch candle window",
				"token", token, "from", w.Start.String(), "to", w.End.String(), "error", err)
			res.Failed++
			continue
		}
		for _, b := range bars {
			day, ok := f.tradingDay(b)
			if !ok {
				continue
			}
			b.TradingDay = day
			// 境界日は隣接区間で同じ値のはずなので後勝ちで上書き
			merged[day] = b
		}
	}

	res.Series = sortedSeries(merged)
	return res
}

func (f *ChunkedFetcher) fetchWindow(ctx context.Context, token int64, w entity.DateRange) ([]entity.Bar, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.source.GetCandles(ctx, token, w.Start, w.End, entity.IntervalDay)
}

// tradingDay はバーの暦日を導出します。導出できないバーはキーにできないため捨てます。
func (f *ChunkedFetcher) tradingDay(b entity.Bar) (civil.Date, bool) {
	if b.RawTimestamp == "" && b.TradingDay.IsValid() {
		return b.TradingDay, true
	}
	day, err := f.normalizer.ToCalendarDate(b.RawTimestamp)
	if err != nil {
		slog.Warn("dropping bar with unparseable timestamp", "raw", b.RawTimestamp, "error", err)
		return civil.Date{}, false
	}
	return day, true
}

func sortedSeries(m map[civil.Date]entity.Bar) entity.DailySeries {
	days := make([]civil.Date, 0, len(m))
	for d := range m {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make(entity.DailySeries, 0, len(days))
	for _, d := range days {
		out = append(out, m[d])
	}
	return out
}
