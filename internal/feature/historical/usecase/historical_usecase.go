package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"market_dashboard/internal/feature/historical/domain"
	"market_dashboard/internal/feature/historical/domain/entity"
	instrumentsdomain "market_dashboard/internal/feature/instruments/domain"
	instrumententity "market_dashboard/internal/feature/instruments/domain/entity"
	"market_dashboard/internal/shared/timestamp"
)

// 空の結果や部分的な失敗のときに付与する案内文です。
const (
	NoteEmptyResult    = "No data found for the requested range."
	NoteTryRecent      = "Try a more recent date range; the data provider may not retain very old candles."
	NoteTradingDays    = "Make sure the range includes trading days (weekends and exchange holidays have no candles)."
	NotePartialFailure = "Some date windows could not be fetched from the data provider; the result may be incomplete."
)

// DisplayTimezone はレスポンスに含めるタイムゾーンの表記です。
const DisplayTimezone = "Asia/Kolkata (IST)"

// MaxIndicatorWindow は指標の window の上限です。
// 上限を超える window は取得区間が膨らむため INVALID_INPUT として拒否します。
const MaxIndicatorWindow = 200

// InstrumentDirectory は銘柄シンボルを取引所の銘柄情報へ解決します。
// 見つからない場合は instrumentsdomain.ErrInstrumentNotFound を返します。
type InstrumentDirectory interface {
	Resolve(ctx context.Context, symbol string) (instrumententity.Instrument, error)
}

// historicalUsecase は入力の検証、銘柄解決、取得方法の振り分け、表示用の整形を行います。
type historicalUsecase struct {
	source     CandleSource
	directory  InstrumentDirectory
	fetcher    *ChunkedFetcher
	normalizer *timestamp.Normalizer
	clock      Clock
	timeout    time.Duration
}

// NewHistoricalUsecase は historicalUsecase の新しいインスタンスを生成します。
func NewHistoricalUsecase(
	source CandleSource,
	directory InstrumentDirectory,
	normalizer *timestamp.Normalizer,
	clock Clock,
	cfg FetcherConfig,
) *historicalUsecase {
	fetcher := NewChunkedFetcher(source, normalizer, clock, cfg)
	return &historicalUsecase{
		source:     source,
		directory:  directory,
		fetcher:    fetcher,
		normalizer: fetcher.normalizer,
		clock:      fetcher.clock,
		timeout:    fetcher.timeout,
	}
}

// ParseFrequency は利用者が指定した粒度を正規化します（大文字小文字を区別しません）。
// daily/weekly/monthly はそれぞれ day/week/month として扱います。
func ParseFrequency(s string) (entity.Frequency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return entity.FrequencyDay, true
	case "week", "weekly":
		return entity.FrequencyWeek, true
	case "month", "monthly":
		return entity.FrequencyMonth, true
	}
	return "", false
}

// GetHistorical は symbol の [startStr, endStr] の過去データを frequency の粒度で返します。
//
// 検証は次の順で行い、最初の失敗を *domain.QueryError として返します。
// 日付の形式 → 粒度 → start <= end → end <= 今日（IST）→ 銘柄の解決。
// アップストリームの失敗はエラーにせず、空または不完全な結果と案内文で表します。
func (hu *historicalUsecase) GetHistorical(ctx context.Context, symbol, startStr, endStr, frequency string) (*entity.HistoricalResult, error) {
	r, freq, err := hu.validate(startStr, endStr, frequency)
	if err != nil {
		return nil, err
	}

	inst, err := hu.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var (
		series entity.DailySeries
		notes  []string
	)
	switch freq {
	case entity.FrequencyMonth:
		res := hu.fetcher.FetchDaily(ctx, inst.Token, r)
		series = LastTradingDayPerMonth(res.Series, r)
		if res.Failed > 0 {
			notes = append(notes, NotePartialFailure)
		}
	default:
		var failed bool
		series, failed = hu.fetchDirect(ctx, inst.Token, r, freq.Interval())
		if failed {
			notes = append(notes, NotePartialFailure)
		}
	}

	bars := hu.render(series)
	if len(bars) == 0 {
		notes = append(notes, NoteEmptyResult, NoteTryRecent, NoteTradingDays)
	}

	return &entity.HistoricalResult{
		Symbol:      inst.Symbol,
		Name:        inst.Name,
		Exchange:    inst.Exchange,
		Token:       inst.Token,
		Range:       r,
		Frequency:   freq,
		Interval:    freq.Interval(),
		Bars:        bars,
		LastUpdated: hu.normalizer.Render(hu.clock.Now()),
		Timezone:    DisplayTimezone,
		Notes:       notes,
	}, nil
}

func (hu *historicalUsecase) validate(startStr, endStr, frequency string) (entity.DateRange, entity.Frequency, error) {
	startStr, endStr = strings.TrimSpace(startStr), strings.TrimSpace(endStr)
	if startStr == "" || endStr == "" {
		return entity.DateRange{}, "", domain.InvalidInput("from_date and to_date are required (YYYY-MM-DD)")
	}
	start, err := civil.ParseDate(startStr)
	if err != nil {
		return entity.DateRange{}, "", domain.InvalidInput(fmt.Sprintf("invalid from_date %q, expected YYYY-MM-DD", startStr))
	}
	end, err := civil.ParseDate(endStr)
	if err != nil {
		return entity.DateRange{}, "", domain.InvalidInput(fmt.Sprintf("invalid to_date %q, expected YYYY-MM-DD", endStr))
	}

	freq, ok := ParseFrequency(frequency)
	if !ok {
		return entity.DateRange{}, "", domain.InvalidInput(fmt.Sprintf("invalid frequency %q, expected day, week or month", frequency))
	}

	if start.After(end) {
		return entity.DateRange{}, "", domain.InvalidRange("from_date must be on or before to_date")
	}
	if today := hu.normalizer.Today(hu.clock.Now()); end.After(today) {
		return entity.DateRange{}, "", domain.InvalidRange(fmt.Sprintf("to_date %s is in the future (today is %s)", end, today))
	}

	return entity.DateRange{Start: start, End: end}, freq, nil
}

func (hu *historicalUsecase) resolve(ctx context.Context, symbol string) (instrumententity.Instrument, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return instrumententity.Instrument{}, domain.NotFound("symbol is required")
	}
	inst, err := hu.directory.Resolve(ctx, symbol)
	if err != nil {
		if errors.Is(err, instrumentsdomain.ErrInstrumentNotFound) {
			return instrumententity.Instrument{}, domain.NotFound(fmt.Sprintf("symbol %q not found", symbol))
		}
		return instrumententity.Instrument{}, fmt.Errorf("resolve symbol %q: %w", symbol, err)
	}
	return inst, nil
}

// fetchDirect は分割せずに1回だけアップストリームを呼び出し、要求期間内のバーを返します。
// 暦日を導出できないバーは除外せずにそのまま残します。
func (hu *historicalUsecase) fetchDirect(ctx context.Context, token int64, r entity.DateRange, interval entity.Interval) (entity.DailySeries, bool) {
	ctx, cancel := context.WithTimeout(ctx, hu.timeout)
	defer cancel()

	bars, err := hu.source.GetCandles(ctx, token, r.Start, r.End, interval)
	if err != nil {
		slog.Warn("failed to fetch candles",
			"token", token, "interval", string(interval), "from", r.Start.String(), "to", r.End.String(), "error", err)
		return entity.DailySeries{}, true
	}

	out := make(entity.DailySeries, 0, len(bars))
	for _, b := range bars {
		day, err := hu.normalizer.ToCalendarDate(b.RawTimestamp)
		if err != nil {
			slog.Warn("unparseable candle timestamp, passing through", "raw", b.RawTimestamp, "error", err)
			out = append(out, b)
			continue
		}
		if !r.Contains(day) {
			continue
		}
		b.TradingDay = day
		out = append(out, b)
	}
	return out, false
}

// RecentDaily は今日（IST）までの直近 days 日の日足を1回の呼び出しで取得し、表示用に整形して返します。
// アップストリームが失敗した場合は空の系列と true を返します。
func (hu *historicalUsecase) RecentDaily(ctx context.Context, token int64, days int) ([]entity.RenderedBar, bool) {
	today := hu.normalizer.Today(hu.clock.Now())
	r := entity.DateRange{Start: today.AddDays(-days), End: today}
	series, failed := hu.fetchDirect(ctx, token, r, entity.IntervalDay)
	return hu.render(series), failed
}

func (hu *historicalUsecase) render(series entity.DailySeries) []entity.RenderedBar {
	bars := make([]entity.RenderedBar, 0, len(series))
	for _, b := range series {
		bars = append(bars, entity.RenderedBar{
			Date:   hu.displayDate(b),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	return bars
}

// displayDate は表示用の日時文字列を返します。パースできない場合は生の値をそのまま使います。
func (hu *historicalUsecase) displayDate(b entity.Bar) string {
	if b.RawTimestamp == "" {
		if !b.TradingDay.IsValid() {
			return b.RawTimestamp
		}
		return hu.normalizer.Render(b.TradingDay.In(hu.normalizer.Location()))
	}
	s, err := hu.normalizer.RenderRaw(b.RawTimestamp)
	if err != nil {
		slog.Debug("rendering raw timestamp", "raw", b.RawTimestamp, "error", err)
	}
	return s
}

// ComputeIndicator は直近の日足から indicator の系列を計算し、最新値と末尾を返します。
// 未知の indicator は空の系列と nil の値になります。
// window が 1..MaxIndicatorWindow の範囲外の場合は INVALID_INPUT です。
func (hu *historicalUsecase) ComputeIndicator(ctx context.Context, symbol, indicator string, window int, priceType string) (*entity.IndicatorResult, error) {
	if window <= 0 {
		return nil, domain.InvalidInput("window must be a positive integer")
	}
	if window > MaxIndicatorWindow {
		return nil, domain.InvalidInput(fmt.Sprintf("window must be at most %d", MaxIndicatorWindow))
	}
	if priceType == "" {
		priceType = PriceClose
	}

	inst, err := hu.resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	points := lookbackPoints(window)
	today := hu.normalizer.Today(hu.clock.Now())
	r := entity.DateRange{Start: today.AddDays(-lookbackDays(points)), End: today}

	res := hu.fetcher.FetchDaily(ctx, inst.Token, r)
	series := res.Series
	if len(series) > points {
		series = series[len(series)-points:]
	}

	values := ComputeSeries(indicator, PriceField(series, priceType), window)
	out := &entity.IndicatorResult{
		Symbol:     inst.Symbol,
		Indicator:  strings.ToLower(indicator),
		Window:     window,
		PriceType:  strings.ToLower(priceType),
		SeriesTail: tail(values, SeriesTailSize),
	}
	if len(values) > 0 {
		v := values[len(values)-1]
		out.Value = &v
	}
	return out, nil
}

// lookbackPoints は指標の計算に使う日足の本数です。
func lookbackPoints(window int) int {
	return max(window*3, window+50)
}

// lookbackDays は取引日 points 本を含む暦日数の見積もりです（週5営業日と祝日分の余裕）。
func lookbackDays(points int) int {
	return points*7/5 + 14
}
