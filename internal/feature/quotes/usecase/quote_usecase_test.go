package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	historicalentity "market_dashboard/internal/feature/historical/domain/entity"
	instrumentsdomain "market_dashboard/internal/feature/instruments/domain"
	instrumententity "market_dashboard/internal/feature/instruments/domain/entity"
	"market_dashboard/internal/feature/quotes/domain"
	"market_dashboard/internal/feature/quotes/domain/entity"
	"market_dashboard/internal/feature/quotes/usecase"
	"market_dashboard/internal/shared/timestamp"
)

// ErrUpstream はモックと期待値の間で共有されるセンチネルエラーです。
var ErrUpstream = errors.New("upstream error")

// mockQuoteSource はQuoteSourceインターフェースのモック実装です。
type mockQuoteSource struct {
	QuoteFunc func(ctx context.Context, keys []string) (map[string]entity.Quote, error)
	Keys      [][]string
}

func (m *mockQuoteSource) Quote(ctx context.Context, keys []string) (map[string]entity.Quote, error) {
	m.Keys = append(m.Keys, keys)
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, keys)
	}
	return nil, errors.New("QuoteFunc is not implemented")
}

// mockDirectory はInstrumentDirectoryインターフェースのモック実装です。
type mockDirectory struct {
	ResolveFunc func(ctx context.Context, symbol string) (instrumententity.Instrument, error)
	CountFunc   func(ctx context.Context) (int64, error)
}

func (m *mockDirectory) Exchange() string { return "NSE" }

func (m *mockDirectory) Resolve(ctx context.Context, symbol string) (instrumententity.Instrument, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, symbol)
	}
	return instrumententity.Instrument{}, errors.New("ResolveFunc is not implemented")
}

func (m *mockDirectory) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, errors.New("CountFunc is not implemented")
}

// mockHistory はRecentHistoryインターフェースのモック実装です。
type mockHistory struct {
	RecentDailyFunc func(ctx context.Context, token int64, days int) ([]historicalentity.RenderedBar, bool)
}

func (m *mockHistory) RecentDaily(ctx context.Context, token int64, days int) ([]historicalentity.RenderedBar, bool) {
	return m.RecentDailyFunc(ctx, token, days)
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

var tcs = instrumententity.Instrument{Token: 2953217, Symbol: "TCS", Name: "TATA CONSULTANCY SERV LT", Exchange: "NSE", InstrumentType: "EQ", Segment: "NSE", TickSize: 0.05, LotSize: 1}

func tcsDirectory() *mockDirectory {
	return &mockDirectory{
		ResolveFunc: func(ctx context.Context, symbol string) (instrumententity.Instrument, error) {
			if symbol == "TCS" {
				return tcs, nil
			}
			return instrumententity.Instrument{}, instrumentsdomain.ErrInstrumentNotFound
		},
	}
}

func levels(n int) []entity.DepthLevel {
	out := make([]entity.DepthLevel, n)
	for i := range out {
		out[i] = entity.DepthLevel{Price: 3400 + float64(i), Quantity: int64(10 * (i + 1)), Orders: int64(i + 1)}
	}
	return out
}

var tcsQuote = entity.Quote{
	InstrumentToken: 2953217,
	Timestamp:       "2023-06-15 15:29:59",
	LastPrice:       3410,
	Volume:          123456,
	OHLC:            entity.OHLC{Open: 3390, High: 3420, Low: 3385, Close: 3400},
	Bids:            levels(5),
	Asks:            levels(5),
}

func quoteSource() *mockQuoteSource {
	return &mockQuoteSource{
		QuoteFunc: func(ctx context.Context, keys []string) (map[string]entity.Quote, error) {
			return map[string]entity.Quote{"NSE:TCS": tcsQuote}, nil
		},
	}
}

// at は IST の指定時刻を返す Clock です。
func at(y int, m time.Month, d, hh, mm int) usecase.Clock {
	return clockFunc(func() time.Time { return time.Date(y, m, d, hh, mm, 0, 0, timestamp.IST) })
}

func okHistory() *mockHistory {
	return &mockHistory{
		RecentDailyFunc: func(ctx context.Context, token int64, days int) ([]historicalentity.RenderedBar, bool) {
			return []historicalentity.RenderedBar{{Date: "Thursday, 15 Jun 2023 00:00:00 IST", Close: 3410}}, false
		},
	}
}

func TestQuote_Change(t *testing.T) {
	t.Parallel()

	change, pct, ok := tcsQuote.Change()
	require.True(t, ok)
	assert.InDelta(t, 10, change, 1e-9)
	assert.InDelta(t, 10.0/3400*100, pct, 1e-9)

	_, _, ok = entity.Quote{LastPrice: 1}.Change()
	assert.False(t, ok, "zero close has no change")
}

func TestQuoteUsecase_StockDetail(t *testing.T) {
	t.Parallel()

	var gotToken int64
	var gotDays int
	history := &mockHistory{
		RecentDailyFunc: func(ctx context.Context, token int64, days int) ([]historicalentity.RenderedBar, bool) {
			gotToken, gotDays = token, days
			return okHistory().RecentDailyFunc(ctx, token, days)
		},
	}
	src := quoteSource()
	uc := usecase.NewQuoteUsecase(src, tcsDirectory(), history, timestamp.Default, at(2023, 6, 15, 12, 0))

	detail, err := uc.StockDetail(context.Background(), " TCS ")
	require.NoError(t, err)

	assert.Equal(t, tcs, detail.Instrument)
	require.NotNil(t, detail.Quote)
	assert.Equal(t, 3410.0, detail.Quote.LastPrice)
	assert.Equal(t, [][]string{{"NSE:TCS"}}, src.Keys)
	assert.Len(t, detail.History, 1)
	assert.Equal(t, int64(2953217), gotToken)
	assert.Equal(t, usecase.HistoryDays, gotDays)
	assert.Equal(t, "Thursday, 15 Jun 2023 12:00:00 IST", detail.LastUpdated)
	assert.Empty(t, detail.Notes)
}

func TestQuoteUsecase_StockDetail_PartialFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		source        *mockQuoteSource
		history       *mockHistory
		expectQuote   bool
		expectedNotes []string
	}{
		{
			name: "quote fetch fails",
			source: &mockQuoteSource{QuoteFunc: func(ctx context.Context, keys []string) (map[string]entity.Quote, error) {
				return nil, ErrUpstream
			}},
			history:       okHistory(),
			expectedNotes: []string{usecase.NoteQuoteUnavailable},
		},
		{
			name: "quote missing from response",
			source: &mockQuoteSource{QuoteFunc: func(ctx context.Context, keys []string) (map[string]entity.Quote, error) {
				return map[string]entity.Quote{}, nil
			}},
			history:       okHistory(),
			expectedNotes: []string{usecase.NoteQuoteUnavailable},
		},
		{
			name:   "history fails",
			source: quoteSource(),
			history: &mockHistory{RecentDailyFunc: func(ctx context.Context, token int64, days int) ([]historicalentity.RenderedBar, bool) {
				return []historicalentity.RenderedBar{}, true
			}},
			expectQuote:   true,
			expectedNotes: []string{usecase.NoteHistoryUnavailable},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := usecase.NewQuoteUsecase(tt.source, tcsDirectory(), tt.history, timestamp.Default, at(2023, 6, 15, 12, 0))

			detail, err := uc.StockDetail(context.Background(), "TCS")
			require.NoError(t, err)
			assert.Equal(t, tt.expectQuote, detail.Quote != nil)
			assert.Equal(t, tt.expectedNotes, detail.Notes)
		})
	}
}

func TestQuoteUsecase_StockDetail_Errors(t *testing.T) {
	t.Parallel()

	uc := usecase.NewQuoteUsecase(quoteSource(), tcsDirectory(), okHistory(), timestamp.Default, at(2023, 6, 15, 12, 0))
	_, err := uc.StockDetail(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	dbErr := errors.New("connection refused")
	dir := &mockDirectory{ResolveFunc: func(ctx context.Context, symbol string) (instrumententity.Instrument, error) {
		return instrumententity.Instrument{}, dbErr
	}}
	uc = usecase.NewQuoteUsecase(quoteSource(), dir, okHistory(), timestamp.Default, at(2023, 6, 15, 12, 0))
	_, err = uc.StockDetail(context.Background(), "TCS")
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestQuoteUsecase_OrderBook(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		depth        int
		expectedLen  int
		expectedKind error
	}{
		{name: "default depth", depth: 0, expectedLen: 5},
		{name: "truncated", depth: 2, expectedLen: 2},
		{name: "deeper than the book", depth: 10, expectedLen: 5},
		{name: "negative depth", depth: -1, expectedKind: domain.ErrInvalidInput},
		{name: "above max", depth: usecase.MaxDepth + 1, expectedKind: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := quoteSource()
			uc := usecase.NewQuoteUsecase(src, tcsDirectory(), okHistory(), timestamp.Default, at(2023, 6, 15, 12, 0))

			book, err := uc.OrderBook(context.Background(), "TCS", tt.depth)
			if tt.expectedKind != nil {
				assert.ErrorIs(t, err, tt.expectedKind)
				assert.Empty(t, src.Keys, "no upstream call on invalid depth")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "TCS", book.Symbol)
			assert.Equal(t, "2023-06-15 15:29:59", book.AsOf)
			require.Len(t, book.Bids, tt.expectedLen)
			require.Len(t, book.Asks, tt.expectedLen)
			assert.Equal(t, tcsQuote.Bids[0], book.Bids[0])
		})
	}
}

func TestQuoteUsecase_OrderBook_Errors(t *testing.T) {
	t.Parallel()

	uc := usecase.NewQuoteUsecase(quoteSource(), tcsDirectory(), okHistory(), timestamp.Default, at(2023, 6, 15, 12, 0))
	_, err := uc.OrderBook(context.Background(), "NOPE", 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	src := &mockQuoteSource{QuoteFunc: func(ctx context.Context, keys []string) (map[string]entity.Quote, error) {
		return nil, ErrUpstream
	}}
	uc = usecase.NewQuoteUsecase(src, tcsDirectory(), okHistory(), timestamp.Default, at(2023, 6, 15, 12, 0))
	_, err = uc.OrderBook(context.Background(), "TCS", 5)
	assert.ErrorIs(t, err, ErrUpstream)

	src = &mockQuoteSource{QuoteFunc: func(ctx context.Context, keys []string) (map[string]entity.Quote, error) {
		return map[string]entity.Quote{}, nil
	}}
	uc = usecase.NewQuoteUsecase(src, tcsDirectory(), okHistory(), timestamp.Default, at(2023, 6, 15, 12, 0))
	_, err = uc.OrderBook(context.Background(), "TCS", 5)
	assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestQuoteUsecase_MarketStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		clock    usecase.Clock
		expected bool
	}{
		{name: "before the open", clock: at(2023, 6, 15, 9, 14), expected: false},
		{name: "at the open", clock: at(2023, 6, 15, 9, 15), expected: true},
		{name: "last minute", clock: at(2023, 6, 15, 15, 29), expected: true},
		{name: "at the close", clock: at(2023, 6, 15, 15, 30), expected: false},
		{name: "saturday", clock: at(2023, 6, 17, 11, 0), expected: false},
		{name: "utc clock inside the session", clock: clockFunc(func() time.Time {
			return time.Date(2023, 6, 15, 4, 0, 0, 0, time.UTC) // 09:30 IST
		}), expected: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := &mockDirectory{CountFunc: func(ctx context.Context) (int64, error) { return 2500, nil }}
			uc := usecase.NewQuoteUsecase(quoteSource(), dir, okHistory(), timestamp.Default, tt.clock)

			status, err := uc.MarketStatus(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "NSE", status.Exchange)
			assert.Equal(t, int64(2500), status.TotalSymbols)
			assert.Equal(t, tt.expected, status.MarketOpen)
			assert.NotEmpty(t, status.Timestamp)
		})
	}

	t.Run("count failure", func(t *testing.T) {
		t.Parallel()

		dbErr := errors.New("db down")
		dir := &mockDirectory{CountFunc: func(ctx context.Context) (int64, error) { return 0, dbErr }}
		uc := usecase.NewQuoteUsecase(quoteSource(), dir, okHistory(), timestamp.Default, at(2023, 6, 15, 12, 0))

		_, err := uc.MarketStatus(context.Background())
		assert.ErrorIs(t, err, dbErr)
	})
}
