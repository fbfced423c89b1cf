package usecase_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_dashboard/internal/feature/instruments/domain"
	"market_dashboard/internal/feature/instruments/domain/entity"
	"market_dashboard/internal/feature/instruments/usecase"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

// mockInstrumentRepository はInstrumentRepositoryインターフェースのモック実装です。
type mockInstrumentRepository struct {
	UpsertBatchFunc   func(ctx context.Context, instruments []entity.Instrument) error
	FindBySymbolFunc  func(ctx context.Context, exchange, symbol string) (entity.Instrument, error)
	SearchFunc        func(ctx context.Context, exchange, query string, limit int) ([]entity.Instrument, error)
	ListFunc          func(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error)
	ListBySymbolsFunc func(ctx context.Context, exchange string, symbols []string) ([]entity.Instrument, error)
}

func (m *mockInstrumentRepository) UpsertBatch(ctx context.Context, instruments []entity.Instrument) error {
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, instruments)
	}
	return errors.New("UpsertBatchFunc is not implemented")
}

func (m *mockInstrumentRepository) FindBySymbol(ctx context.Context, exchange, symbol string) (entity.Instrument, error) {
	if m.FindBySymbolFunc != nil {
		return m.FindBySymbolFunc(ctx, exchange, symbol)
	}
	return entity.Instrument{}, errors.New("FindBySymbolFunc is not implemented")
}

func (m *mockInstrumentRepository) Search(ctx context.Context, exchange, query string, limit int) ([]entity.Instrument, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, exchange, query, limit)
	}
	return nil, errors.New("SearchFunc is not implemented")
}

func (m *mockInstrumentRepository) List(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, exchange, search, offset, limit)
	}
	return nil, 0, errors.New("ListFunc is not implemented")
}

func (m *mockInstrumentRepository) ListBySymbols(ctx context.Context, exchange string, symbols []string) ([]entity.Instrument, error) {
	if m.ListBySymbolsFunc != nil {
		return m.ListBySymbolsFunc(ctx, exchange, symbols)
	}
	return nil, errors.New("ListBySymbolsFunc is not implemented")
}

// mockInstrumentSource はInstrumentSourceインターフェースのモック実装です。
type mockInstrumentSource struct {
	InstrumentsFunc func(ctx context.Context, exchange string) ([]entity.Instrument, error)
}

func (m *mockInstrumentSource) Instruments(ctx context.Context, exchange string) ([]entity.Instrument, error) {
	return m.InstrumentsFunc(ctx, exchange)
}

func TestInstrumentUsecase_Resolve(t *testing.T) {
	t.Parallel()

	tcs := entity.Instrument{Token: 2953217, Symbol: "TCS", Exchange: "NSE"}

	tests := []struct {
		name          string
		symbol        string
		mockFind      func(ctx context.Context, exchange, symbol string) (entity.Instrument, error)
		expected      entity.Instrument
		expectedErr   error
		expectedCalls int
	}{
		{
			name:   "success: symbol is upper-cased and trimmed",
			symbol: "  tcs ",
			mockFind: func(ctx context.Context, exchange, symbol string) (entity.Instrument, error) {
				assert.Equal(t, "NSE", exchange)
				assert.Equal(t, "TCS", symbol)
				return tcs, nil
			},
			expected:      tcs,
			expectedCalls: 1,
		},
		{
			name:   "error: not found is passed through",
			symbol: "NOPE",
			mockFind: func(ctx context.Context, exchange, symbol string) (entity.Instrument, error) {
				return entity.Instrument{}, domain.ErrInstrumentNotFound
			},
			expectedErr:   domain.ErrInstrumentNotFound,
			expectedCalls: 1,
		},
		{
			name:          "error: blank symbol does not hit the repository",
			symbol:        "   ",
			expectedErr:   domain.ErrInstrumentNotFound,
			expectedCalls: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			repo := &mockInstrumentRepository{
				FindBySymbolFunc: func(ctx context.Context, exchange, symbol string) (entity.Instrument, error) {
					calls++
					return tt.mockFind(ctx, exchange, symbol)
				},
				ListFunc: func(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error) {
					return nil, 1, nil
				},
			}
			uc := usecase.NewInstrumentUsecase(repo, nil, "nse", nil)

			got, err := uc.Resolve(context.Background(), tt.symbol)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
			assert.Equal(t, tt.expectedCalls, calls)
		})
	}
}

// memoryDirectory は UpsertBatch された銘柄だけを返すインメモリのリポジトリです。
func memoryDirectory() (*mockInstrumentRepository, *int) {
	var mu sync.Mutex
	stored := map[string]entity.Instrument{}
	listCalls := 0
	repo := &mockInstrumentRepository{
		UpsertBatchFunc: func(ctx context.Context, instruments []entity.Instrument) error {
			mu.Lock()
			defer mu.Unlock()
			for _, inst := range instruments {
				stored[inst.Symbol] = inst
			}
			return nil
		},
		FindBySymbolFunc: func(ctx context.Context, exchange, symbol string) (entity.Instrument, error) {
			mu.Lock()
			defer mu.Unlock()
			if inst, ok := stored[symbol]; ok {
				return inst, nil
			}
			return entity.Instrument{}, domain.ErrInstrumentNotFound
		},
		ListFunc: func(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error) {
			mu.Lock()
			defer mu.Unlock()
			listCalls++
			return nil, int64(len(stored)), nil
		},
	}
	return repo, &listCalls
}

// TestInstrumentUsecase_Resolve_EmptyDirectorySyncsOnce は銘柄マスタが空のとき
// 最初の解決で一度だけ同期し、その後は同期しないことを検証します。
func TestInstrumentUsecase_Resolve_EmptyDirectorySyncsOnce(t *testing.T) {
	t.Parallel()

	tcs := entity.Instrument{Token: 2953217, Symbol: "TCS", Exchange: "NSE"}
	repo, listCalls := memoryDirectory()
	syncs := 0
	src := &mockInstrumentSource{InstrumentsFunc: func(ctx context.Context, exchange string) ([]entity.Instrument, error) {
		syncs++
		return []entity.Instrument{tcs}, nil
	}}
	uc := usecase.NewInstrumentUsecase(repo, src, "NSE", nil)

	got, err := uc.Resolve(context.Background(), "tcs")
	require.NoError(t, err)
	assert.Equal(t, tcs, got)
	assert.Equal(t, 1, syncs)

	// 同期後の未知のシンボルは再同期せずに NOT_FOUND
	_, err = uc.Resolve(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrInstrumentNotFound)
	assert.Equal(t, 1, syncs)
	assert.Equal(t, 1, *listCalls)
}

func TestInstrumentUsecase_Resolve_EmptyDirectorySyncFailure(t *testing.T) {
	t.Parallel()

	repo, _ := memoryDirectory()
	syncs := 0
	src := &mockInstrumentSource{InstrumentsFunc: func(ctx context.Context, exchange string) ([]entity.Instrument, error) {
		syncs++
		if syncs == 1 {
			return nil, errors.New("kite: 503")
		}
		return []entity.Instrument{{Token: 1, Symbol: "TCS"}}, nil
	}}
	uc := usecase.NewInstrumentUsecase(repo, src, "NSE", nil)

	_, err := uc.Resolve(context.Background(), "TCS")
	assert.ErrorIs(t, err, domain.ErrInstrumentNotFound)

	// 失敗した同期は次の解決で再試行する
	got, err := uc.Resolve(context.Background(), "TCS")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Token)
	assert.Equal(t, 2, syncs)
}

func TestInstrumentUsecase_Resolve_PopulatedDirectoryDoesNotSync(t *testing.T) {
	t.Parallel()

	repo, _ := memoryDirectory()
	require.NoError(t, repo.UpsertBatch(context.Background(), []entity.Instrument{{Token: 1, Symbol: "INFY"}}))
	src := &mockInstrumentSource{InstrumentsFunc: func(ctx context.Context, exchange string) ([]entity.Instrument, error) {
		t.Fatal("populated directory must not sync")
		return nil, nil
	}}
	uc := usecase.NewInstrumentUsecase(repo, src, "NSE", nil)

	_, err := uc.Resolve(context.Background(), "TCS")
	assert.ErrorIs(t, err, domain.ErrInstrumentNotFound)
}

func TestInstrumentUsecase_ListStocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		page, limit    int
		total          int64
		expectedOffset int
		expectedLimit  int
		expectedPage   int
		hasNext        bool
		hasPrev        bool
	}{
		{name: "first page", page: 1, limit: 50, total: 120, expectedOffset: 0, expectedLimit: 50, expectedPage: 1, hasNext: true, hasPrev: false},
		{name: "last partial page", page: 3, limit: 50, total: 120, expectedOffset: 100, expectedLimit: 50, expectedPage: 3, hasNext: false, hasPrev: true},
		{name: "exact end", page: 2, limit: 60, total: 120, expectedOffset: 60, expectedLimit: 60, expectedPage: 2, hasNext: false, hasPrev: true},
		{name: "defaults for invalid page and limit", page: 0, limit: -1, total: 10, expectedOffset: 0, expectedLimit: usecase.DefaultPageLimit, expectedPage: 1},
		{name: "limit above max falls back", page: 1, limit: usecase.MaxPageLimit + 1, total: 10, expectedOffset: 0, expectedLimit: usecase.DefaultPageLimit, expectedPage: 1},
		{name: "huge page is clamped before computing the offset", page: math.MaxInt, limit: 50, total: 10, expectedOffset: (math.MaxInt32/50 - 1) * 50, expectedLimit: 50, expectedPage: math.MaxInt32 / 50, hasNext: false, hasPrev: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockInstrumentRepository{
				ListFunc: func(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error) {
					assert.Equal(t, "tata", search)
					assert.Equal(t, tt.expectedOffset, offset)
					assert.Equal(t, tt.expectedLimit, limit)
					return []entity.Instrument{{Symbol: "TATAMOTORS"}}, tt.total, nil
				},
			}
			uc := usecase.NewInstrumentUsecase(repo, nil, "NSE", nil)

			page, err := uc.ListStocks(context.Background(), tt.page, tt.limit, " tata ")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPage, page.Page)
			assert.Equal(t, tt.expectedLimit, page.Limit)
			assert.Equal(t, tt.total, page.Total)
			assert.Equal(t, tt.hasNext, page.HasNext)
			assert.Equal(t, tt.hasPrev, page.HasPrev)
			assert.Len(t, page.Items, 1)
		})
	}

	t.Run("error: repository failure is wrapped", func(t *testing.T) {
		t.Parallel()

		repo := &mockInstrumentRepository{
			ListFunc: func(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error) {
				return nil, 0, ErrDB
			},
		}
		uc := usecase.NewInstrumentUsecase(repo, nil, "NSE", nil)

		_, err := uc.ListStocks(context.Background(), 1, 10, "")
		assert.ErrorIs(t, err, ErrDB)
	})
}

func TestInstrumentUsecase_Search(t *testing.T) {
	t.Parallel()

	repo := &mockInstrumentRepository{
		SearchFunc: func(ctx context.Context, exchange, query string, limit int) ([]entity.Instrument, error) {
			assert.Equal(t, "NSE", exchange)
			assert.Equal(t, "infy", query)
			assert.Equal(t, usecase.MaxSearchResults, limit)
			return []entity.Instrument{{Symbol: "INFY"}}, nil
		},
	}
	uc := usecase.NewInstrumentUsecase(repo, nil, "NSE", nil)

	got, err := uc.Search(context.Background(), " infy ")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = uc.Search(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

// TestInstrumentUsecase_Popular は設定順に並び、マスタに無いシンボルが除かれることを検証します。
func TestInstrumentUsecase_Popular(t *testing.T) {
	t.Parallel()

	repo := &mockInstrumentRepository{
		ListBySymbolsFunc: func(ctx context.Context, exchange string, symbols []string) ([]entity.Instrument, error) {
			assert.Equal(t, []string{"RELIANCE", "TCS", "HDFC"}, symbols)
			return []entity.Instrument{{Symbol: "TCS", Token: 2}, {Symbol: "RELIANCE", Token: 1}}, nil
		},
	}
	uc := usecase.NewInstrumentUsecase(repo, nil, "NSE", []string{"RELIANCE", "TCS", "HDFC"})

	got, err := uc.Popular(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "RELIANCE", got[0].Symbol)
	assert.Equal(t, "TCS", got[1].Symbol)

	empty := usecase.NewInstrumentUsecase(&mockInstrumentRepository{}, nil, "NSE", nil)
	got, err = empty.Popular(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInstrumentUsecase_Sync(t *testing.T) {
	t.Parallel()

	dump := []entity.Instrument{{Token: 1, Symbol: "A"}, {Token: 2, Symbol: "B"}}

	tests := []struct {
		name            string
		mockInstruments func(ctx context.Context, exchange string) ([]entity.Instrument, error)
		mockUpsert      func(ctx context.Context, instruments []entity.Instrument) error
		expectedCount   int
		expectedErr     error
		upsertCalled    bool
	}{
		{
			name: "success: dump is upserted",
			mockInstruments: func(ctx context.Context, exchange string) ([]entity.Instrument, error) {
				assert.Equal(t, "NSE", exchange)
				return dump, nil
			},
			mockUpsert: func(ctx context.Context, instruments []entity.Instrument) error {
				assert.Equal(t, dump, instruments)
				return nil
			},
			expectedCount: 2,
			upsertCalled:  true,
		},
		{
			name: "success: empty dump is skipped",
			mockInstruments: func(ctx context.Context, exchange string) ([]entity.Instrument, error) {
				return nil, nil
			},
			expectedCount: 0,
		},
		{
			name: "error: upstream failure",
			mockInstruments: func(ctx context.Context, exchange string) ([]entity.Instrument, error) {
				return nil, errors.New("kite: 403")
			},
			expectedErr: errors.New("fetch instruments for NSE: kite: 403"),
		},
		{
			name: "error: repository failure",
			mockInstruments: func(ctx context.Context, exchange string) ([]entity.Instrument, error) {
				return dump, nil
			},
			mockUpsert: func(ctx context.Context, instruments []entity.Instrument) error {
				return ErrDB
			},
			expectedErr:  ErrDB,
			upsertCalled: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			repo := &mockInstrumentRepository{
				UpsertBatchFunc: func(ctx context.Context, instruments []entity.Instrument) error {
					called = true
					return tt.mockUpsert(ctx, instruments)
				},
			}
			src := &mockInstrumentSource{InstrumentsFunc: tt.mockInstruments}
			uc := usecase.NewInstrumentUsecase(repo, src, "NSE", nil)

			n, err := uc.Sync(context.Background())
			if tt.expectedErr != nil {
				require.Error(t, err)
				if errors.Is(tt.expectedErr, ErrDB) {
					assert.ErrorIs(t, err, ErrDB)
				} else {
					assert.EqualError(t, err, tt.expectedErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedCount, n)
			}
			assert.Equal(t, tt.upsertCalled, called)
		})
	}
}

func TestInstrumentUsecase_Count(t *testing.T) {
	t.Parallel()

	repo := &mockInstrumentRepository{
		ListFunc: func(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error) {
			assert.Equal(t, "NSE", exchange)
			assert.Empty(t, search)
			return nil, 2500, nil
		},
	}
	n, err := usecase.NewInstrumentUsecase(repo, nil, "nse", nil).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2500), n)

	repo.ListFunc = func(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error) {
		return nil, 0, ErrDB
	}
	_, err = usecase.NewInstrumentUsecase(repo, nil, "NSE", nil).Count(context.Background())
	assert.ErrorIs(t, err, ErrDB)
}
