// Package usecase は銘柄ディレクトリ（シンボル解決・一覧・検索・同期）のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"market_dashboard/internal/feature/instruments/domain"
	"market_dashboard/internal/feature/instruments/domain/entity"
)

const (
	// DefaultPageLimit は一覧の1ページあたりのデフォルト件数です。
	DefaultPageLimit = 50
	// MaxPageLimit は一覧の1ページあたりの最大件数です。
	MaxPageLimit = 500
	// MaxSearchResults は検索結果の最大件数です。
	MaxSearchResults = 20
)

// InstrumentRepository は銘柄マスタの永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type InstrumentRepository interface {
	// UpsertBatch は銘柄を instrument token をキーに一括で登録・更新します。
	UpsertBatch(ctx context.Context, instruments []entity.Instrument) error
	// FindBySymbol は取引所とシンボルが一致する銘柄を返します。無ければ domain.ErrInstrumentNotFound です。
	FindBySymbol(ctx context.Context, exchange, symbol string) (entity.Instrument, error)
	// Search はシンボルまたは名称に query を含む銘柄を最大 limit 件返します。
	Search(ctx context.Context, exchange, query string, limit int) ([]entity.Instrument, error)
	// List は search で絞り込んだ銘柄の offset から limit 件と、絞り込み後の総件数を返します。
	List(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error)
	// ListBySymbols は symbols に含まれる銘柄を返します。
	ListBySymbols(ctx context.Context, exchange string, symbols []string) ([]entity.Instrument, error)
}

// InstrumentSource はブローカーから取引所の銘柄一覧を取得します。
type InstrumentSource interface {
	Instruments(ctx context.Context, exchange string) ([]entity.Instrument, error)
}

// InstrumentUsecase は設定された取引所の銘柄ディレクトリを提供します。
type InstrumentUsecase struct {
	repo     InstrumentRepository
	source   InstrumentSource
	exchange string
	popular  []string

	// populated は銘柄マスタに1件以上あることを確認済みかどうかです。
	populated   atomic.Bool
	bootstrapMu sync.Mutex
}

// NewInstrumentUsecase は InstrumentUsecase を生成します。
// popular は人気銘柄として返すシンボルの一覧（表示順）です。
func NewInstrumentUsecase(repo InstrumentRepository, source InstrumentSource, exchange string, popular []string) *InstrumentUsecase {
	return &InstrumentUsecase{
		repo:     repo,
		source:   source,
		exchange: strings.ToUpper(exchange),
		popular:  popular,
	}
}

// Exchange は対象の取引所を返します。
func (u *InstrumentUsecase) Exchange() string {
	return u.exchange
}

// Resolve はシンボル（大文字小文字を区別しない）を銘柄へ解決します。
// 銘柄マスタが空のまま見つからなかった場合は、一度だけ Sync してから引き直します。
func (u *InstrumentUsecase) Resolve(ctx context.Context, symbol string) (entity.Instrument, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return entity.Instrument{}, domain.ErrInstrumentNotFound
	}
	inst, err := u.repo.FindBySymbol(ctx, u.exchange, symbol)
	if !errors.Is(err, domain.ErrInstrumentNotFound) || u.populated.Load() {
		return inst, err
	}

	if berr := u.bootstrap(ctx); berr != nil {
		slog.Warn("instrument directory bootstrap failed", "exchange", u.exchange, "error", berr)
		return inst, err
	}
	if !u.populated.Load() {
		return inst, err
	}
	return u.repo.FindBySymbol(ctx, u.exchange, symbol)
}

// bootstrap は銘柄マスタが空のときだけ Sync を実行します。
// 同時に呼ばれた場合は最初の1回の完了を待ちます。
func (u *InstrumentUsecase) bootstrap(ctx context.Context) error {
	u.bootstrapMu.Lock()
	defer u.bootstrapMu.Unlock()
	if u.populated.Load() {
		return nil
	}

	total, err := u.Count(ctx)
	if err != nil {
		return err
	}
	if total > 0 {
		u.populated.Store(true)
		return nil
	}

	slog.Info("instrument directory is empty, syncing on demand", "exchange", u.exchange)
	_, err = u.Sync(ctx)
	return err
}

// Count は対象の取引所の銘柄数を返します。
func (u *InstrumentUsecase) Count(ctx context.Context) (int64, error) {
	_, total, err := u.repo.List(ctx, u.exchange, "", 0, 1)
	if err != nil {
		return 0, fmt.Errorf("count instruments: %w", err)
	}
	return total, nil
}

// ListStocks は銘柄一覧をページ単位で返します。
// page が1未満なら1、limit が範囲外ならデフォルト値を使います。
func (u *InstrumentUsecase) ListStocks(ctx context.Context, page, limit int, search string) (*entity.InstrumentPage, error) {
	if limit <= 0 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}
	if page < 1 {
		page = 1
	}
	// offset の計算があふれないように上限を設けます
	if maxPage := math.MaxInt32 / limit; page > maxPage {
		page = maxPage
	}

	offset := (page - 1) * limit
	items, total, err := u.repo.List(ctx, u.exchange, strings.TrimSpace(search), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}

	return &entity.InstrumentPage{
		Items:   items,
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasNext: int64(offset+limit) < total,
		HasPrev: page > 1,
	}, nil
}

// Search はシンボルまたは名称で銘柄を検索します（最大 MaxSearchResults 件）。
// 空のクエリは domain.ErrInvalidQuery です。
func (u *InstrumentUsecase) Search(ctx context.Context, query string) ([]entity.Instrument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidQuery
	}
	return u.repo.Search(ctx, u.exchange, query, MaxSearchResults)
}

// Popular は設定された人気銘柄を設定順に返します。銘柄マスタに無いシンボルは含めません。
func (u *InstrumentUsecase) Popular(ctx context.Context) ([]entity.Instrument, error) {
	if len(u.popular) == 0 {
		return []entity.Instrument{}, nil
	}
	found, err := u.repo.ListBySymbols(ctx, u.exchange, u.popular)
	if err != nil {
		return nil, fmt.Errorf("list popular instruments: %w", err)
	}

	bySymbol := make(map[string]entity.Instrument, len(found))
	for _, inst := range found {
		bySymbol[inst.Symbol] = inst
	}
	out := make([]entity.Instrument, 0, len(found))
	for _, s := range u.popular {
		if inst, ok := bySymbol[normalizeSymbol(s)]; ok {
			out = append(out, inst)
		}
	}
	return out, nil
}

// Sync はブローカーから取引所の銘柄一覧を取得して銘柄マスタへ反映し、件数を返します。
func (u *InstrumentUsecase) Sync(ctx context.Context) (int, error) {
	instruments, err := u.source.Instruments(ctx, u.exchange)
	if err != nil {
		return 0, fmt.Errorf("fetch instruments for %s: %w", u.exchange, err)
	}
	if len(instruments) == 0 {
		slog.Warn("instrument dump is empty, skipping upsert", "exchange", u.exchange)
		return 0, nil
	}

	if err := u.repo.UpsertBatch(ctx, instruments); err != nil {
		return 0, fmt.Errorf("upsert instruments for %s: %w", u.exchange, err)
	}
	u.populated.Store(true)
	slog.Info("instruments synced", "exchange", u.exchange, "count", len(instruments))
	return len(instruments), nil
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
