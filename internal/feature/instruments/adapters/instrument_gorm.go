// Package adapters はinstrumentsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"market_dashboard/internal/feature/instruments/domain"
	"market_dashboard/internal/feature/instruments/domain/entity"
	"market_dashboard/internal/feature/instruments/usecase"
)

// upsertBatchSize は1回の INSERT に含める行数です。取引所の銘柄一覧は数万件あるため分割します。
const upsertBatchSize = 500

// equityFirst は同じシンボルの銘柄が複数あるとき現物（EQ）を先に並べる ORDER BY 句です。
const equityFirst = "CASE WHEN instrument_type = 'EQ' THEN 0 ELSE 1 END, token ASC"

// instrumentGorm はInstrumentRepositoryインターフェースのGORM実装です（PostgreSQL / SQLite）。
type instrumentGorm struct {
	db *gorm.DB
}

var _ usecase.InstrumentRepository = (*instrumentGorm)(nil)

// NewInstrumentRepository は指定されたDB接続でinstrumentGormリポジトリの新しいインスタンスを生成します。
func NewInstrumentRepository(db *gorm.DB) *instrumentGorm {
	return &instrumentGorm{db: db}
}

// InstrumentModel は instruments テーブルの行です。
type InstrumentModel struct {
	ID             uint      `gorm:"primaryKey"`
	Token          int64     `gorm:"not null;uniqueIndex"`
	ExchangeToken  int64     `gorm:"not null;default:0"`
	Symbol         string    `gorm:"size:64;not null;index:idx_instruments_exchange_symbol,priority:2"`
	Name           string    `gorm:"size:255;not null;default:''"`
	Exchange       string    `gorm:"size:16;not null;index:idx_instruments_exchange_symbol,priority:1"`
	InstrumentType string    `gorm:"size:16"`
	Segment        string    `gorm:"size:32"`
	Expiry         string    `gorm:"size:16"`
	Strike         float64   `gorm:"not null;default:0"`
	TickSize       float64   `gorm:"not null;default:0"`
	LotSize        int       `gorm:"not null;default:0"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (InstrumentModel) TableName() string {
	return "instruments"
}

func toModel(e entity.Instrument) InstrumentModel {
	return InstrumentModel{
		Token:          e.Token,
		ExchangeToken:  e.ExchangeToken,
		Symbol:         e.Symbol,
		Name:           e.Name,
		Exchange:       e.Exchange,
		InstrumentType: e.InstrumentType,
		Segment:        e.Segment,
		Expiry:         e.Expiry,
		Strike:         e.Strike,
		TickSize:       e.TickSize,
		LotSize:        e.LotSize,
	}
}

func toEntity(m InstrumentModel) entity.Instrument {
	return entity.Instrument{
		Token:          m.Token,
		ExchangeToken:  m.ExchangeToken,
		Symbol:         m.Symbol,
		Name:           m.Name,
		Exchange:       m.Exchange,
		InstrumentType: m.InstrumentType,
		Segment:        m.Segment,
		Expiry:         m.Expiry,
		Strike:         m.Strike,
		TickSize:       m.TickSize,
		LotSize:        m.LotSize,
	}
}

func toEntities(rows []InstrumentModel) []entity.Instrument {
	out := make([]entity.Instrument, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out
}

// UpsertBatch は instrument token が衝突した行を最新の値で更新します。
func (r *instrumentGorm) UpsertBatch(ctx context.Context, instruments []entity.Instrument) error {
	if len(instruments) == 0 {
		return nil
	}
	ms := make([]InstrumentModel, 0, len(instruments))
	for _, e := range instruments {
		ms = append(ms, toModel(e))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"exchange_token", "symbol", "name", "exchange", "instrument_type",
			"segment", "expiry", "strike", "tick_size", "lot_size", "updated_at",
		}),
	}).CreateInBatches(&ms, upsertBatchSize).Error
}

// FindBySymbol は取引所とシンボルが一致する銘柄を返します。
// 同じシンボルが複数ある場合（先物など）は現物（EQ）を優先し、次に token の小さいものを返します。
func (r *instrumentGorm) FindBySymbol(ctx context.Context, exchange, symbol string) (entity.Instrument, error) {
	var m InstrumentModel
	err := r.db.WithContext(ctx).
		Where("exchange = ? AND UPPER(symbol) = ?", exchange, strings.ToUpper(symbol)).
		Order(equityFirst).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Instrument{}, domain.ErrInstrumentNotFound
		}
		return entity.Instrument{}, err
	}
	return toEntity(m), nil
}

// Search はシンボルまたは名称に query を含む銘柄を、シンボル順に最大 limit 件返します。
func (r *instrumentGorm) Search(ctx context.Context, exchange, query string, limit int) ([]entity.Instrument, error) {
	var rows []InstrumentModel
	q := r.filtered(ctx, exchange, query).Order("symbol ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// List は search で絞り込んだ銘柄をシンボル順に offset から limit 件返し、絞り込み後の総件数も返します。
func (r *instrumentGorm) List(ctx context.Context, exchange, search string, offset, limit int) ([]entity.Instrument, int64, error) {
	var total int64
	if err := r.filtered(ctx, exchange, search).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []InstrumentModel
	if err := r.filtered(ctx, exchange, search).
		Order("symbol ASC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toEntities(rows), total, nil
}

// ListBySymbols は symbols に含まれる銘柄をシンボルごとに1件返します。順序は保証しません。
func (r *instrumentGorm) ListBySymbols(ctx context.Context, exchange string, symbols []string) ([]entity.Instrument, error) {
	if len(symbols) == 0 {
		return []entity.Instrument{}, nil
	}
	upper := make([]string, 0, len(symbols))
	for _, s := range symbols {
		upper = append(upper, strings.ToUpper(s))
	}

	var rows []InstrumentModel
	if err := r.db.WithContext(ctx).
		Where("exchange = ? AND symbol IN ?", exchange, upper).
		Order(equityFirst).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	// 同じシンボルの重複は現物を優先して最初の1件だけ残す
	seen := make(map[string]struct{}, len(rows))
	out := make([]entity.Instrument, 0, len(rows))
	for _, m := range rows {
		if _, ok := seen[m.Symbol]; ok {
			continue
		}
		seen[m.Symbol] = struct{}{}
		out = append(out, toEntity(m))
	}
	return out, nil
}

// filtered は取引所と検索語で絞り込んだクエリを返します。検索語は大文字小文字を区別しません。
func (r *instrumentGorm) filtered(ctx context.Context, exchange, search string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&InstrumentModel{}).Where("exchange = ?", exchange)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + escapeLike(strings.ToUpper(search)) + "%"
		q = q.Where("(UPPER(symbol) LIKE ? ESCAPE '\\' OR UPPER(name) LIKE ? ESCAPE '\\')", like, like)
	}
	return q
}

// escapeLike は LIKE のワイルドカード文字をエスケープします。
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
