// Package handler はquotesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"market_dashboard/internal/feature/quotes/domain"
	"market_dashboard/internal/feature/quotes/domain/entity"
	"market_dashboard/internal/feature/quotes/transport/http/dto"
)

// QuoteUsecase は気配値を中心とした照会のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type QuoteUsecase interface {
	StockDetail(ctx context.Context, symbol string) (*entity.StockDetail, error)
	OrderBook(ctx context.Context, symbol string, depth int) (*entity.OrderBook, error)
	MarketStatus(ctx context.Context) (*entity.MarketStatus, error)
}

// QuoteHandler は銘柄詳細・板情報・市場状態のHTTPリクエストを処理します。
type QuoteHandler struct {
	uc QuoteUsecase
}

// NewQuoteHandler は指定されたusecaseでQuoteHandlerの新しいインスタンスを生成します。
func NewQuoteHandler(uc QuoteUsecase) *QuoteHandler {
	return &QuoteHandler{uc: uc}
}

// StockDetail は銘柄情報、気配値、直近30日の日足をJSONで返します。
//
// エンドポイント例:
// GET /api/stocks/:symbol
func (h *QuoteHandler) StockDetail(c *gin.Context) {
	res, err := h.uc.StockDetail(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}

	inst := res.Instrument
	bars := make([]dto.HistoricalBar, 0, len(res.History))
	for _, b := range res.History {
		bars = append(bars, dto.HistoricalBar{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}

	c.JSON(http.StatusOK, dto.StockDetailResponse{
		Symbol:          inst.Symbol,
		Name:            inst.Name,
		InstrumentToken: inst.Token,
		Exchange:        inst.Exchange,
		InstrumentType:  inst.InstrumentType,
		Segment:         inst.Segment,
		Expiry:          inst.Expiry,
		Strike:          inst.Strike,
		TickSize:        inst.TickSize,
		LotSize:         inst.LotSize,
		Quote:           toQuoteDTO(res.Quote),
		HistoricalData:  bars,
		LastUpdated:     res.LastUpdated,
		Notes:           res.Notes,
	})
}

// OrderBook は板情報を片側 depth 段（デフォルト5段）まで返します。
//
// エンドポイント例:
// GET /api/stocks/:symbol/depth?depth=5
func (h *QuoteHandler) OrderBook(c *gin.Context) {
	var q dto.DepthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}

	res, err := h.uc.OrderBook(c.Request.Context(), c.Param("symbol"), q.Depth)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OrderBookResponse{
		Symbol: res.Symbol,
		Bids:   toDepthDTO(res.Bids),
		Asks:   toDepthDTO(res.Asks),
		AsOf:   res.AsOf,
	})
}

// MarketStatus は取引所の銘柄数と立会時間中かどうかを返します。
//
// エンドポイント例:
// GET /api/market_status
func (h *QuoteHandler) MarketStatus(c *gin.Context) {
	res, err := h.uc.MarketStatus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MarketStatusResponse{
		Status:       "success",
		Exchange:     res.Exchange,
		Timestamp:    res.Timestamp,
		TotalSymbols: res.TotalSymbols,
		MarketOpen:   res.MarketOpen,
	})
}

func toQuoteDTO(q *entity.Quote) *dto.Quote {
	if q == nil {
		return nil
	}
	out := &dto.Quote{
		InstrumentToken:   q.InstrumentToken,
		Timestamp:         q.Timestamp,
		LastTradeTime:     q.LastTradeTime,
		LastPrice:         q.LastPrice,
		Volume:            q.Volume,
		AveragePrice:      q.AveragePrice,
		NetChange:         q.NetChange,
		LowerCircuitLimit: q.LowerCircuit,
		UpperCircuitLimit: q.UpperCircuit,
		OHLC:              dto.OHLC{Open: q.OHLC.Open, High: q.OHLC.High, Low: q.OHLC.Low, Close: q.OHLC.Close},
		Depth:             dto.Depth{Buy: toDepthDTO(q.Bids), Sell: toDepthDTO(q.Asks)},
	}
	if change, pct, ok := q.Change(); ok {
		out.Change = &change
		out.ChangePercent = &pct
	}
	return out
}

func toDepthDTO(levels []entity.DepthLevel) []dto.DepthLevel {
	out := make([]dto.DepthLevel, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.DepthLevel{Price: l.Price, Quantity: l.Quantity, Orders: l.Orders})
	}
	return out
}

// writeError はドメインエラーをステータスコードへ変換します。
// 入力の誤りは400、銘柄が無い場合は404、それ以外は502を返します。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	default:
		slog.Error("quote request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error(), Code: "INTERNAL"})
	}
}
