// Package handler はhistoricalフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"market_dashboard/internal/feature/historical/domain"
	"market_dashboard/internal/feature/historical/domain/entity"
	"market_dashboard/internal/feature/historical/transport/http/dto"
)

// HistoricalUsecase は過去データ照会のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type HistoricalUsecase interface {
	GetHistorical(ctx context.Context, symbol, startStr, endStr, frequency string) (*entity.HistoricalResult, error)
	ComputeIndicator(ctx context.Context, symbol, indicator string, window int, priceType string) (*entity.IndicatorResult, error)
}

// HistoricalHandler は過去データとテクニカル指標のHTTPリクエストを処理します。
type HistoricalHandler struct {
	uc HistoricalUsecase
}

// NewHistoricalHandler は指定されたusecaseでHistoricalHandlerの新しいインスタンスを生成します。
func NewHistoricalHandler(uc HistoricalUsecase) *HistoricalHandler {
	return &HistoricalHandler{uc: uc}
}

// GetHistorical は銘柄と期間、粒度を受け取り、過去データをJSONで返します。
// データが無い場合も200で返し、notes に案内を含めます。
//
// エンドポイント例:
// GET /api/historical/:symbol?from_date=2023-01-01&to_date=2023-03-31&frequency=monthly
func (h *HistoricalHandler) GetHistorical(c *gin.Context) {
	var q dto.HistoricalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}

	res, err := h.uc.GetHistorical(c.Request.Context(), c.Param("symbol"), q.FromDate, q.ToDate, q.Frequency)
	if err != nil {
		writeError(c, err)
		return
	}

	bars := make([]dto.HistoricalBar, 0, len(res.Bars))
	for _, b := range res.Bars {
		bars = append(bars, dto.HistoricalBar{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}

	c.JSON(http.StatusOK, dto.HistoricalResponse{
		Symbol:          res.Symbol,
		Name:            res.Name,
		InstrumentToken: res.Token,
		Exchange:        res.Exchange,
		FromDate:        openapi_types.Date{Time: res.Range.Start.In(time.UTC)},
		ToDate:          openapi_types.Date{Time: res.Range.End.In(time.UTC)},
		Frequency:       string(res.Frequency),
		Interval:        string(res.Interval),
		Timezone:        res.Timezone,
		HistoricalData:  bars,
		Count:           len(bars),
		LastUpdated:     res.LastUpdated,
		Notes:           res.Notes,
	})
}

// GetIndicator は直近の日足からテクニカル指標（sma/ema/rsi）を計算して返します。
//
// エンドポイント例:
// GET /api/stocks/:symbol/indicators?indicator=rsi&window=14&price_type=close
func (h *HistoricalHandler) GetIndicator(c *gin.Context) {
	var q dto.IndicatorQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}

	res, err := h.uc.ComputeIndicator(c.Request.Context(), c.Param("symbol"), q.Indicator, q.Window, q.PriceType)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.IndicatorResponse{
		Symbol:     res.Symbol,
		Indicator:  res.Indicator,
		Window:     res.Window,
		PriceType:  res.PriceType,
		Value:      res.Value,
		SeriesTail: res.SeriesTail,
	})
}

// writeError はドメインエラーをステータスコードへ変換します。
// 入力の誤りは400、銘柄が無い場合は404、それ以外は502を返します。
func writeError(c *gin.Context, err error) {
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		status := http.StatusBadRequest
		if errors.Is(qe, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, dto.ErrorResponse{Error: qe.Message, Code: qe.Code()})
		return
	}

	slog.Error("historical request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error(), Code: "INTERNAL"})
}
