// Package handler はinstrumentsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"market_dashboard/internal/feature/instruments/domain"
	"market_dashboard/internal/feature/instruments/domain/entity"
	"market_dashboard/internal/feature/instruments/transport/http/dto"
)

// InstrumentUsecase は銘柄ディレクトリに関するユースケースのインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type InstrumentUsecase interface {
	ListStocks(ctx context.Context, page, limit int, search string) (*entity.InstrumentPage, error)
	Search(ctx context.Context, query string) ([]entity.Instrument, error)
	Popular(ctx context.Context) ([]entity.Instrument, error)
}

// InstrumentHandler は銘柄一覧・検索に関するHTTPリクエストを処理します。
type InstrumentHandler struct {
	uc InstrumentUsecase
}

// NewInstrumentHandler は新しい InstrumentHandler を作成します。
func NewInstrumentHandler(uc InstrumentUsecase) *InstrumentHandler {
	return &InstrumentHandler{uc: uc}
}

// List は銘柄一覧をページ単位で返すAPIです。
//
// エンドポイント例:
// GET /api/stocks?page=1&limit=50&search=tata
func (h *InstrumentHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.uc.ListStocks(c.Request.Context(), q.Page, q.Limit, q.Search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]dto.StockItem, 0, len(page.Items))
	for _, inst := range page.Items {
		out = append(out, toStockItem(inst))
	}
	c.JSON(http.StatusOK, dto.StockListResponse{
		Stocks:  out,
		Total:   page.Total,
		Page:    page.Page,
		Limit:   page.Limit,
		HasNext: page.HasNext,
		HasPrev: page.HasPrev,
	})
}

// Popular は設定された人気銘柄を返すAPIです。
func (h *InstrumentHandler) Popular(c *gin.Context) {
	instruments, err := h.uc.Popular(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]dto.StockItem, 0, len(instruments))
	for _, inst := range instruments {
		out = append(out, toStockItem(inst))
	}
	c.JSON(http.StatusOK, dto.PopularResponse{Stocks: out})
}

// Search はシンボルまたは名称で銘柄を検索するAPIです。q が空の場合は400を返します。
//
// エンドポイント例:
// GET /api/search?q=infy
func (h *InstrumentHandler) Search(c *gin.Context) {
	query := c.Query("q")

	instruments, err := h.uc.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]dto.SearchResult, 0, len(instruments))
	for _, inst := range instruments {
		out = append(out, dto.SearchResult{
			Symbol:          inst.Symbol,
			Name:            inst.Name,
			InstrumentToken: inst.Token,
			Exchange:        inst.Exchange,
			InstrumentType:  inst.InstrumentType,
		})
	}
	c.JSON(http.StatusOK, dto.SearchResponse{Results: out, Query: query})
}

func toStockItem(inst entity.Instrument) dto.StockItem {
	return dto.StockItem{
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
	}
}
