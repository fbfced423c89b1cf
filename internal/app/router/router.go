// Package router はHTTPルーティングを組み立てます。
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	historicalhandler "market_dashboard/internal/feature/historical/transport/handler"
	instrumenthandler "market_dashboard/internal/feature/instruments/transport/handler"
	quotehandler "market_dashboard/internal/feature/quotes/transport/handler"
	platformhandler "market_dashboard/internal/platform/http/handler"
)

// Options はルーターの設定です。
type Options struct {
	// CORSOrigins が空の場合はすべてのオリジンを許可します。
	CORSOrigins []string
	// Ready は /readyz のハンドラーです。nil の場合は登録しません。
	Ready gin.HandlerFunc
}

func NewRouter(opts Options, instruments *instrumenthandler.InstrumentHandler,
	historical *historicalhandler.HistoricalHandler, quotes *quotehandler.QuoteHandler) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware(opts.CORSOrigins))

	// 導通確認用
	r.GET("/healthz", platformhandler.Health)
	r.HEAD("/healthz", platformhandler.Health)
	if opts.Ready != nil {
		r.GET("/readyz", opts.Ready)
	}

	api := r.Group("/api")
	{
		// 銘柄一覧・人気銘柄・検索
		api.GET("/stocks", instruments.List)
		api.GET("/stocks/popular", instruments.Popular)
		api.GET("/search", instruments.Search)

		// 過去データとテクニカル指標
		api.GET("/historical/:symbol", historical.GetHistorical)
		api.GET("/stocks/:symbol/indicators", historical.GetIndicator)

		// 銘柄詳細・板情報・市場状態
		api.GET("/stocks/:symbol", quotes.StockDetail)
		api.GET("/stocks/:symbol/depth", quotes.OrderBook)
		api.GET("/market_status", quotes.MarketStatus)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	})
}
