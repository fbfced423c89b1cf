// Package dto はquotesフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// DepthLevel は板の1段です。
type DepthLevel struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Orders   int64   `json:"orders"`
}

// OHLC は当日の四本値です（close は前営業日の終値）。
type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Depth は買い板と売り板です。
type Depth struct {
	Buy  []DepthLevel `json:"buy"`
	Sell []DepthLevel `json:"sell"`
}

// Quote は気配値です。前営業日の終値が0の場合 change と change_percent は省略します。
type Quote struct {
	InstrumentToken   int64    `json:"instrument_token"`
	Timestamp         string   `json:"timestamp"`
	LastTradeTime     string   `json:"last_trade_time"`
	LastPrice         float64  `json:"last_price"`
	Volume            int64    `json:"volume"`
	AveragePrice      float64  `json:"average_price"`
	NetChange         float64  `json:"net_change"`
	LowerCircuitLimit float64  `json:"lower_circuit_limit"`
	UpperCircuitLimit float64  `json:"upper_circuit_limit"`
	OHLC              OHLC     `json:"ohlc"`
	Depth             Depth    `json:"depth"`
	Change            *float64 `json:"change,omitempty"`
	ChangePercent     *float64 `json:"change_percent,omitempty"`
}

// HistoricalBar は銘柄詳細に含める日足1本です。
type HistoricalBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// StockDetailResponse は GET /api/stocks/:symbol のレスポンスです。
// 気配値が取得できない場合 quote は null です。
type StockDetailResponse struct {
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	InstrumentToken int64           `json:"instrument_token"`
	Exchange        string          `json:"exchange"`
	InstrumentType  string          `json:"instrument_type"`
	Segment         string          `json:"segment"`
	Expiry          string          `json:"expiry"`
	Strike          float64         `json:"strike"`
	TickSize        float64         `json:"tick_size"`
	LotSize         int             `json:"lot_size"`
	Quote           *Quote          `json:"quote"`
	HistoricalData  []HistoricalBar `json:"historical_data"`
	LastUpdated     string          `json:"last_updated"`
	Notes           []string        `json:"notes,omitempty"`
}

// DepthQuery は板情報のクエリパラメータです。
type DepthQuery struct {
	Depth int `form:"depth"`
}

// OrderBookResponse は GET /api/stocks/:symbol/depth のレスポンスです。
type OrderBookResponse struct {
	Symbol string       `json:"symbol"`
	Bids   []DepthLevel `json:"bids"`
	Asks   []DepthLevel `json:"asks"`
	AsOf   string       `json:"as_of"`
}

// MarketStatusResponse は GET /api/market_status のレスポンスです。
type MarketStatusResponse struct {
	Status       string `json:"status"`
	Exchange     string `json:"exchange"`
	Timestamp    string `json:"timestamp"`
	TotalSymbols int64  `json:"total_symbols"`
	MarketOpen   bool   `json:"market_open"`
}

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
