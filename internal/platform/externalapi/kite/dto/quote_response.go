package dto

// QuoteResponse は /quote エンドポイントからのJSONレスポンスを表します。
// data のキーは "EXCHANGE:SYMBOL" です。
type QuoteResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message,omitempty"`
	ErrorType string           `json:"error_type,omitempty"`
	Data      map[string]Quote `json:"data"`
}

// Quote は1銘柄分のフル気配です。
type Quote struct {
	InstrumentToken   int64   `json:"instrument_token"`
	Timestamp         string  `json:"timestamp"`
	LastTradeTime     string  `json:"last_trade_time"`
	LastPrice         float64 `json:"last_price"`
	LastQuantity      int64   `json:"last_quantity"`
	BuyQuantity       int64   `json:"buy_quantity"`
	SellQuantity      int64   `json:"sell_quantity"`
	Volume            int64   `json:"volume"`
	AveragePrice      float64 `json:"average_price"`
	NetChange         float64 `json:"net_change"`
	LowerCircuitLimit float64 `json:"lower_circuit_limit"`
	UpperCircuitLimit float64 `json:"upper_circuit_limit"`
	OHLC              struct {
		Open  float64 `json:"open"`
		High  float64 `json:"high"`
		Low   float64 `json:"low"`
		Close float64 `json:"close"`
	} `json:"ohlc"`
	Depth struct {
		Buy  []DepthItem `json:"buy"`
		Sell []DepthItem `json:"sell"`
	} `json:"depth"`
}

// DepthItem は板の1段です。
type DepthItem struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Orders   int64   `json:"orders"`
}
