// Package dto はhistoricalフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import (
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// HistoricalQuery は過去データ照会のクエリパラメータです。
// 日付の形式や粒度の検証はusecaseで行います。
type HistoricalQuery struct {
	FromDate  string `form:"from_date"`
	ToDate    string `form:"to_date"`
	Frequency string `form:"frequency"`
}

// HistoricalBar は1本分のローソク足です。
type HistoricalBar struct {
	Date   string  `json:"date"`   // IST で整形した日時
	Open   float64 `json:"open"`   // 始値
	High   float64 `json:"high"`   // 高値
	Low    float64 `json:"low"`    // 安値
	Close  float64 `json:"close"`  // 終値
	Volume int64   `json:"volume"` // 出来高
}

// HistoricalResponse は過去データ照会のレスポンスDTOです。
type HistoricalResponse struct {
	Symbol          string             `json:"symbol"`
	Name            string             `json:"name"`
	InstrumentToken int64              `json:"instrument_token"`
	Exchange        string             `json:"exchange"`
	FromDate        openapi_types.Date `json:"from_date"`
	ToDate          openapi_types.Date `json:"to_date"`
	Frequency       string             `json:"frequency"`
	Interval        string             `json:"interval"`
	Timezone        string             `json:"timezone"`
	HistoricalData  []HistoricalBar    `json:"historical_data"`
	Count           int                `json:"count"`
	LastUpdated     string             `json:"last_updated"`
	Notes           []string           `json:"notes,omitempty"`
}

// IndicatorQuery はテクニカル指標のクエリパラメータです。
type IndicatorQuery struct {
	Indicator string `form:"indicator,default=sma"`
	Window    int    `form:"window,default=14"`
	PriceType string `form:"price_type,default=close"`
}

// IndicatorResponse はテクニカル指標のレスポンスDTOです。値が計算できない場合 value は null です。
type IndicatorResponse struct {
	Symbol     string    `json:"symbol"`
	Indicator  string    `json:"indicator"`
	Window     int       `json:"window"`
	PriceType  string    `json:"price_type"`
	Value      *float64  `json:"value"`
	SeriesTail []float64 `json:"series_tail"`
}

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
