// Package entity defines the domain models for the quotes feature.
package entity

import (
	historicalentity "market_dashboard/internal/feature/historical/domain/entity"
	instrumententity "market_dashboard/internal/feature/instruments/domain/entity"
)

// DepthLevel は板の1段（価格・数量・注文件数）です。
type DepthLevel struct {
	Price    float64
	Quantity int64
	Orders   int64
}

// OHLC は当日の四本値です。Close は前営業日の終値です。
type OHLC struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Quote は1銘柄の気配値のスナップショットです。
// Timestamp と LastTradeTime はアップストリームの値をそのまま保持します。
type Quote struct {
	InstrumentToken int64
	Timestamp       string
	LastTradeTime   string
	LastPrice       float64
	Volume          int64
	AveragePrice    float64
	NetChange       float64
	LowerCircuit    float64
	UpperCircuit    float64
	OHLC            OHLC
	Bids            []DepthLevel
	Asks            []DepthLevel
}

// Change は前営業日の終値からの変化額と変化率（%）を返します。
// 終値が0の場合は ok が false です。
func (q Quote) Change() (change, percent float64, ok bool) {
	if q.OHLC.Close == 0 {
		return 0, 0, false
	}
	change = q.LastPrice - q.OHLC.Close
	return change, change / q.OHLC.Close * 100, true
}

// StockDetail は銘柄情報、気配値、直近の日足をまとめた詳細です。
// 気配値が取得できなかった場合 Quote は nil です。
type StockDetail struct {
	Instrument  instrumententity.Instrument
	Quote       *Quote
	History     []historicalentity.RenderedBar
	LastUpdated string
	Notes       []string
}

// OrderBook は板情報を片側 depth 段までに切り詰めたものです。
type OrderBook struct {
	Symbol string
	Bids   []DepthLevel
	Asks   []DepthLevel
	AsOf   string
}

// MarketStatus は取引所の状態です。
type MarketStatus struct {
	Exchange     string
	Timestamp    string
	TotalSymbols int64
	MarketOpen   bool
}
