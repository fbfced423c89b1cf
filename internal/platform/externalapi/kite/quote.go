package kite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"market_dashboard/internal/feature/quotes/domain/entity"
	quoteusecase "market_dashboard/internal/feature/quotes/usecase"
	"market_dashboard/internal/platform/externalapi/kite/dto"
)

// KiteMarketがQuoteSourceを実装していることをコンパイル時に検証します。
var _ quoteusecase.QuoteSource = (*KiteMarket)(nil)

// Quote は "EXCHANGE:SYMBOL" 形式のキーでフル気配を取得します。
// 応答に含まれないキーは結果のマップにも含まれません。
func (k *KiteMarket) Quote(ctx context.Context, keys []string) (map[string]entity.Quote, error) {
	q := url.Values{}
	for _, key := range keys {
		q.Add("i", key)
	}

	res, err := k.get(ctx, "/quote", q)
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.StatusCode >= 400 {
		return nil, decodeError(res)
	}

	var body dto.QuoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("kite: decode quote response: %w", err)
	}
	if body.Status == "error" {
		return nil, apiError(res.StatusCode, body.ErrorType, body.Message)
	}

	out := make(map[string]entity.Quote, len(body.Data))
	for key, d := range body.Data {
		out[key] = toQuote(d)
	}
	return out, nil
}

func toQuote(d dto.Quote) entity.Quote {
	return entity.Quote{
		InstrumentToken: d.InstrumentToken,
		Timestamp:       d.Timestamp,
		LastTradeTime:   d.LastTradeTime,
		LastPrice:       d.LastPrice,
		Volume:          d.Volume,
		AveragePrice:    d.AveragePrice,
		NetChange:       d.NetChange,
		LowerCircuit:    d.LowerCircuitLimit,
		UpperCircuit:    d.UpperCircuitLimit,
		OHLC: entity.OHLC{
			Open:  d.OHLC.Open,
			High:  d.OHLC.High,
			Low:   d.OHLC.Low,
			Close: d.OHLC.Close,
		},
		Bids: toDepth(d.Depth.Buy),
		Asks: toDepth(d.Depth.Sell),
	}
}

func toDepth(items []dto.DepthItem) []entity.DepthLevel {
	out := make([]entity.DepthLevel, 0, len(items))
	for _, it := range items {
		out = append(out, entity.DepthLevel{Price: it.Price, Quantity: it.Quantity, Orders: it.Orders})
	}
	return out
}
