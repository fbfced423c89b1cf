package usecase

import (
	"math"
	"strings"

	"market_dashboard/internal/feature/historical/domain/entity"
)

// 指標の種類
const (
	IndicatorSMA = "sma"
	IndicatorEMA = "ema"
	IndicatorRSI = "rsi"
)

// 価格の種類
const (
	PriceClose = "close"
	PriceOpen  = "open"
	PriceHigh  = "high"
	PriceLow   = "low"
)

// SeriesTailSize は結果に含める指標系列の末尾の件数です。
const SeriesTailSize = 20

// PriceField は系列から指定した種類の価格を取り出します。未知の種類は終値として扱います。
func PriceField(series entity.DailySeries, priceType string) []float64 {
	pick := func(b entity.Bar) float64 { return b.Close }
	switch strings.ToLower(priceType) {
	case PriceOpen:
		pick = func(b entity.Bar) float64 { return b.Open }
	case PriceHigh:
		pick = func(b entity.Bar) float64 { return b.High }
	case PriceLow:
		pick = func(b entity.Bar) float64 { return b.Low }
	}

	out := make([]float64, 0, len(series))
	for _, b := range series {
		out = append(out, pick(b))
	}
	return out
}

// SMA は単純移動平均の系列を返します。値が n 件未満なら空です。
func SMA(values []float64, n int) []float64 {
	if n <= 0 || len(values) < n {
		return []float64{}
	}
	out := make([]float64, 0, len(values)-n+1)
	running := 0.0
	for _, v := range values[:n] {
		running += v
	}
	out = append(out, running/float64(n))
	for i := n; i < len(values); i++ {
		running += values[i] - values[i-n]
		out = append(out, running/float64(n))
	}
	return out
}

// EMA は指数移動平均の系列を返します。最初の値は先頭 n 件の単純平均です。
func EMA(values []float64, n int) []float64 {
	if n <= 0 || len(values) < n {
		return []float64{}
	}
	k := 2 / float64(n+1)
	seed := 0.0
	for _, v := range values[:n] {
		seed += v
	}
	out := make([]float64, 0, len(values)-n+1)
	out = append(out, seed/float64(n))
	for _, price := range values[n:] {
		prev := out[len(out)-1]
		out = append(out, price*k+prev*(1-k))
	}
	return out
}

// RSI は Wilder の平滑化による相対力指数の系列を返します。値が n+1 件未満なら空です。
// 平均下落幅が0の区間は100になります。
func RSI(values []float64, n int) []float64 {
	if n <= 0 || len(values) < n+1 {
		return []float64{}
	}
	gains := make([]float64, 0, len(values)-1)
	losses := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gains = append(gains, math.Max(change, 0))
		losses = append(losses, math.Max(-change, 0))
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 0; i < n; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)

	out := make([]float64, 0, len(gains)-n+1)
	out = append(out, rsiValue(avgGain, avgLoss))
	for i := n; i < len(gains); i++ {
		avgGain = (avgGain*float64(n-1) + gains[i]) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + losses[i]) / float64(n)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// ComputeSeries は指標名に応じた系列を計算します。未知の指標は空の系列を返します。
func ComputeSeries(indicator string, values []float64, window int) []float64 {
	switch strings.ToLower(indicator) {
	case IndicatorSMA:
		return SMA(values, window)
	case IndicatorEMA:
		return EMA(values, window)
	case IndicatorRSI:
		return RSI(values, window)
	default:
		return []float64{}
	}
}

// tail は末尾の最大 n 件を返します。
func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
