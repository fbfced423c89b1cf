// Package dto はKite Connect APIレスポンスのデータ転送オブジェクトを定義します。
package dto

import (
	"encoding/json"
	"fmt"
)

// HistoricalResponse は /instruments/historical エンドポイントからのJSONレスポンスを表します。
type HistoricalResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	Data      struct {
		Candles []Candle `json:"candles"`
	} `json:"data"`
}

// Candle は [timestamp, open, high, low, close, volume(, oi)] 形式の配列1件です。
type Candle struct {
	Timestamp string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// UnmarshalJSON は配列形式のローソク足をデコードします。
func (c *Candle) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) < 6 {
		return fmt.Errorf("kite candle: expected at least 6 fields, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &c.Timestamp); err != nil {
		return fmt.Errorf("kite candle timestamp: %w", err)
	}
	prices := []*float64{&c.Open, &c.High, &c.Low, &c.Close}
	for i, p := range prices {
		if err := json.Unmarshal(raw[i+1], p); err != nil {
			return fmt.Errorf("kite candle field %d: %w", i+1, err)
		}
	}
	var vol float64
	if err := json.Unmarshal(raw[5], &vol); err != nil {
		return fmt.Errorf("kite candle volume: %w", err)
	}
	c.Volume = int64(vol)
	return nil
}

// ErrorResponse はエラー時のJSONレスポンスです。
type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
}
