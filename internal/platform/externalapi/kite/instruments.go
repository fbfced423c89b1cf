package kite

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"market_dashboard/internal/feature/instruments/domain/entity"
	instrumentsusecase "market_dashboard/internal/feature/instruments/usecase"
)

// KiteMarketがInstrumentSourceを実装していることをコンパイル時に検証します。
var _ instrumentsusecase.InstrumentSource = (*KiteMarket)(nil)

// instrumentColumns はCSVダンプで必須の列です。
var instrumentColumns = []string{
	"instrument_token", "exchange_token", "tradingsymbol", "name", "expiry",
	"strike", "tick_size", "lot_size", "instrument_type", "segment", "exchange",
}

// Instruments は取引所の銘柄一覧（CSVダンプ）を取得します。
func (k *KiteMarket) Instruments(ctx context.Context, exchange string) ([]entity.Instrument, error) {
	res, err := k.get(ctx, "/instruments/"+strings.ToUpper(exchange), nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(res)

	if res.StatusCode >= 400 {
		return nil, decodeError(res)
	}
	return ParseInstrumentsCSV(res.Body)
}

// ParseInstrumentsCSV はKiteの銘柄ダンプCSVを読み込みます。列の順序はヘッダー行から決めます。
func ParseInstrumentsCSV(r io.Reader) ([]entity.Instrument, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []entity.Instrument{}, nil
		}
		return nil, fmt.Errorf("kite instruments: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range instrumentColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("kite instruments: missing column %q", col)
		}
	}

	var out []entity.Instrument
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("kite instruments: line %d: %w", line, err)
		}
		field := func(col string) string { return rec[idx[col]] }

		token, err := strconv.ParseInt(field("instrument_token"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("kite instruments: line %d: parse instrument_token %q: %w", line, field("instrument_token"), err)
		}
		out = append(out, entity.Instrument{
			Token:          token,
			ExchangeToken:  parseIntOrZero(field("exchange_token")),
			Symbol:         field("tradingsymbol"),
			Name:           field("name"),
			Exchange:       field("exchange"),
			InstrumentType: field("instrument_type"),
			Segment:        field("segment"),
			Expiry:         field("expiry"),
			Strike:         parseFloatOrZero(field("strike")),
			TickSize:       parseFloatOrZero(field("tick_size")),
			LotSize:        int(parseIntOrZero(field("lot_size"))),
		})
	}
	return out, nil
}

func parseIntOrZero(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
