// Package entity defines the domain models for the instruments feature.
package entity

// Instrument is a tradable instrument listed by the broker.
// Token is the opaque numeric identifier the market-data API uses instead of the symbol.
type Instrument struct {
	Token          int64
	ExchangeToken  int64
	Symbol         string // trading symbol, e.g. "TCS"
	Name           string
	Exchange       string // e.g. "NSE"
	InstrumentType string // EQ, FUT, CE, PE ...
	Segment        string
	Expiry         string // YYYY-MM-DD, empty for equities
	Strike         float64
	TickSize       float64
	LotSize        int
}

// InstrumentPage is one page of a paginated instrument listing.
type InstrumentPage struct {
	Items   []Instrument
	Total   int64
	Page    int
	Limit   int
	HasNext bool
	HasPrev bool
}
