// Package dto defines data transfer objects for the instruments HTTP API.
package dto

// StockItem represents an instrument in list and popular responses.
type StockItem struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	InstrumentToken int64   `json:"instrument_token"`
	Exchange        string  `json:"exchange"`
	InstrumentType  string  `json:"instrument_type"`
	Segment         string  `json:"segment"`
	Expiry          string  `json:"expiry"`
	Strike          float64 `json:"strike"`
	TickSize        float64 `json:"tick_size"`
	LotSize         int     `json:"lot_size"`
}

// ListQuery holds the query parameters of GET /api/stocks.
type ListQuery struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=50"`
	Search string `form:"search"`
}

// StockListResponse is one page of stocks.
type StockListResponse struct {
	Stocks  []StockItem `json:"stocks"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	HasNext bool        `json:"has_next"`
	HasPrev bool        `json:"has_prev"`
}

// PopularResponse wraps the popular stock list.
type PopularResponse struct {
	Stocks []StockItem `json:"stocks"`
}

// SearchResult is the compact shape returned by the search endpoint.
type SearchResult struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	InstrumentToken int64  `json:"instrument_token"`
	Exchange        string `json:"exchange"`
	InstrumentType  string `json:"instrument_type"`
}

// SearchResponse echoes the query together with its results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Query   string         `json:"query"`
}
