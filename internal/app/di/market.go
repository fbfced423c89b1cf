// Package di provides dependency injection factories for creating application components.
package di

import (
	"market_dashboard/internal/platform/externalapi/kite"
	infrahttp "market_dashboard/internal/platform/http"
)

// NewMarket creates a fully configured KiteMarket with HTTP client and rate limiter.
func NewMarket() *kite.KiteMarket {
	cfg := kite.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout, cfg.RequestsPerSecond)
	return kite.NewKiteMarket(cfg, httpClient, nil)
}
