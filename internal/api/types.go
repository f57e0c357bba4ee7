package api

import "github.com/shopspring/decimal"

// HoldingsResponse from GET /v1/watchlists/{id}/holdings.
type HoldingsResponse struct {
	WatchlistID string       `json:"watchlist_id"`
	Holdings    []APIHolding `json:"holdings"`
}

// APIHolding is one watchlist entry as returned by the backend. Quantity and
// PurchasePrice are null for watch-only entries.
type APIHolding struct {
	InstrumentID  string           `json:"instrument_id"`
	TickerSymbol  string           `json:"ticker_symbol"`
	DisplayName   string           `json:"display_name"`
	Quantity      *decimal.Decimal `json:"quantity"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	Memo          string           `json:"memo"`
	Tags          []string         `json:"tags"`
}

// PricesResponse from GET /v1/prices/latest.
type PricesResponse struct {
	Prices map[string]APIPriceRead `json:"prices"`
}

// APIPriceRead is the latest price read for one ticker. ClosePrice is null
// when no tradable price exists.
type APIPriceRead struct {
	ClosePrice    *decimal.Decimal `json:"close_price"`
	PreviousClose *decimal.Decimal `json:"previous_close"`
	AsOfDate      string           `json:"as_of_date"`
	MarketStatus  *APIMarketStatus `json:"market_status"`
}

// APIMarketStatus is the optional session descriptor attached to a price read.
type APIMarketStatus struct {
	IsOpen         bool   `json:"is_open"`
	Reason         string `json:"reason"`
	LastTradingDay string `json:"last_trading_day"`
	NextTradingDay string `json:"next_trading_day"`
}
