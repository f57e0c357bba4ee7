package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Market data
// -----------------------------------------------------------------------------

// MarketStatus describes the exchange session state for an instrument.
type MarketStatus struct {
	IsOpen         bool   // Whether the instrument's market is currently open
	Reason         string // Why the market is closed ("weekend", "holiday", ""), empty when open
	LastTradingDay string // Most recent trading day ("2006-01-02")
	NextTradingDay string // Next trading day ("2006-01-02")
}

// PriceTick is one instrument's price datum, streamed or REST-fetched.
//
// Price, Change, and ChangePercent are absent together: when no tradable
// price exists (market never opened for the instrument) all three are nil.
type PriceTick struct {
	InstrumentID  uuid.UUID        // Instrument identifier
	DisplayName   string           // Human-readable name
	Price         *decimal.Decimal // Current price, nil when absent
	Change        *decimal.Decimal // Absolute change vs previous close
	ChangePercent *decimal.Decimal // Percentage change vs previous close
	AsOf          string           // Trading date the price belongs to ("2006-01-02")
	Market        *MarketStatus    // Optional market-status descriptor
}

// PriceUpdate is one decoded stream frame: a full replacement of the price
// data for every instrument it includes (not a diff).
type PriceUpdate struct {
	TargetID  string      // Watchlist the frame belongs to
	Ticks     []PriceTick // Replacement ticks, in server order
	Timestamp time.Time   // Server timestamp for the frame
}

// -----------------------------------------------------------------------------
// Holdings
// -----------------------------------------------------------------------------

// Holding is one position from a watchlist snapshot: membership plus the
// user-entered fields. Quantity and PurchasePrice are nil for watch-only
// entries.
type Holding struct {
	InstrumentID  uuid.UUID        // Instrument identifier
	Ticker        string           // Exchange ticker symbol
	DisplayName   string           // Human-readable name
	Quantity      *decimal.Decimal // Units held, nil when watch-only
	PurchasePrice *decimal.Decimal // Average purchase price, nil when watch-only
	Memo          string           // Free-text note
	Tags          []string         // User labels
}

// HoldingView is the reconciled, presentation-ready record per instrument:
// the holding's snapshot fields merged with the latest price information.
type HoldingView struct {
	Holding

	Price         *decimal.Decimal // Latest price, nil when absent
	Change        *decimal.Decimal // Absolute change vs previous close
	ChangePercent *decimal.Decimal // Percentage change vs previous close
	AsOf          string           // Trading date of the price
	Market        *MarketStatus    // Market-status descriptor, nil when unknown

	// UnrealizedPL = (Price − PurchasePrice) × Quantity. Present only when
	// all three inputs are present; nil otherwise, so a missing price never
	// reads as break-even.
	UnrealizedPL *decimal.Decimal
}

// Dec returns a pointer to d. Convenience for building optional values.
func Dec(d decimal.Decimal) *decimal.Decimal { return &d }

// DecCopy returns a pointer to a copy of *d, or nil when d is nil.
// Views hand out copies so callers cannot mutate reconciled state.
func DecCopy(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
