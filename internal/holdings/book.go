package holdings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketlens/watchstream/internal/api"
	"github.com/marketlens/watchstream/internal/marketcal"
	"github.com/marketlens/watchstream/internal/model"
)

// Book holds the reconciled holding views for one watchlist. It is bound to
// its target at construction; a target switch means a new Book.
type Book struct {
	target string
	rest   *api.Client
	cal    *marketcal.Resolver // optional status fallback, may be nil
	logger *slog.Logger

	mu          sync.RWMutex
	order       []uuid.UUID
	views       map[uuid.UUID]*model.HoldingView
	lastUpdated time.Time
}

// New creates an empty Book for a watchlist target.
func New(target string, rest *api.Client, cal *marketcal.Resolver, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{
		target: target,
		rest:   rest,
		cal:    cal,
		logger: logger,
		views:  make(map[uuid.UUID]*model.HoldingView),
	}
}

// Target returns the watchlist this book is bound to.
func (b *Book) Target() string {
	return b.target
}

// LoadSnapshot fetches membership and a fresh price read for every held
// instrument, then atomically replaces the view. On any error the previous
// view is left untouched (stale but valid). Safe to call while ticks are
// being applied.
func (b *Book) LoadSnapshot(ctx context.Context) error {
	held, err := b.rest.GetHoldings(ctx, b.target)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	tickers := make([]string, 0, len(held))
	for _, h := range held {
		tickers = append(tickers, h.Ticker)
	}

	prices, err := b.rest.GetLatestPrices(ctx, tickers)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	now := time.Now()
	order := make([]uuid.UUID, 0, len(held))
	views := make(map[uuid.UUID]*model.HoldingView, len(held))

	for _, h := range held {
		view := &model.HoldingView{Holding: h}

		if read, ok := prices[h.Ticker]; ok {
			view.Price = model.DecCopy(read.ClosePrice)
			view.Change, view.ChangePercent = ChangePair(read.ClosePrice, read.PreviousClose)
			view.AsOf = read.AsOfDate
			view.Market = read.MarketStatus.ToMarketStatus()
		}
		if view.Market == nil && b.cal != nil {
			view.Market = b.cal.Status(h.Ticker, now)
		}
		view.UnrealizedPL = UnrealizedPL(view.Price, h.PurchasePrice, h.Quantity)

		order = append(order, h.InstrumentID)
		views[h.InstrumentID] = view
	}

	b.mu.Lock()
	b.order = order
	b.views = views
	b.lastUpdated = now
	b.mu.Unlock()

	b.logger.Debug("snapshot loaded",
		"target", b.target,
		"holdings", len(order),
	)

	return nil
}

// ApplyTick merges a decoded price update into the view in place. Each tick
// is a full replacement of the price data for its instrument. Ticks for
// instruments outside the current membership, and updates addressed to a
// different target, are dropped and logged. Returns the number of ticks
// applied.
func (b *Book) ApplyTick(update *model.PriceUpdate) int {
	if update.TargetID != "" && update.TargetID != b.target {
		b.logger.Warn("dropping update for wrong target",
			"got", update.TargetID,
			"want", b.target,
		)
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	applied := 0
	for i := range update.Ticks {
		tick := &update.Ticks[i]

		view, ok := b.views[tick.InstrumentID]
		if !ok {
			// Membership changes come only from a snapshot reload.
			b.logger.Debug("dropping tick for unknown instrument",
				"instrument_id", tick.InstrumentID,
				"target", b.target,
			)
			continue
		}

		view.Price = model.DecCopy(tick.Price)
		view.Change = model.DecCopy(tick.Change)
		view.ChangePercent = model.DecCopy(tick.ChangePercent)
		view.AsOf = tick.AsOf
		if tick.Market != nil {
			m := *tick.Market
			view.Market = &m
		}
		view.UnrealizedPL = UnrealizedPL(view.Price, view.PurchasePrice, view.Quantity)
		applied++
	}

	if applied > 0 {
		b.lastUpdated = time.Now()
	}
	return applied
}

// Views returns detached copies of the holding views in snapshot order.
func (b *Book) Views() []model.HoldingView {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.HoldingView, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, copyView(b.views[id]))
	}
	return out
}

// Len returns the membership size.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// LastUpdated returns when a snapshot or tick last changed the view.
func (b *Book) LastUpdated() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdated
}
