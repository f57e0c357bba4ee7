package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/marketlens/watchstream/internal/model"
)

// GetHoldings fetches the ordered holdings list for a watchlist.
func (c *Client) GetHoldings(ctx context.Context, watchlistID string) ([]model.Holding, error) {
	path := "/v1/watchlists/" + url.PathEscape(watchlistID) + "/holdings"

	var resp HoldingsResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get holdings: %w", err)
	}

	holdings := make([]model.Holding, 0, len(resp.Holdings))
	for _, h := range resp.Holdings {
		holding, err := h.ToHolding()
		if err != nil {
			// A malformed row poisons only itself, not the whole snapshot.
			c.logger.Warn("skipping malformed holding",
				"watchlist_id", watchlistID,
				"ticker", h.TickerSymbol,
				"error", err,
			)
			continue
		}
		holdings = append(holdings, holding)
	}

	return holdings, nil
}
