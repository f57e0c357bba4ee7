package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// GetLatestPrices fetches the latest price read for each ticker. Large ticker
// sets are chunked into batches fetched concurrently; the result maps ticker
// to its price read, omitting tickers the backend does not know.
func (c *Client) GetLatestPrices(ctx context.Context, tickers []string) (map[string]APIPriceRead, error) {
	if len(tickers) == 0 {
		return map[string]APIPriceRead{}, nil
	}

	var (
		mu     sync.Mutex
		merged = make(map[string]APIPriceRead, len(tickers))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for start := 0; start < len(tickers); start += c.batchSize {
		end := start + c.batchSize
		if end > len(tickers) {
			end = len(tickers)
		}
		batch := tickers[start:end]

		g.Go(func() error {
			query := url.Values{}
			query.Set("tickers", strings.Join(batch, ","))

			var resp PricesResponse
			if err := c.get(ctx, "/v1/prices/latest", query, &resp); err != nil {
				return fmt.Errorf("get latest prices: %w", err)
			}

			mu.Lock()
			for ticker, read := range resp.Prices {
				merged[ticker] = read
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merged, nil
}
