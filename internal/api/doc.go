// Package api provides the REST client for the watchstream backend.
//
// Endpoints consumed:
//   - GET /v1/watchlists/{id}/holdings — watchlist membership and holdings
//   - GET /v1/prices/latest?tickers=…  — latest price read per ticker
//
// The client authenticates through an auth.Credentials provider and retries
// retryable failures (5xx, 429) with exponential backoff and jitter.
package api
