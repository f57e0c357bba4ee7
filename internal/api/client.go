package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/marketlens/watchstream/internal/auth"
)

// Client provides access to the watchstream REST API.
type Client struct {
	baseURL    string
	creds      auth.Credentials
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
	batchSize    int // Max tickers per latest-price request
	concurrency  int // Max concurrent latest-price requests
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. creds may be nil for anonymous
// access (local development backends).
func NewClient(baseURL string, creds auth.Credentials, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
		batchSize:    50,
		concurrency:  4,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPriceBatching sets the chunk size and concurrency for latest-price
// lookups spanning many tickers.
func WithPriceBatching(batchSize, concurrency int) ClientOption {
	return func(c *Client) {
		if batchSize > 0 {
			c.batchSize = batchSize
		}
		if concurrency > 0 {
			c.concurrency = concurrency
		}
	}
}
