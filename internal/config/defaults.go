package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout         = 15 * time.Second
	DefaultMaxRetries         = 3
	DefaultStreamBaseInterval = 3 * time.Second
	DefaultStreamMaxAttempts  = 5
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultPingInterval       = 30 * time.Second
	DefaultPingTimeout        = 90 * time.Second
	DefaultStreamBufferSize   = 1000
	DefaultRefreshInterval    = 15 * time.Minute
	DefaultRecorderBatchSize  = 500
	DefaultRecorderFlush      = 1 * time.Second
	DefaultRecorderBufferSize = 5000
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultCacheAddr          = "localhost:6379"
	DefaultCacheTTL           = 2 * time.Minute
	DefaultHealthPort         = 8090
	DefaultHealthPath         = "/healthz"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

func (c *WatcherConfig) applyDefaults() {
	// API defaults
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Stream defaults
	if c.Stream.BaseInterval == 0 {
		c.Stream.BaseInterval = DefaultStreamBaseInterval
	}
	if c.Stream.MaxAttempts == 0 {
		c.Stream.MaxAttempts = DefaultStreamMaxAttempts
	}
	if c.Stream.HandshakeTimeout == 0 {
		c.Stream.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = DefaultPingInterval
	}
	if c.Stream.PingTimeout == 0 {
		c.Stream.PingTimeout = DefaultPingTimeout
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultStreamBufferSize
	}

	// Watchlists defaults
	if c.Watchlists.RefreshInterval == 0 {
		c.Watchlists.RefreshInterval = DefaultRefreshInterval
	}

	// Recorder defaults
	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultRecorderBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultRecorderFlush
	}
	if c.Recorder.BufferSize == 0 {
		c.Recorder.BufferSize = DefaultRecorderBufferSize
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Cache defaults
	if c.Cache.Addr == "" {
		c.Cache.Addr = DefaultCacheAddr
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}
