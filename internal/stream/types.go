package stream

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrRetriesExceeded = errors.New("reconnect attempts exceeded")
)

// State is the connection lifecycle state. Exactly one is active at a time
// per client.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventKind discriminates stream events.
type EventKind int

const (
	// EventStateChange reports a state machine transition. Err carries the
	// failure that caused it, if any.
	EventStateChange EventKind = iota

	// EventFrame carries one raw inbound frame.
	EventFrame
)

// Event is one ordered occurrence on the stream: a state transition or an
// inbound frame. Events are delivered in the order they happen.
type Event struct {
	Kind       EventKind
	State      State     // EventStateChange
	Err        error     // EventStateChange, nil unless a failure drove it
	Frame      []byte    // EventFrame
	ReceivedAt time.Time // EventFrame
}

// TimestampedMessage wraps raw frame data with its receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// Transport is one live connection to the streaming backend. Implementations
// surface inbound frames on Messages and transport-level failures on Errors;
// after an error the transport is dead and must be discarded.
type Transport interface {
	// Close tears the connection down with a normal-closure code. Safe to
	// call more than once.
	Close() error

	// Messages returns the inbound frame channel.
	Messages() <-chan TimestampedMessage

	// Errors returns the transport failure channel.
	Errors() <-chan error
}

// DialFunc opens a new transport. The stream client calls it once per
// connection attempt and owns the result.
type DialFunc func(ctx context.Context) (Transport, error)

// Config configures a stream client.
type Config struct {
	URL              string        // WebSocket URL for the target's stream
	BaseInterval     time.Duration // First reconnect delay; doubles per attempt
	MaxAttempts      int           // Reconnect attempts before Failed
	HandshakeTimeout time.Duration // WebSocket handshake deadline
	WriteTimeout     time.Duration // Write deadline for control frames
	PingInterval     time.Duration // Keepalive ping cadence
	PingTimeout      time.Duration // Max silence before the link counts as stale
	BufferSize       int           // Transport frame channel buffer

	// Dial overrides the default WebSocket dialer. Used by tests.
	Dial DialFunc
}

// DefaultConfig returns the production reconnection policy: 3s, 6s, 12s,
// 24s, 48s, then Failed.
func DefaultConfig() Config {
	return Config{
		BaseInterval:     3 * time.Second,
		MaxAttempts:      5,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      90 * time.Second,
		BufferSize:       1000,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.BaseInterval == 0 {
		c.BaseInterval = def.BaseInterval
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = def.PingInterval
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = def.PingTimeout
	}
	if c.BufferSize == 0 {
		c.BufferSize = def.BufferSize
	}
}

// BackoffDelay returns the wait before reconnect attempt n (1-based):
// base × 2^(n−1).
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}
