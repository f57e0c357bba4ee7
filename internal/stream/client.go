package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marketlens/watchstream/internal/auth"
)

// Client owns one logical stream subscription: at most one live transport,
// the connection state machine, and the reconnection policy.
//
// Events are delivered on the Events channel in the order they occur.
// Consumers must drain the channel until it closes after Close.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu               sync.Mutex
	ctx              context.Context
	state            State
	transport        Transport
	stop             chan struct{} // stops the current transport's read loop
	retryTimer       *time.Timer
	attempt          int
	intentionalClose bool
	gen              int // transport generation; stale callbacks check it

	// Ordered event delivery: transitions append under mu, the dispatcher
	// goroutine drains in order so emitters never block.
	pending []Event
	notify  chan struct{}
	events  chan Event
	closed  bool
}

// New creates a stream client for one subscription target. creds may be nil
// when cfg.Dial is supplied.
func New(cfg Config, creds auth.Credentials, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	c := &Client{
		cfg:    cfg,
		logger: logger,
		state:  StateIdle,
		notify: make(chan struct{}, 1),
		events: make(chan Event, 64),
	}

	if c.cfg.Dial == nil {
		c.cfg.Dial = func(ctx context.Context) (Transport, error) {
			return dialWS(ctx, c.cfg, creds, logger)
		}
	}

	go c.dispatch()

	return c
}

// Events returns the ordered event channel. It closes after Close once all
// pending events are delivered.
func (c *Client) Events() <-chan Event {
	return c.events
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempt returns the consecutive failure count since the last Open.
func (c *Client) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// Connect starts connecting. It is idempotent: while Connecting or Open it
// is a logged no-op. From Reconnecting or Failed it cancels any pending
// retry, resets the attempt counter, and dials fresh. Connection errors are
// reported through the event channel, never returned here.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAlreadyClosed
	}

	switch c.state {
	case StateConnecting, StateOpen:
		c.logger.Debug("connect ignored, already active", "state", c.state)
		return nil
	case StateReconnecting:
		c.stopRetryTimerLocked()
	}

	c.ctx = ctx
	c.intentionalClose = false
	c.attempt = 0
	c.startConnectLocked()
	return nil
}

// Disconnect tears the subscription down: cancels any pending retry, closes
// the transport with a normal-closure code, and settles in Idle. Idempotent
// and safe from any state, including before Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectLocked()
}

// Close disconnects and shuts down event delivery. The Events channel closes
// once pending events are drained. The client is unusable afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.disconnectLocked()
	c.closed = true

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Client) disconnectLocked() {
	c.intentionalClose = true
	c.stopRetryTimerLocked()
	c.discardTransportLocked()
	c.gen++
	c.setStateLocked(StateIdle, nil)
}

// startConnectLocked begins a new connection epoch and dials off-lock.
func (c *Client) startConnectLocked() {
	c.gen++
	gen := c.gen
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	c.setStateLocked(StateConnecting, nil)

	go c.dialAndAttach(ctx, gen)
}

func (c *Client) dialAndAttach(ctx context.Context, gen int) {
	t, err := c.cfg.Dial(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.intentionalClose || c.closed {
		// Disconnected or retargeted while the dial was in flight.
		if t != nil {
			t.Close()
		}
		return
	}

	if err != nil {
		c.failLocked(err)
		return
	}

	stop := make(chan struct{})
	c.transport = t
	c.stop = stop
	c.attempt = 0
	c.setStateLocked(StateOpen, nil)

	go c.readLoop(t, stop, gen)
}

// readLoop forwards frames and watches for transport failure. One loop runs
// per transport; the stop channel ends it when the transport is discarded.
func (c *Client) readLoop(t Transport, stop chan struct{}, gen int) {
	for {
		select {
		case <-stop:
			return

		case err := <-t.Errors():
			c.mu.Lock()
			if gen == c.gen && !c.intentionalClose && !c.closed {
				c.discardTransportLocked()
				c.failLocked(err)
			}
			c.mu.Unlock()
			return

		case msg, ok := <-t.Messages():
			if !ok {
				return
			}
			c.mu.Lock()
			if gen == c.gen && c.state == StateOpen {
				c.emitLocked(Event{
					Kind:       EventFrame,
					Frame:      msg.Data,
					ReceivedAt: msg.ReceivedAt,
				})
			}
			c.mu.Unlock()
		}
	}
}

// failLocked handles a transport-level failure: either schedules a backoff
// retry or, once the attempt cap is reached, settles in Failed until the
// caller reconnects explicitly.
func (c *Client) failLocked(cause error) {
	if c.attempt >= c.cfg.MaxAttempts {
		err := fmt.Errorf("%w (%d): %v", ErrRetriesExceeded, c.cfg.MaxAttempts, cause)
		c.logger.Error("giving up on reconnection",
			"attempts", c.attempt,
			"error", cause,
		)
		c.setStateLocked(StateFailed, err)
		return
	}

	c.attempt++
	delay := BackoffDelay(c.cfg.BaseInterval, c.attempt)
	c.setStateLocked(StateReconnecting, cause)

	c.logger.Info("scheduling reconnect",
		"attempt", c.attempt,
		"delay", delay,
		"error", cause,
	)

	gen := c.gen
	c.retryTimer = time.AfterFunc(delay, func() {
		c.retryFire(gen)
	})
}

func (c *Client) retryFire(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.intentionalClose || gen != c.gen || c.state != StateReconnecting {
		return
	}
	c.retryTimer = nil
	c.startConnectLocked()
}

func (c *Client) stopRetryTimerLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

func (c *Client) discardTransportLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if c.transport != nil {
		c.transport.Close()
		c.transport = nil
	}
}

// setStateLocked transitions and emits exactly one notification. Redundant
// transitions are suppressed.
func (c *Client) setStateLocked(s State, err error) {
	if s == c.state {
		return
	}
	c.state = s
	c.emitLocked(Event{Kind: EventStateChange, State: s, Err: err})
}

func (c *Client) emitLocked(ev Event) {
	if c.closed {
		return
	}
	c.pending = append(c.pending, ev)
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// dispatch drains pending events to the events channel in order.
func (c *Client) dispatch() {
	for range c.notify {
		for {
			c.mu.Lock()
			if len(c.pending) == 0 {
				closed := c.closed
				c.mu.Unlock()
				if closed {
					close(c.events)
					return
				}
				break
			}
			ev := c.pending[0]
			c.pending = c.pending[1:]
			c.mu.Unlock()

			c.events <- ev
		}
	}
}
