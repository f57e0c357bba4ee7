package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/marketlens/watchstream/internal/api"
	"github.com/marketlens/watchstream/internal/auth"
	"github.com/marketlens/watchstream/internal/codec"
	"github.com/marketlens/watchstream/internal/holdings"
	"github.com/marketlens/watchstream/internal/marketcal"
	"github.com/marketlens/watchstream/internal/model"
	"github.com/marketlens/watchstream/internal/stream"
)

// Watcher is the single entry point for presentation code: it owns one
// subscription at a time and republishes the reconciled view plus the
// connection state.
type Watcher struct {
	cfg    Config
	rest   *api.Client
	creds  auth.Credentials
	cal    *marketcal.Resolver
	logger *slog.Logger

	mu          sync.Mutex
	epoch       int // bumped on every open/close/switch; stale work checks it
	target      string
	book        *holdings.Book
	client      *stream.Client
	state       stream.State
	lastErr     error
	lastUpdated time.Time

	notifications chan Notification
}

// New creates a Watcher. cal may be nil to disable calendar-derived market
// status; creds may be nil for anonymous access.
func New(cfg Config, rest *api.Client, creds auth.Credentials, cal *marketcal.Resolver, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:           cfg,
		rest:          rest,
		creds:         creds,
		cal:           cal,
		logger:        logger,
		state:         stream.StateIdle,
		notifications: make(chan Notification, 64),
	}
}

// Notifications returns the ordered notification feed. Sends never block;
// when a slow consumer falls behind, view-update notifications are coalesced
// by the accessors always returning the latest state.
func (w *Watcher) Notifications() <-chan Notification {
	return w.notifications
}

// Open subscribes to a watchlist: it loads the snapshot, then connects the
// stream. Idempotent for the current target. Opening a different target
// fully tears the old subscription down first; no interleaved state from
// two targets is ever observable.
func (w *Watcher) Open(ctx context.Context, target string) error {
	w.mu.Lock()

	if w.client != nil && w.target == target {
		if w.state != stream.StateFailed {
			w.logger.Debug("open ignored, already subscribed", "target", target)
			w.mu.Unlock()
			return nil
		}
		// Terminal failure: an explicit open is the manual reconnect. The
		// client restarts its attempt counter; the snapshot is refetched to
		// cover anything missed during the outage.
		client, book, epoch := w.client, w.book, w.epoch
		w.mu.Unlock()

		go func() {
			w.loadSnapshot(ctx, book, epoch)
			client.Connect(ctx)
		}()
		return nil
	}

	// Old transport and timers die before anything for the new target
	// exists.
	w.teardownLocked()

	w.target = target
	epoch := w.epoch

	book := holdings.New(target, w.rest, w.cal, w.logger)
	w.book = book

	scfg := w.cfg.Stream
	scfg.URL = streamURL(w.cfg.StreamURL, target)
	client := stream.New(scfg, w.creds, w.logger.With("target", target))
	w.client = client

	w.mu.Unlock()

	go w.eventLoop(client, book, epoch)
	go func() {
		w.loadSnapshot(ctx, book, epoch)
		// Connect even after a failed snapshot; a later Refresh can fill
		// the view while the stream is already up.
		client.Connect(ctx)
	}()

	return nil
}

// Close tears the subscription down: transport closed with a normal-closure
// code, timers cancelled. The last-known view is retained so callers can
// show a frozen state instead of flashing empty. Idempotent and safe before
// any Open.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.client == nil {
		w.logger.Debug("close ignored, not open")
		return
	}
	w.teardownLocked()
	w.target = ""
	w.setStateLocked(stream.StateIdle, nil)
}

// Refresh reloads the snapshot on demand without touching the connection,
// and returns the outcome so the caller can show transient feedback. A
// refresh before Open is a logged no-op reporting ErrNotOpen.
func (w *Watcher) Refresh(ctx context.Context) error {
	w.mu.Lock()
	book := w.book
	epoch := w.epoch
	w.mu.Unlock()

	if book == nil {
		w.logger.Warn("refresh before open is a no-op")
		return ErrNotOpen
	}

	return w.loadSnapshot(ctx, book, epoch)
}

// teardownLocked closes the current stream client (transport plus pending
// retry timer) and invalidates in-flight work for the old target.
func (w *Watcher) teardownLocked() {
	w.epoch++
	if w.client != nil {
		w.client.Close()
		w.client = nil
	}
}

// loadSnapshot runs a snapshot fetch and publishes the outcome unless the
// target changed while the fetch was in flight.
func (w *Watcher) loadSnapshot(ctx context.Context, book *holdings.Book, epoch int) error {
	err := book.LoadSnapshot(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	if epoch != w.epoch {
		// Stale fetch for a previous target: result discarded.
		w.logger.Debug("discarding stale snapshot result", "target", book.Target())
		return err
	}

	if err != nil {
		w.lastErr = err
		w.logger.Warn("snapshot fetch failed, keeping previous view",
			"target", book.Target(),
			"error", err,
		)
		w.notifyLocked(Notification{Kind: NotifySnapshotError, Err: err})
		return err
	}

	w.lastUpdated = book.LastUpdated()
	w.notifyLocked(Notification{Kind: NotifyViewUpdate})
	return nil
}

// eventLoop consumes one stream client's events until it closes. Each loop
// is bound to its epoch; after a switch it keeps draining the old client
// without touching published state.
func (w *Watcher) eventLoop(client *stream.Client, book *holdings.Book, epoch int) {
	for ev := range client.Events() {
		switch ev.Kind {
		case stream.EventStateChange:
			w.mu.Lock()
			if epoch == w.epoch {
				w.setStateLocked(ev.State, ev.Err)
			}
			w.mu.Unlock()

		case stream.EventFrame:
			update, err := codec.Decode(ev.Frame)
			if err != nil {
				w.logger.Warn("dropping bad frame",
					"target", book.Target(),
					"error", err,
				)
				w.mu.Lock()
				if epoch == w.epoch {
					w.notifyLocked(Notification{Kind: NotifyDecodeError, Err: err})
				}
				w.mu.Unlock()
				continue
			}

			if book.ApplyTick(update) == 0 {
				continue
			}
			if w.cfg.Sink != nil {
				w.cfg.Sink.Enqueue(update)
			}

			w.mu.Lock()
			if epoch == w.epoch {
				w.lastUpdated = book.LastUpdated()
				w.notifyLocked(Notification{Kind: NotifyViewUpdate})
			}
			w.mu.Unlock()
		}
	}
}

// setStateLocked publishes a connection state change. The latest error is
// cleared on a successful transition to Open and replaced on failures.
func (w *Watcher) setStateLocked(s stream.State, err error) {
	if s == w.state && err == nil {
		return
	}
	w.state = s
	switch {
	case s == stream.StateOpen:
		w.lastErr = nil
	case err != nil:
		w.lastErr = err
	}
	w.notifyLocked(Notification{Kind: NotifyStateChange, State: s, Err: err})
}

func (w *Watcher) notifyLocked(n Notification) {
	select {
	case w.notifications <- n:
	default:
		w.logger.Debug("notification buffer full, dropping", "kind", n.Kind)
	}
}

// State returns the current connection state.
func (w *Watcher) State() stream.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// LastError returns the latest surfaced error, nil after a successful
// transition to Open.
func (w *Watcher) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Target returns the currently subscribed watchlist, empty when closed.
func (w *Watcher) Target() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target
}

// LastUpdated returns when the view last changed.
func (w *Watcher) LastUpdated() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUpdated
}

// Views returns the latest reconciled holding views in snapshot order. The
// last-known views survive Close.
func (w *Watcher) Views() []model.HoldingView {
	w.mu.Lock()
	book := w.book
	w.mu.Unlock()

	if book == nil {
		return nil
	}
	return book.Views()
}
