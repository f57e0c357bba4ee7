package watch

import (
	"errors"
	"net/url"

	"github.com/marketlens/watchstream/internal/model"
	"github.com/marketlens/watchstream/internal/stream"
)

// ErrNotOpen is reported when an operation needs an open subscription.
var ErrNotOpen = errors.New("watcher is not open")

// NotificationKind discriminates watcher notifications.
type NotificationKind int

const (
	// NotifyStateChange reports a connection state transition.
	NotifyStateChange NotificationKind = iota

	// NotifyViewUpdate reports that the holding views changed (snapshot
	// applied or ticks merged).
	NotifyViewUpdate

	// NotifySnapshotError reports a failed snapshot fetch; the previous
	// view is retained.
	NotifySnapshotError

	// NotifyDecodeError reports a malformed frame; the connection is
	// unaffected.
	NotifyDecodeError
)

// Notification is one observable occurrence on the watcher.
type Notification struct {
	Kind  NotificationKind
	State stream.State // NotifyStateChange
	Err   error        // NotifyStateChange (failure-driven), errors
}

// TickSink receives every decoded update that changed the view. Enqueue
// must not block; the watcher calls it on the stream path.
type TickSink interface {
	Enqueue(update *model.PriceUpdate)
}

// Config configures a Watcher.
type Config struct {
	// StreamURL is the WebSocket base URL; the watchlist stream path is
	// appended per target.
	StreamURL string

	// Stream carries the reconnection policy and transport knobs. URL is
	// filled in per target; a Dial override applies to every target.
	Stream stream.Config

	// Sink, when set, receives applied updates for persistence.
	Sink TickSink
}

func streamURL(base, target string) string {
	return base + "/v1/stream/watchlists/" + url.PathEscape(target)
}
