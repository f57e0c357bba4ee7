// Package watch implements the subscription adapter presentation code uses.
//
// A Watcher binds the REST snapshot loader, the stream client, and the
// codec together for one watchlist at a time, and exposes the reconciled
// view, the connection state, and an ordered notification feed. Switching
// targets fully tears down the old subscription (transport and timers)
// before the new one starts; stale in-flight snapshot results are discarded
// by epoch tracking.
package watch
