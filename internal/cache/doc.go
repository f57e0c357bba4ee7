// Package cache keeps the last reconciled holding views in Redis so that a
// restarted watcher (or a sibling process) can serve a recent view before the
// first snapshot completes. Entries expire on a TTL; Redis being down is a
// degradation, not a failure.
package cache
