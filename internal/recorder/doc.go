// Package recorder persists applied price ticks to PostgreSQL in batches.
//
// The recorder is append-only (never update, only insert) and sits behind a
// buffered queue so a slow database never blocks the stream path. A full
// queue drops ticks; history has gaps before the live view does.
package recorder
