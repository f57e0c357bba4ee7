// Package database provides connection pool management for PostgreSQL.
//
// The watcher daemon uses a single pool for recorded price ticks.
package database
