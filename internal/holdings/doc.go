// Package holdings implements the reconciliation layer: it merges a
// point-in-time REST snapshot (watchlist membership plus last-known prices)
// with streamed price updates into one coherent view.
//
// Membership is owned by the snapshot. Streamed ticks update existing
// entries in place and never add or remove entries; ticks for instruments
// outside the current membership are dropped and logged.
package holdings
