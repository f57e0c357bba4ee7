// Package model defines shared data types used across watchstream.
//
// Conventions:
//   - Money and prices: decimal.Decimal behind pointers; nil means the value
//     is absent (market closed, never traded, not provided). Absence is
//     distinct from zero and propagates through derived fields.
//   - Dates: civil date strings in "2006-01-02" form.
//   - IDs: uuid.UUID for instruments, string for watchlist targets.
package model
