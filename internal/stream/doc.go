// Package stream implements the price streaming client.
//
// The stream client:
//   - Owns at most one WebSocket transport per watchlist subscription
//   - Drives the connection state machine (Idle, Connecting, Open,
//     Reconnecting, Failed)
//   - Reconnects with exponential backoff up to an attempt cap
//   - Delivers state changes and raw frames as ordered events
package stream
