// Package server exposes the HTTP API: event market data backed by the
// local read store, order book pass-through, and order submission.
//
// Reads never block on the exchange. A request that finds stale market
// data is served from the store as-is and triggers a background refresh;
// the next request sees the fresher rows.
package server
