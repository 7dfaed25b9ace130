// Package stream maintains the live trade WebSocket feed.
//
// A single connection subscribes to executed trades for the tracked
// outcome tokens and writes them into the local read store through the
// same idempotent upsert path the snapshot engine uses, so a trade
// delivered by both the stream and a later snapshot lands exactly once.
// The feed reconnects with capped exponential backoff and is strictly
// best-effort: snapshots remain the source of truth.
package stream
