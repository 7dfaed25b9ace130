// Package sync reconciles exchange condition snapshots into the local
// read store.
//
// Chunks are fetched sequentially to bound exchange load, and a failed
// chunk is logged and skipped rather than aborting the batch: a single
// unhealthy shard of the batch API degrades coverage, not availability.
// The staleness gate triggers refreshes in the background; callers are
// never blocked on, and never observe, a refresh failure.
package sync
