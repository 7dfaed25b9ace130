// Package store owns all access to the local PostgreSQL read store.
//
// The snapshot upsert engine is the only writer of market data, and the
// order repository is the only writer of orders; everything else is a
// read. Each snapshot batch is applied in a single transaction so
// readers never observe a partially-updated batch.
package store
