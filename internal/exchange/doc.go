// Package exchange provides the HTTP client for the off-chain matching
// engine (the CLOB) that owns authoritative prices and trade execution.
//
// Endpoints:
//   - GET  /book?token_id=<id>                      order book display
//   - GET  /v1/conditions?ids=<csv>&recent_trades_limit=<n>  batched snapshots
//   - POST /v1/orders                               order submission (X-API-Key)
//
// Every call enforces a hard per-request timeout. The client performs no
// retries: retry policy for snapshot fetches belongs to the sync layer,
// and order submission is never re-sent to avoid double-submission.
package exchange
