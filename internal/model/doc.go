// Package model defines the domain types shared across the market-data
// service.
//
// Conventions:
//   - Prices, sizes and volumes: decimal.Decimal (stored as NUMERIC).
//     Optional prices use decimal.NullDecimal.
//   - Fee rates: integer basis points (1 bps = 0.01%).
//   - Timestamps: time.Time in UTC; the zero value means "not provided".
//   - IDs: strings for condition/token identifiers (0x-prefixed hex from
//     the exchange), int64 for local user/order rows.
package model
