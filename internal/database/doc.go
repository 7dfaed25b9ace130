// Package database builds the pgx connection pool for the local read
// store. Schema management is external; this package only connects.
package database
