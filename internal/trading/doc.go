// Package trading implements the order submission pipeline: validate
// the request, resolve fee settings and the caller's affiliate, compute
// the fee split, submit to the exchange, and persist the local order
// record.
//
// Validation and exchange rejections surface to the caller verbatim. A
// persistence failure after the exchange accepted the order cannot be
// rolled back; it is logged as a reconciliation gap and reported as
// ErrPersistFailed.
package trading
