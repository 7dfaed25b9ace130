package exchange

import (
	"context"
	"net/http"
)

// SubmitOrder submits a signed order payload to the exchange.
//
// This call is never retried: a timeout or transport failure leaves the
// order in an unknown state on the exchange, and re-sending could
// double-submit. Non-2xx responses come back as *ExchangeError with the
// exchange's own body so the caller can show its rejection reason.
func (c *Client) SubmitOrder(ctx context.Context, order *OrderRequest) (*OrderResult, error) {
	var result OrderResult
	if err := c.doRequest(ctx, http.MethodPost, "/v1/orders", nil, order, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
