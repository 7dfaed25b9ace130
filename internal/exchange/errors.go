package exchange

import (
	"errors"
	"fmt"
)

// ErrTimeout reports that a request exceeded its hard deadline.
var ErrTimeout = errors.New("exchange request timed out")

// ExchangeError represents a non-2xx response from the exchange. The raw
// body is preserved so callers can surface exchange-specific rejection
// reasons verbatim.
type ExchangeError struct {
	StatusCode int
	Body       []byte
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange error %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError reports a 2xx response whose body could not be
// decoded.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed exchange response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
