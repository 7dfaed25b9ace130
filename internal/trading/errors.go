package trading

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated reports a missing or unresolved user session.
var ErrUnauthenticated = errors.New("authentication required")

// ErrPersistFailed reports that the exchange accepted the order but the
// local record could not be written. The trade has already executed.
var ErrPersistFailed = errors.New("order accepted but not recorded")

// ValidationError reports the first invalid field of an order request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
