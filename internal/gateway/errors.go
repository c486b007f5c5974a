package gateway

import (
	"errors"
	"fmt"
)

// ErrEmptyDestination is returned when normalization leaves no digits to
// send to.
var ErrEmptyDestination = errors.New("empty destination")

// ProviderError reports a non-success HTTP response from the messaging
// provider. It carries the provider's reported reason so callers can log it;
// callers decide whether to retry, the gateway never does.
type ProviderError struct {
	StatusCode int
	Reason     string
}

func (e *ProviderError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("provider rejected send: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("provider rejected send: HTTP %d: %s", e.StatusCode, e.Reason)
}

// IsProviderError reports whether err is a provider rejection and returns it.
func IsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
