package reservations

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned when the reservation source has no endpoint or
// credentials. It is never retryable.
var ErrNotConfigured = errors.New("reservations: source not configured")

// ErrPageBudgetExceeded is wrapped in an UpstreamError when a fetch needs more
// pages than the configured ceiling.
var ErrPageBudgetExceeded = errors.New("reservations: page budget exceeded")

// UpstreamError reports a failed exchange with the reservation source: a
// transport failure, a non-success status or a body that does not decode.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("reservations: %s: upstream status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("reservations: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Retryable reports whether the caller may reasonably retry. Transport errors,
// throttling and 5xx responses qualify; malformed bodies and 4xx do not.
func (e *UpstreamError) Retryable() bool {
	if errors.Is(e.Err, ErrPageBudgetExceeded) || errors.Is(e.Err, errMalformedBody) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

var errMalformedBody = errors.New("malformed response body")

// IsConfigError reports whether err stems from missing source configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsUpstreamError reports whether err stems from the reservation source itself.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
