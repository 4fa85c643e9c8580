package reviews

import (
	"errors"
	"fmt"
)

// TransportError indicates the reviews API could not be reached or answered
// with a server-side failure: connection refused, DNS failure, TLS failure,
// or a 5xx response. It counts toward the circuit breaker threshold.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("reviews api transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError indicates the configured request timeout elapsed before the
// reviews API responded. It counts toward the circuit breaker threshold.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("reviews api timeout during %s: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// MalformedResponseError indicates the reviews API answered but the payload
// violated the data contract: undecodable body, missing required fields, or
// values outside their valid ranges. It signals a contract bug rather than
// an outage, so it does NOT count toward the circuit breaker threshold.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed reviews api response: %s: %v", e.Reason, e.Err)
	}
	return "malformed reviews api response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsAvailabilityError reports whether err signals that the reviews API is
// unavailable (transport or timeout failure).
func IsAvailabilityError(err error) bool {
	var transportErr *TransportError
	var timeoutErr *TimeoutError
	return errors.As(err, &transportErr) || errors.As(err, &timeoutErr)
}
