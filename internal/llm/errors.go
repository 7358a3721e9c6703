package llm

import (
	"errors"
	"fmt"
	"time"
)

// TimeoutError indicates the completion call exceeded its deadline and was
// cancelled. The in-flight request does not outlive the error.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("completion timed out after %s", e.Elapsed)
}

// UpstreamError indicates the completion provider returned a failure.
// StatusCode is the HTTP status (or nearest equivalent for gRPC transports),
// so callers can distinguish transient 5xx from permanent 4xx.
type UpstreamError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream error (status %d): %s: %v", e.StatusCode, e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Transient reports whether the failure is worth retrying by a caller.
func (e *UpstreamError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// AuthError indicates the provider rejected our credentials. Operator-correctable;
// retrying without a configuration change cannot succeed.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}
