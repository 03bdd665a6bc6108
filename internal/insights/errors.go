package insights

import (
	"errors"
	"fmt"
)

// Fallback reasons reported by the guard and recorded in metrics.
const (
	ReasonTimeout     = "timeout"
	ReasonQuota       = "quota"
	ReasonUnavailable = "unavailable"
	ReasonRejected    = "rejected"
	ReasonMalformed   = "malformed"
	ReasonPartial     = "partial"
	ReasonDisabled    = "disabled"
)

// ExternalServiceError is returned by insight providers. Transient errors may
// succeed on retry; all others are permanent for the given request.
type ExternalServiceError struct {
	Provider  string
	Reason    string
	Transient bool
	Err       error
}

func (e *ExternalServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("insight provider %s: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("insight provider %s: %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a retryable provider failure.
func NewTransientError(provider, reason string, err error) error {
	return &ExternalServiceError{Provider: provider, Reason: reason, Transient: true, Err: err}
}

// NewFatalError wraps err as a non-retryable provider failure.
func NewFatalError(provider, reason string, err error) error {
	return &ExternalServiceError{Provider: provider, Reason: reason, Err: err}
}

// IsTransient returns true if err is a retryable provider failure.
func IsTransient(err error) bool {
	var e *ExternalServiceError
	return errors.As(err, &e) && e.Transient
}

// reasonOf extracts the fallback reason from a provider error.
func reasonOf(err error) string {
	var e *ExternalServiceError
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	return ReasonUnavailable
}
