package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// ServiceError wraps a provider failure. Transient errors (rate limits,
// timeouts, 5xx) may be retried by the caller; permanent ones must surface
// immediately.
type ServiceError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *ServiceError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("embedding %s: %s error: %v", e.Op, kind, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transient service error worth retrying.
func IsTransient(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Transient
	}
	return false
}

// classify wraps a provider error as a ServiceError, deciding transience from
// the error kind: HTTP 429/5xx and network timeouts are transient, a tripped
// circuit breaker is transient (it heals on its own), cancellation and
// everything else is permanent.
func classify(op string, err error) *ServiceError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Op: op, Transient: false, Err: err}
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &ServiceError{Op: op, Transient: true, Err: err}
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		transient := apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
		return &ServiceError{Op: op, Transient: transient, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ServiceError{Op: op, Transient: true, Err: err}
	}
	return &ServiceError{Op: op, Transient: false, Err: err}
}
