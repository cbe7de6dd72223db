package translate

import (
	"context"
	"errors"
	"fmt"
	"net"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// ValidationError rejects input before any provider call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Reason
}

// ServiceError wraps a chat provider failure.
type ServiceError struct {
	Transient bool
	Err       error
}

func (e *ServiceError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("translation: %s error: %v", kind, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func classify(err error) *ServiceError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ServiceError{Transient: false, Err: err}
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &ServiceError{Transient: true, Err: err}
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		transient := apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
		return &ServiceError{Transient: transient, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ServiceError{Transient: true, Err: err}
	}
	return &ServiceError{Transient: false, Err: err}
}
