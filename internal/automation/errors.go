// File: internal/automation/errors.go
package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/igor20192/HumanFlow/internal/config"
)

// ErrMissingCredentials is returned when login is attempted without
// credentials. It is a configuration fault and is never retried.
var ErrMissingCredentials = errors.New("credentials are required")

// TransientError marks a failure that is likely to succeed on an unmodified
// retry: visibility or navigation timeouts, connectivity hiccups.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// StrictResolutionError reports a selector that resolved to a number of
// elements other than exactly one. Retrying the same selector against the same
// DOM state will not self-correct, so it is never retried.
type StrictResolutionError struct {
	Selector string
	Count    int
}

func (e *StrictResolutionError) Error() string {
	return fmt.Sprintf("selector %q resolved to %d elements, expected exactly 1", e.Selector, e.Count)
}

// IsTransient reports whether the error chain contains a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsStrict reports whether the error chain contains a StrictResolutionError.
func IsStrict(err error) bool {
	var se *StrictResolutionError
	return errors.As(err, &se)
}

// IsNetwork classifies an error as network-origin: wait timeouts, Chrome
// net::ERR codes and plain connectivity failures all count.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	if IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "net::ERR") || strings.Contains(msg, "connection refused")
}

// Retryable is the retry predicate for phase-level operations. Everything is
// retryable except correctness and configuration faults.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if IsStrict(err) {
		return false
	}
	if errors.Is(err, ErrMissingCredentials) {
		return false
	}
	var ce *config.ConfigError
	if errors.As(err, &ce) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
