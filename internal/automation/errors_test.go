// File: internal/automation/errors_test.go
package automation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/igor20192/HumanFlow/internal/config"
)

func TestIsNetwork(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient", &TransientError{Op: "wait", Err: errors.New("slow")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("navigating: %w", context.DeadlineExceeded), true},
		{"chrome net code", errors.New("page load failed: net::ERR_NAME_NOT_RESOLVED"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"plain error", errors.New("element not interactable"), false},
		{"strict resolution", &StrictResolutionError{Selector: ".x", Count: 2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsNetwork(tc.err))
		})
	}
}

func TestRetryablePredicate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"strict resolution", &StrictResolutionError{Selector: ".btn", Count: 0}, false},
		{"wrapped strict", fmt.Errorf("clicking: %w", &StrictResolutionError{Selector: ".btn", Count: 3}), false},
		{"missing credentials", ErrMissingCredentials, false},
		{"config fault", &config.ConfigError{Field: "run.username", Reason: "required"}, false},
		{"canceled", context.Canceled, false},
		{"transient", &TransientError{Op: "wait", Err: errors.New("slow")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"unknown", errors.New("something odd"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Retryable(tc.err))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Contains(t, classify(&TransientError{Op: "nav", Err: errors.New("net::ERR_TIMED_OUT")}), "network error:")
	assert.Contains(t, classify(errors.New("bad state")), "error: bad state")
}
