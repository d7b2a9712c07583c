// File: internal/automation/retry.go
package automation

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Default retry parameters for phase-level operations.
const (
	DefaultAttempts = 3
	DefaultWait     = 2 * time.Second
)

// Retry re-invokes op from its start on retryable failures, waiting a fixed
// interval between attempts. The wrapped operation must therefore be safe to
// restart: it re-checks page state rather than assuming prior partial
// progress. After the attempt budget is exhausted the last error propagates
// unchanged in kind; a non-retryable error aborts immediately.
func Retry(ctx context.Context, logger *zap.Logger, name string, attempts int, wait time.Duration, retryable func(error) bool, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("Operation succeeded after retry",
					zap.String("operation", name),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}

		if !retryable(lastErr) {
			logger.Error("Operation failed with a non-retryable error",
				zap.String("operation", name),
				zap.Error(lastErr),
			)
			return lastErr
		}

		if attempt < attempts {
			logger.Warn("Operation failed, retrying",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Duration("wait", wait),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	logger.Error("Operation failed after exhausting retries",
		zap.String("operation", name),
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)
	return lastErr
}
