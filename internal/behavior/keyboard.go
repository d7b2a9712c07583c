// File: internal/behavior/keyboard.go
package behavior

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Type resolves the selector strictly, focuses the field and emits the text
// one rune at a time, each rune followed by a uniform-random pause from the
// typing-delay range. Character order is preserved; runes are never batched.
func (s *Simulator) Type(ctx context.Context, selector, text string) error {
	// The hover-resolve chokepoint runs first so typing obeys the same
	// single-match invariant as clicking.
	if err := s.HoverAndResolve(ctx, selector); err != nil {
		return err
	}
	if err := s.exec.Focus(ctx, selector); err != nil {
		return fmt.Errorf("focusing %q: %w", selector, err)
	}

	s.logger.Debug("Typing into element",
		zap.String("selector", selector),
		zap.Int("length", len(text)),
	)

	for _, r := range text {
		if err := s.exec.SendKeys(ctx, string(r)); err != nil {
			return fmt.Errorf("sending key to %q: %w", selector, err)
		}
		pause := s.uniformDuration(s.tuning.MinTypingDelay, s.tuning.MaxTypingDelay)
		if err := s.exec.Sleep(ctx, pause); err != nil {
			return err
		}
	}
	return nil
}
