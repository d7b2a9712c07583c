// File: internal/behavior/simulator.go
// Description: Human-plausible pacing and motion around primitive UI actions.
// Every click and type action funnels through HoverAndResolve, which enforces
// the strict single-match invariant before anything touches the page.

package behavior

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"go.uber.org/zap"

	"github.com/igor20192/HumanFlow/internal/automation"
	"github.com/igor20192/HumanFlow/internal/config"
)

// moveSteps is the base number of interpolation steps for a pointer path.
const moveSteps = 10

// Simulator produces human-like timing and motion for primitive UI actions.
// It is owned by a single run and is not safe for concurrent phases, which the
// engine never executes anyway; the mutex only guards the tracked pointer
// state against executor callbacks.
type Simulator struct {
	exec              Executor
	tuning            config.SimulationConfig
	visibilityTimeout time.Duration
	logger            *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	pos Vector2D
}

// New creates a Simulator. A nil rng means a time-seeded source; tests inject
// a deterministic one.
func New(exec Executor, tuning config.SimulationConfig, visibilityTimeout time.Duration, logger *zap.Logger, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		exec:              exec,
		tuning:            tuning,
		visibilityTimeout: visibilityTimeout,
		logger:            logger.Named("behavior"),
		rng:               rng,
	}
}

// Delay suspends for a duration drawn uniformly from the action-delay range.
func (s *Simulator) Delay(ctx context.Context) error {
	d := s.uniformDuration(s.tuning.MinActionDelay, s.tuning.MaxActionDelay)
	s.logger.Debug("Applying action delay", zap.Duration("delay", d))
	return s.exec.Sleep(ctx, d)
}

// MoveTo moves the virtual pointer to absolute coordinates along a multi-step
// interpolated path with slight jitter, then applies Delay.
func (s *Simulator) MoveTo(ctx context.Context, x, y float64) error {
	if err := s.moveAlongPath(ctx, Vector2D{X: x, Y: y}); err != nil {
		return err
	}
	return s.Delay(ctx)
}

// Scroll scrolls to the end of the document, pauses, and scrolls back to the
// origin.
func (s *Simulator) Scroll(ctx context.Context) error {
	s.logger.Debug("Performing human-like scroll")
	if err := s.exec.Evaluate(ctx, "window.scrollTo(0, document.body.scrollHeight)"); err != nil {
		return err
	}
	if err := s.Delay(ctx); err != nil {
		return err
	}
	return s.exec.Evaluate(ctx, "window.scrollTo(0, 0)")
}

// HoverAndResolve resolves the selector to exactly one visible element,
// hovers the pointer over it and applies Delay. Zero or multiple matches fail
// with a StrictResolutionError; visibility timeouts with a TransientError.
func (s *Simulator) HoverAndResolve(ctx context.Context, selector string) error {
	center, err := s.resolve(ctx, selector)
	if err != nil {
		return err
	}
	s.logger.Debug("Hovering over element", zap.String("selector", selector))
	if err := s.moveAlongPath(ctx, center); err != nil {
		return err
	}
	return s.Delay(ctx)
}

// Click hover-resolves the selector, then presses and releases the primary
// button over it with a short hold.
func (s *Simulator) Click(ctx context.Context, selector string) error {
	if err := s.HoverAndResolve(ctx, selector); err != nil {
		return err
	}

	s.mu.Lock()
	pos := s.pos
	hold := time.Duration(50+s.rng.Intn(70)) * time.Millisecond
	s.mu.Unlock()

	s.logger.Debug("Clicking element", zap.String("selector", selector))
	press := input.DispatchMouseEvent(input.MousePressed, pos.X, pos.Y).
		WithButton(input.Left).
		WithClickCount(1)
	if err := s.exec.DispatchMouseEvent(ctx, press); err != nil {
		return err
	}
	if err := s.exec.Sleep(ctx, hold); err != nil {
		return err
	}
	release := input.DispatchMouseEvent(input.MouseReleased, pos.X, pos.Y).
		WithButton(input.Left).
		WithClickCount(1)
	return s.exec.DispatchMouseEvent(ctx, release)
}

// resolve waits for the selector to become visible within the configured
// timeout and enforces the exactly-one-match invariant. It returns the center
// of the single match.
func (s *Simulator) resolve(ctx context.Context, selector string) (Vector2D, error) {
	wctx, cancel := context.WithTimeout(ctx, s.visibilityTimeout)
	defer cancel()

	if err := s.exec.WaitVisible(wctx, selector); err != nil {
		if ctx.Err() != nil {
			return Vector2D{}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || wctx.Err() != nil {
			return Vector2D{}, &automation.TransientError{Op: "wait for " + selector, Err: err}
		}
		return Vector2D{}, fmt.Errorf("waiting for selector %q: %w", selector, err)
	}

	count, err := s.exec.CountNodes(ctx, selector)
	if err != nil {
		return Vector2D{}, fmt.Errorf("counting matches for %q: %w", selector, err)
	}
	if count != 1 {
		return Vector2D{}, &automation.StrictResolutionError{Selector: selector, Count: count}
	}

	geo, err := s.exec.ElementGeometry(ctx, selector)
	if err != nil {
		return Vector2D{}, fmt.Errorf("resolving geometry for %q: %w", selector, err)
	}
	center, ok := geo.Center()
	if !ok {
		return Vector2D{}, fmt.Errorf("element %q has invalid geometry", selector)
	}
	return center, nil
}

// moveAlongPath dispatches a sequence of interpolated mouse-move events from
// the current tracked position to the target.
func (s *Simulator) moveAlongPath(ctx context.Context, target Vector2D) error {
	s.mu.Lock()
	start := s.pos
	jitterSteps := s.rng.Intn(6)
	s.mu.Unlock()

	// The step count grows with the hop distance, keeping pointer speed in a
	// plausible band.
	steps := moveSteps + int(start.Dist(target)/200) + jitterSteps

	delta := target.Sub(start)
	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		point := start.Add(delta.Mul(frac))

		s.mu.Lock()
		// Jitter every intermediate point; land exactly on the target.
		if i < steps {
			point.X += s.rng.NormFloat64() * 1.5
			point.Y += s.rng.NormFloat64() * 1.5
		}
		pause := time.Duration(5+s.rng.Intn(12)) * time.Millisecond
		s.mu.Unlock()

		move := input.DispatchMouseEvent(input.MouseMoved, point.X, point.Y)
		if err := s.exec.DispatchMouseEvent(ctx, move); err != nil {
			return err
		}

		s.mu.Lock()
		s.pos = point
		s.mu.Unlock()

		if err := s.exec.Sleep(ctx, pause); err != nil {
			return err
		}
	}
	return nil
}

// uniformDuration draws a duration uniformly from [min, max].
func (s *Simulator) uniformDuration(min, max time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if max <= min {
		return min
	}
	return min + time.Duration(s.rng.Int63n(int64(max-min)+1))
}
