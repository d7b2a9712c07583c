// File: internal/behavior/mocks_test.go
package behavior

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
)

// mockExecutor records every primitive the simulator dispatches and returns
// scripted results, keeping the tests free of a real browser.
type mockExecutor struct {
	mu sync.Mutex

	sleeps      []time.Duration
	mouseEvents []*input.DispatchMouseEventParams
	keys        []string
	focused     []string
	evals       []string

	waitVisibleErr error
	countResult    int
	countErr       error
	geometry       *ElementGeometry
	geometryErr    error
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		countResult: 1,
		geometry: &ElementGeometry{
			// A 100x40 box with its top-left corner at (100, 200).
			Vertices: []float64{100, 200, 200, 200, 200, 240, 100, 240},
			Width:    100,
			Height:   40,
		},
	}
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	return ctx.Err()
}

func (m *mockExecutor) DispatchMouseEvent(ctx context.Context, p *input.DispatchMouseEventParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mouseEvents = append(m.mouseEvents, p)
	return nil
}

func (m *mockExecutor) SendKeys(ctx context.Context, keys string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, keys)
	return nil
}

func (m *mockExecutor) Focus(ctx context.Context, selector string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = append(m.focused, selector)
	return nil
}

func (m *mockExecutor) WaitVisible(ctx context.Context, selector string) error {
	return m.waitVisibleErr
}

func (m *mockExecutor) CountNodes(ctx context.Context, selector string) (int, error) {
	return m.countResult, m.countErr
}

func (m *mockExecutor) ElementGeometry(ctx context.Context, selector string) (*ElementGeometry, error) {
	return m.geometry, m.geometryErr
}

func (m *mockExecutor) Evaluate(ctx context.Context, expression string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evals = append(m.evals, expression)
	return nil
}

func (m *mockExecutor) eventsOfType(t input.MouseType) []*input.DispatchMouseEventParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*input.DispatchMouseEventParams
	for _, ev := range m.mouseEvents {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
