// File: internal/behavior/executor.go
package behavior

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// ElementGeometry represents the content box of a DOM element.
// Vertices are [x0, y0, x1, y1, x2, y2, x3, y3].
type ElementGeometry struct {
	Vertices []float64
	Width    int64
	Height   int64
}

// Center returns the centroid of the content box.
func (g *ElementGeometry) Center() (Vector2D, bool) {
	if g == nil || len(g.Vertices) < 8 {
		return Vector2D{}, false
	}
	cx := (g.Vertices[0] + g.Vertices[2] + g.Vertices[4] + g.Vertices[6]) / 4
	cy := (g.Vertices[1] + g.Vertices[3] + g.Vertices[5] + g.Vertices[7]) / 4
	return Vector2D{X: cx, Y: cy}, true
}

// Executor is the contract for the underlying browser automation layer. It
// keeps the simulation logic decoupled from chromedp and mockable in tests.
type Executor interface {
	// Sleep pauses execution, respecting context cancellation.
	Sleep(ctx context.Context, d time.Duration) error
	// DispatchMouseEvent sends a raw low-level mouse event.
	DispatchMouseEvent(ctx context.Context, p *input.DispatchMouseEventParams) error
	// SendKeys sends the given keys to the currently focused element.
	SendKeys(ctx context.Context, keys string) error
	// Focus gives keyboard focus to the first element matching the selector.
	Focus(ctx context.Context, selector string) error
	// WaitVisible blocks until the selector has a visible match or ctx ends.
	WaitVisible(ctx context.Context, selector string) error
	// CountNodes returns the number of elements matching the selector without
	// waiting for a match.
	CountNodes(ctx context.Context, selector string) (int, error)
	// ElementGeometry returns the content box of the first matching element.
	ElementGeometry(ctx context.Context, selector string) (*ElementGeometry, error)
	// Evaluate runs a JavaScript expression, discarding its result.
	Evaluate(ctx context.Context, expression string) error
}

// CDPExecutor is the production Executor backed by chromedp. The contexts it
// receives must carry a chromedp target.
type CDPExecutor struct{}

// NewCDPExecutor creates a production-ready executor.
func NewCDPExecutor() *CDPExecutor {
	return &CDPExecutor{}
}

func (e *CDPExecutor) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *CDPExecutor) DispatchMouseEvent(ctx context.Context, p *input.DispatchMouseEventParams) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		return p.Do(c)
	}))
}

func (e *CDPExecutor) SendKeys(ctx context.Context, keys string) error {
	return chromedp.Run(ctx, chromedp.SendKeys("document.activeElement", keys, chromedp.ByJSPath))
}

func (e *CDPExecutor) Focus(ctx context.Context, selector string) error {
	return chromedp.Run(ctx, chromedp.Focus(selector, chromedp.ByQuery))
}

func (e *CDPExecutor) WaitVisible(ctx context.Context, selector string) error {
	return chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (e *CDPExecutor) CountNodes(ctx context.Context, selector string) (int, error) {
	var nodes []*cdp.Node
	err := chromedp.Run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	return len(nodes), err
}

func (e *CDPExecutor) ElementGeometry(ctx context.Context, selector string) (*ElementGeometry, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	var box *dom.BoxModel
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var boxErr error
		box, boxErr = dom.GetBoxModel().WithNodeID(nodes[0].NodeID).Do(c)
		return boxErr
	}))
	if err != nil {
		return nil, err
	}
	return &ElementGeometry{Vertices: box.Content, Width: box.Width, Height: box.Height}, nil
}

func (e *CDPExecutor) Evaluate(ctx context.Context, expression string) error {
	return chromedp.Run(ctx, chromedp.Evaluate(expression, nil))
}
