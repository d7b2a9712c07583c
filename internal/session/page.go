// File: internal/session/page.go
// Description: chromedp-backed implementation of the page collaborator. Every
// bounded wait that runs out of time is surfaced as a TransientError so the
// phase-level retry policy can classify it.

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/igor20192/HumanFlow/internal/automation"
	"github.com/igor20192/HumanFlow/internal/config"
)

// Page drives one browsing tab. It implements automation.Page.
type Page struct {
	cfg     config.BrowserConfig
	logger  *zap.Logger
	watcher *netWatcher
}

// NewPage attaches network tracking to the tab and returns the page
// collaborator. The tab context must come from an acquired Session.
func NewPage(tabCtx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Page, error) {
	w := newNetWatcher(logger)
	w.attach(tabCtx)

	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		return nil, fmt.Errorf("enabling network tracking: %w", err)
	}
	return &Page{cfg: cfg, logger: logger.Named("page"), watcher: w}, nil
}

// Navigate loads the URL and waits for network quiescence.
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.logger.Info("Navigating", zap.String("url", url))

	nctx, cancel := context.WithTimeout(ctx, p.cfg.NavigationTimeout)
	defer cancel()

	if err := chromedp.Run(nctx, chromedp.Navigate(url)); err != nil {
		return p.classifyWait(ctx, nctx, "navigate to "+url, err)
	}
	return p.WaitQuiescence(ctx)
}

// Back navigates one history entry back and waits for quiescence.
func (p *Page) Back(ctx context.Context) error {
	nctx, cancel := context.WithTimeout(ctx, p.cfg.NavigationTimeout)
	defer cancel()

	if err := chromedp.Run(nctx, chromedp.NavigateBack()); err != nil {
		return p.classifyWait(ctx, nctx, "navigate back", err)
	}
	return p.WaitQuiescence(ctx)
}

// WaitQuiescence waits until no network activity has been pending for the
// configured quiet period, bounded by the navigation timeout.
func (p *Page) WaitQuiescence(ctx context.Context) error {
	qctx, cancel := context.WithTimeout(ctx, p.cfg.NavigationTimeout)
	defer cancel()

	if err := p.watcher.waitIdle(qctx, p.cfg.QuietPeriod); err != nil {
		return p.classifyWait(ctx, qctx, "wait for network quiescence", err)
	}
	return nil
}

// WaitVisible waits, bounded by the visibility timeout, for the selector to
// become visible.
func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	wctx, cancel := context.WithTimeout(ctx, p.cfg.VisibilityTimeout)
	defer cancel()

	if err := chromedp.Run(wctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return p.classifyWait(ctx, wctx, "wait for "+selector, err)
	}
	return nil
}

// Count returns how many elements currently match the selector, without
// waiting for a match to appear.
func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	cctx, cancel := context.WithTimeout(ctx, p.cfg.VisibilityTimeout)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(cctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return 0, p.classifyWait(ctx, cctx, "count "+selector, err)
	}
	return len(nodes), nil
}

// Text extracts the text of the first element matching the selector.
func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, p.cfg.VisibilityTimeout)
	defer cancel()

	var text string
	if err := chromedp.Run(tctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", p.classifyWait(ctx, tctx, "read text of "+selector, err)
	}
	return text, nil
}

// Location returns the current page URL.
func (p *Page) Location(ctx context.Context) (string, error) {
	var loc string
	if err := chromedp.Run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Screenshot captures the current viewport as PNG bytes.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	sctx, cancel := context.WithTimeout(ctx, p.cfg.NavigationTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(sctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, p.classifyWait(ctx, sctx, "capture screenshot", err)
	}
	return buf, nil
}

// classifyWait converts a bounded wait that ran out of time into a
// TransientError; caller cancellation and other failures pass through.
func (p *Page) classifyWait(parent, bounded context.Context, op string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || bounded.Err() != nil {
		return &automation.TransientError{Op: op, Err: err}
	}
	return err
}

// VisibilityTimeout exposes the configured per-wait bound, shared with the
// behavior simulator.
func (p *Page) VisibilityTimeout() time.Duration { return p.cfg.VisibilityTimeout }
