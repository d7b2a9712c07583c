// File: internal/session/quiesce.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// netWatcher tracks in-flight network requests for one browsing tab so waits
// can detect network quiescence after a navigation.
type netWatcher struct {
	logger *zap.Logger

	mu       sync.RWMutex
	inflight map[network.RequestID]struct{}
}

func newNetWatcher(logger *zap.Logger) *netWatcher {
	return &netWatcher{
		logger:   logger.Named("netwatch"),
		inflight: make(map[network.RequestID]struct{}),
	}
}

// attach subscribes to the tab's network events. The listener lives as long
// as the tab context.
func (w *netWatcher) attach(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			w.mu.Lock()
			w.inflight[e.RequestID] = struct{}{}
			w.mu.Unlock()
		case *network.EventLoadingFinished:
			w.mu.Lock()
			delete(w.inflight, e.RequestID)
			w.mu.Unlock()
		case *network.EventLoadingFailed:
			w.mu.Lock()
			delete(w.inflight, e.RequestID)
			w.mu.Unlock()
		}
	})
}

// waitIdle polls until no request has been in flight for the whole quiet
// period, or the context ends.
func (w *netWatcher) waitIdle(ctx context.Context, quietPeriod time.Duration) error {
	// The ticker interval must stay positive even for degenerate quiet periods.
	interval := quietPeriod / 2
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastActivity := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.mu.RLock()
			inflight := len(w.inflight)
			w.mu.RUnlock()

			if inflight > 0 {
				lastActivity = time.Now()
				w.logger.Debug("Waiting for network idle", zap.Int("inflight", inflight))
			} else if time.Since(lastActivity) >= quietPeriod {
				return nil
			}
		}
	}
}
