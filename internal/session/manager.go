// File: internal/session/manager.go
// Description: Scoped acquisition and release of the browsing environment. On
// entry the optional proxy is probed, the Chrome allocator is started and a
// fresh browsing context is handed to the caller; Release tears everything
// down in reverse order of acquisition, exactly once, on every exit path.

package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/igor20192/HumanFlow/internal/config"
)

// Manager acquires browsing sessions according to configuration.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewManager creates a session manager.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger.Named("session")}
}

// Session is one acquired browsing environment: a running Chrome with a fresh
// tab context. Release is safe to call more than once.
type Session struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	releaseOnce   sync.Once
	logger        *zap.Logger
}

// Context returns the tab context all page operations run against.
func (s *Session) Context() context.Context { return s.ctx }

// Release shuts the browser and the allocator down in reverse order of
// acquisition. Guaranteed to run its teardown at most once.
func (s *Session) Release() {
	s.releaseOnce.Do(func() {
		s.logger.Info("Releasing browsing session")
		s.cancelBrowser()
		s.cancelAlloc()
	})
}

// Acquire verifies proxy reachability when one is configured, starts Chrome
// and returns a fresh browsing context. A failed probe fails fast: no
// browsing session is created.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	if m.cfg.Proxy.Enabled() {
		if err := ProbeProxy(ctx, m.cfg.Proxy, m.logger); err != nil {
			return nil, fmt.Errorf("proxy unreachable: %w", err)
		}
	} else {
		m.logger.Info("No proxy configured, skipping connectivity test")
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, m.allocatorOptions()...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(m.logger.Sugar().Debugf),
		chromedp.WithErrorf(m.logger.Sugar().Errorf),
	)

	// Run with no actions forces the browser to actually start.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	if m.cfg.Proxy.Enabled() && m.cfg.Proxy.Username != "" {
		if err := m.enableProxyAuth(browserCtx); err != nil {
			cancelBrowser()
			cancelAlloc()
			return nil, fmt.Errorf("enabling proxy authentication: %w", err)
		}
	}

	m.logger.Info("Browsing session acquired",
		zap.Bool("headless", m.cfg.Browser.Headless),
		zap.String("proxy", m.cfg.Proxy.Server),
	)
	return &Session{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		logger:        m.logger,
	}, nil
}

// allocatorOptions translates the browser configuration into chromedp
// allocator options.
func (m *Manager) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	if m.cfg.Browser.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if m.cfg.Browser.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}
	if m.cfg.Proxy.Enabled() {
		opts = append(opts, chromedp.ProxyServer(m.cfg.Proxy.Server))
	}

	for _, arg := range m.cfg.Browser.Args {
		if !strings.Contains(arg, "=") {
			if !strings.HasPrefix(arg, "--") {
				arg = "--" + arg
			}
			opts = append(opts, chromedp.Flag(arg, true))
			continue
		}
		parts := strings.SplitN(arg, "=", 2)
		key := parts[0]
		if !strings.HasPrefix(key, "--") {
			key = "--" + key
		}
		opts = append(opts, chromedp.Flag(key, parts[1]))
	}
	return opts
}

// enableProxyAuth answers the proxy's auth challenges with the configured
// credentials via the fetch domain.
func (m *Manager) enableProxyAuth(browserCtx context.Context) error {
	username := m.cfg.Proxy.Username
	password := m.cfg.Proxy.Password

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventAuthRequired:
			go func() {
				resp := &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: username,
					Password: password,
				}
				err := chromedp.Run(browserCtx, fetch.ContinueWithAuth(e.RequestID, resp))
				if err != nil {
					m.logger.Warn("Failed to answer proxy auth challenge", zap.Error(err))
				}
			}()
		case *fetch.EventRequestPaused:
			go func() {
				err := chromedp.Run(browserCtx, fetch.ContinueRequest(e.RequestID))
				if err != nil {
					m.logger.Debug("Failed to continue paused request", zap.Error(err))
				}
			}()
		}
	})

	return chromedp.Run(browserCtx, fetch.Enable().WithHandleAuthRequests(true))
}
