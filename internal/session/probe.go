// File: internal/session/probe.go
package session

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"github.com/igor20192/HumanFlow/internal/config"
)

const (
	// probeURL is a lightweight endpoint that echoes the caller's IP, which
	// also confirms the exit address when routing through the proxy.
	probeURL = "http://ipinfo.io/ip"
	// probeTimeout bounds the single outbound reachability request.
	probeTimeout = 5 * time.Second
)

// ProbeProxy makes one bounded request through the candidate proxy. An error
// means the proxy is unreachable and no browsing session should be created.
func ProbeProxy(ctx context.Context, p config.ProxyConfig, logger *zap.Logger) error {
	transport, err := probeTransport(p)
	if err != nil {
		return err
	}

	logger.Info("Testing proxy connectivity", zap.String("server", p.Server))

	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}

	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("proxy connectivity test failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return fmt.Errorf("reading probe response: %w", err)
	}

	logger.Info("Proxy connectivity successful", zap.String("exit_ip", strings.TrimSpace(string(body))))
	return nil
}

// probeTransport builds an http.Transport routed through the proxy. SOCKS5
// servers (e.g. a local Tor daemon) get a dedicated dialer; HTTP proxies go
// through the standard proxy support with optional basic auth.
func probeTransport(p config.ProxyConfig) (*http.Transport, error) {
	u, err := url.Parse(p.Server)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy server URL %q: %w", p.Server, err)
	}

	if strings.HasPrefix(u.Scheme, "socks5") {
		var auth *proxy.Auth
		if p.Username != "" {
			auth = &proxy.Auth{User: p.Username, Password: p.Password}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("building socks5 dialer: %w", err)
		}
		return &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}, nil
	}

	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return &http.Transport{Proxy: http.ProxyURL(u)}, nil
}
