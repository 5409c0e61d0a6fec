package utils

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/abesuite/go-socks/socks"
)

// ProxyConfig describes an optional SOCKS5 proxy.
type ProxyConfig struct {
	Addr     string
	User     string
	Pass     string
	Timeout  time.Duration
	Isolated bool
}

// NewHTTPClient returns an HTTP client that dials through the proxy when one
// is configured.
func NewHTTPClient(proxy *ProxyConfig, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil && proxy.Addr != "" {
		p := &socks.Proxy{
			Addr:         proxy.Addr,
			Username:     proxy.User,
			Password:     proxy.Pass,
			TorIsolation: proxy.Isolated,
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if proxy.Timeout > 0 {
				return p.DialTimeout(network, addr, proxy.Timeout)
			}
			return p.Dial(network, addr)
		}
		log.Debugf("Dialing through SOCKS5 proxy %v", proxy.Addr)
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
