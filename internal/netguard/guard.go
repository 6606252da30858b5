// Package netguard verifies that an egress path (direct or via a proxy)
// actually reaches the outside world, and reports the external identity it
// presents. The connection manager consults it before binding a protocol
// session to the path.
package netguard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	xproxy "golang.org/x/net/proxy"

	"warmpool/internal/store"
)

// Result is the discriminated outcome of a verification probe. Verify never
// returns a Go error; callers branch on OK.
type Result struct {
	OK        bool   `json:"ok"`
	IP        string `json:"ip,omitempty"`
	ISP       string `json:"isp,omitempty"`
	Country   string `json:"country,omitempty"`
	Region    string `json:"region,omitempty"`
	ProxyUsed bool   `json:"proxy_used"`
	Err       string `json:"error,omitempty"`
}

// Guard performs identity-lookup probes through configurable egress paths.
type Guard struct {
	lookupURL string
	timeout   time.Duration
	log       *slog.Logger
}

// New creates a Guard probing the given identity-lookup endpoint. The
// endpoint is expected to answer with the ip-api.com JSON shape.
func New(lookupURL string, timeout time.Duration, log *slog.Logger) *Guard {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Guard{
		lookupURL: lookupURL,
		timeout:   timeout,
		log:       log.With("component", "netguard"),
	}
}

// lookupResponse is the subset of the ip-api.com payload the guard reads.
type lookupResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Query   string `json:"query"`
	ISP     string `json:"isp"`
	Country string `json:"country"`
	Region  string `json:"regionName"`
}

// Verify probes the identity-lookup endpoint through the given proxy, or
// directly when proxy is nil. One bounded external request per call; the
// manager invokes it once per open attempt, never on status polls.
func (g *Guard) Verify(ctx context.Context, proxy *store.Proxy) Result {
	client, err := g.buildClient(proxy)
	if err != nil {
		return Result{OK: false, ProxyUsed: proxy != nil, Err: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.lookupURL, nil)
	if err != nil {
		return Result{OK: false, ProxyUsed: proxy != nil, Err: err.Error()}
	}

	resp, err := client.Do(req)
	if err != nil {
		g.log.Warn("identity probe failed", "proxy", redacted(proxy), "error", err)
		return Result{OK: false, ProxyUsed: proxy != nil, Err: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{
			OK:        false,
			ProxyUsed: proxy != nil,
			Err:       fmt.Sprintf("identity service returned %d", resp.StatusCode),
		}
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{OK: false, ProxyUsed: proxy != nil, Err: fmt.Sprintf("malformed lookup payload: %v", err)}
	}

	if payload.Status == "fail" {
		return Result{OK: false, ProxyUsed: proxy != nil, Err: fmt.Sprintf("ip lookup failed: %s", payload.Message)}
	}

	return Result{
		OK:        true,
		IP:        payload.Query,
		ISP:       payload.ISP,
		Country:   payload.Country,
		Region:    payload.Region,
		ProxyUsed: proxy != nil,
	}
}

// buildClient constructs an HTTP client routed through the proxy descriptor.
func (g *Guard) buildClient(p *store.Proxy) (*http.Client, error) {
	if p == nil {
		return &http.Client{Timeout: g.timeout}, nil
	}

	switch p.Scheme {
	case "http", "https":
		u, err := ProxyURL(p)
		if err != nil {
			return nil, err
		}
		return &http.Client{
			Timeout:   g.timeout,
			Transport: &http.Transport{Proxy: http.ProxyURL(u)},
		}, nil

	case "socks4", "socks5":
		var auth *xproxy.Auth
		if p.Username != "" {
			auth = &xproxy.Auth{User: p.Username, Password: p.Password}
		}
		// x/net speaks SOCKS5 only; a socks4-only server fails the probe
		// handshake and is reported as an unreachable path.
		dialer, err := xproxy.SOCKS5("tcp", net.JoinHostPort(p.Host, fmt.Sprint(p.Port)), auth, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to build socks dialer: %w", err)
		}
		transport := &http.Transport{}
		if cd, ok := dialer.(xproxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
		return &http.Client{Timeout: g.timeout, Transport: transport}, nil

	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", p.Scheme)
	}
}

// ProxyURL renders the descriptor as a URL suitable for transport
// construction and for the protocol client's proxy binding.
func ProxyURL(p *store.Proxy) (*url.URL, error) {
	if p.Host == "" || p.Port == 0 {
		return nil, fmt.Errorf("proxy %s has no host/port", p.ID)
	}
	u := &url.URL{
		Scheme: p.Scheme,
		Host:   net.JoinHostPort(p.Host, fmt.Sprint(p.Port)),
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u, nil
}

// redacted renders a proxy address for logs without credentials.
func redacted(p *store.Proxy) string {
	if p == nil {
		return "direct"
	}
	return fmt.Sprintf("%s://%s", p.Scheme, net.JoinHostPort(p.Host, fmt.Sprint(p.Port)))
}
