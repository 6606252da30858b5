package netguard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warmpool/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVerifyDirectSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","query":"203.0.113.7","isp":"Example ISP","country":"Brazil","regionName":"Sao Paulo"}`))
	}))
	defer srv.Close()

	g := New(srv.URL, 5*time.Second, testLogger())
	res := g.Verify(context.Background(), nil)

	require.True(t, res.OK)
	assert.Equal(t, "203.0.113.7", res.IP)
	assert.Equal(t, "Example ISP", res.ISP)
	assert.Equal(t, "Brazil", res.Country)
	assert.False(t, res.ProxyUsed)
}

func TestVerifyLookupFailStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer srv.Close()

	g := New(srv.URL, 5*time.Second, testLogger())
	res := g.Verify(context.Background(), nil)

	assert.False(t, res.OK)
	assert.Contains(t, res.Err, "private range")
}

func TestVerifyNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := New(srv.URL, 5*time.Second, testLogger())
	res := g.Verify(context.Background(), nil)

	assert.False(t, res.OK)
	assert.Contains(t, res.Err, "429")
}

func TestVerifyMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	g := New(srv.URL, 5*time.Second, testLogger())
	res := g.Verify(context.Background(), nil)

	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Err)
}

func TestVerifyUnreachableEndpoint(t *testing.T) {
	g := New("http://127.0.0.1:1", 500*time.Millisecond, testLogger())
	res := g.Verify(context.Background(), nil)
	assert.False(t, res.OK)
}

func TestVerifyUnreachableProxy(t *testing.T) {
	g := New("http://ip-api.com/json", 500*time.Millisecond, testLogger())
	res := g.Verify(context.Background(), &store.Proxy{
		ID:     "p1",
		Host:   "127.0.0.1",
		Port:   1,
		Scheme: "http",
		Active: true,
	})
	assert.False(t, res.OK)
	assert.True(t, res.ProxyUsed)
}

func TestVerifyUnsupportedScheme(t *testing.T) {
	g := New("http://ip-api.com/json", time.Second, testLogger())
	res := g.Verify(context.Background(), &store.Proxy{ID: "p1", Host: "h", Port: 1, Scheme: "ftp"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Err, "unsupported proxy scheme")
}

func TestProxyURL(t *testing.T) {
	u, err := ProxyURL(&store.Proxy{ID: "p1", Host: "10.0.0.1", Port: 8080, Scheme: "http"})
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:8080", u.String())

	u, err = ProxyURL(&store.Proxy{ID: "p2", Host: "10.0.0.2", Port: 1080, Scheme: "socks5", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "socks5://u:p@10.0.0.2:1080", u.String())

	_, err = ProxyURL(&store.Proxy{ID: "p3", Scheme: "http"})
	assert.Error(t, err)
}
