// Package httputil provides shared HTTP plumbing for the honeypot's
// outbound traffic: pooled clients per timeout tier, bounded body reads,
// and a semaphore that caps fire-and-forget callback goroutines.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize bounds HTTP response body reads. Evaluation endpoints
// answer with small JSON acknowledgements; anything bigger is suspect.
const MaxResponseSize = 1 * 1024 * 1024 // 1MB

// Shared transport with connection pooling; callbacks for many completed
// sessions reuse the same TCP connections.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier defines the standard timeout categories for outbound calls.
type TimeoutTier int

const (
	// TierFast for health checks and liveness probes (5s).
	TierFast TimeoutTier = iota
	// TierCallback for final-result callback delivery (10s).
	TierCallback
	// TierSlow for anything talking to slow external services (30s).
	TierSlow
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:     5 * time.Second,
	TierCallback: 10 * time.Second,
	TierSlow:     30 * time.Second,
}

// Singleton clients per tier, initialized once and reused everywhere.
var (
	clientFast     *http.Client
	clientCallback *http.Client
	clientSlow     *http.Client
	clientOnce     sync.Once
)

func initClients() {
	clientFast = &http.Client{
		Timeout:   timeoutDurations[TierFast],
		Transport: sharedTransport,
	}
	clientCallback = &http.Client{
		Timeout:   timeoutDurations[TierCallback],
		Transport: sharedTransport,
	}
	clientSlow = &http.Client{
		Timeout:   timeoutDurations[TierSlow],
		Transport: sharedTransport,
	}
}

// Client returns the shared HTTP client for the given timeout tier. Use
// these instead of constructing per-request http.Client values so the
// connection pool is actually shared.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	switch tier {
	case TierFast:
		return clientFast
	case TierCallback:
		return clientCallback
	case TierSlow:
		return clientSlow
	default:
		return clientCallback
	}
}

// CallbackClient returns the client tuned for final-result delivery.
func CallbackClient() *http.Client {
	return Client(TierCallback)
}

// ReadResponseBody reads an HTTP response body with a size cap so a
// misbehaving endpoint cannot balloon memory.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// DrainAndClose drains and closes a response body so the underlying
// connection returns to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
