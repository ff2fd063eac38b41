package httptask

import (
	"net"
	"net/http"
	"runtime"
	"time"
)

// NewTransport returns an *http.Transport tuned for a load run with up to
// maxParallel concurrent virtual users against a single target host.
//
// The connection pool is sized past the worker count so a connection
// released by one worker is immediately reusable by another even when
// re-pooling is asynchronous. If the target sits behind a load balancer
// that pins connections, long-lived pools can stop load from spreading to
// newly scaled-out backends; the short idle timeout here forces periodic
// reconnects to limit that.
func NewTransport(maxParallel int) *http.Transport {
	maxConnections := maxParallel + runtime.NumCPU()

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 15 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxConnections,
		IdleConnTimeout:       20 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   maxConnections,
		MaxConnsPerHost:       maxConnections,
	}
}
