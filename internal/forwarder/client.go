package forwarder

import (
	"net"
	"net/http"
	"time"
)

// NewTransport returns the outbound transport shared by every forwarded
// request. It is safe for concurrent use.
//
// Proxy is nil so HTTP_PROXY and friends are never consulted, and compression
// is disabled so response bytes are relayed exactly as the destination sent
// them. A bare RoundTripper follows no redirects and keeps no cookies.
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
	}
}

// NewClient wraps transport in an http.Client with the same policy: redirects
// are returned to the caller as-is and no cookie jar is attached.
func NewClient(transport http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		Jar:       nil,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
