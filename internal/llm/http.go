package llm

import (
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds provider calls when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// EffectiveTimeout is the ceiling NewHTTPClient applies for a configured timeout.
func EffectiveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}

// NewHTTPClient returns a pooled HTTP client for provider calls. A zero timeout
// keeps the DefaultTimeout ceiling so a stuck provider never hangs a request forever.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32, // single provider host
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   EffectiveTimeout(timeout),
	}
}
