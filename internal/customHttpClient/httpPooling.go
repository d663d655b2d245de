package customHttpClient

import (
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/ResumeRAG/internal/config"
)

var (
	transportOnce   sync.Once
	customTransport *http.Transport
)

// Transport is shared by every tool client so repeated calls to the same
// host reuse connections.
func Transport() *http.Transport {
	transportOnce.Do(func() {
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.MaxIdleConns = config.MaxIdleConns
		base.MaxIdleConnsPerHost = config.MaxIdleConnsPerHost
		base.IdleConnTimeout = config.IdleConnTimeout
		customTransport = base
	})
	return customTransport
}

// NewClient returns a client on the pooled transport. timeout <= 0 uses
// config.ToolRequestTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = config.ToolRequestTimeout
	}
	return &http.Client{
		Transport: Transport(),
		Timeout:   timeout,
	}
}
