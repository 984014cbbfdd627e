package fileio

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Remote fetches whole resources over HTTP with an optional bandwidth
// cap so live packaging inputs do not starve segment writes.
type Remote struct {
	client  *http.Client
	limiter *rate.Limiter
}

var defaultRemote = NewRemote(0)

// NewRemote creates a remote fetcher. bytesPerSec of 0 means unlimited.
func NewRemote(bytesPerSec int64) *Remote {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableCompression:    true, // media payloads are already compressed
		DialContext:           dialer.DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	r := &Remote{client: &http.Client{Transport: transport}}
	if bytesPerSec > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec))
	}
	return r
}

// Fetch downloads the full body of a URL.
func (r *Remote) Fetch(url string) ([]byte, error) {
	resp, err := r.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body := resp.Body
	if r.limiter != nil {
		body = &limitedReader{r: resp.Body, limiter: r.limiter}
	}
	return io.ReadAll(body)
}

// limitedReader throttles reads through a token bucket.
type limitedReader struct {
	r       io.ReadCloser
	limiter *rate.Limiter
}

func (l *limitedReader) Read(p []byte) (int, error) {
	// Cap the burst so a single read never exceeds the bucket.
	if burst := l.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.limiter.WaitN(context.Background(), n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

func (l *limitedReader) Close() error {
	return l.r.Close()
}
