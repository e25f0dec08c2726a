package pointcloud

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/banshee-data/virtualloop/internal/httputil"
	"github.com/banshee-data/virtualloop/internal/monitoring"
)

// HTTPSource streams a live multipart feed from an HTTP endpoint. The client
// bounds the dial and response header waits but never the body, which is
// open-ended for the lifetime of the stream.
type HTTPSource struct {
	url    string
	client httputil.HTTPClient
}

// NewHTTPSource returns a source for the given stream URL.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{url: url, client: httputil.NewStreamingClient()}
}

// NewHTTPSourceWithClient returns a source using the supplied client, for
// tests and local loopback setups.
func NewHTTPSourceWithClient(url string, client httputil.HTTPClient) *HTTPSource {
	return &HTTPSource{url: url, client: client}
}

// Stream connects and feeds body chunks until EOF or cancellation.
func (s *HTTPSource) Stream(ctx context.Context, feed func([]byte)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream %s returned status %d", s.url, resp.StatusCode)
	}
	monitoring.Logf("pointcloud: connected to %s (%s)", s.url, resp.Header.Get("Content-Type"))

	buf := make([]byte, 64*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			feed(buf[:n])
		}
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read stream: %w", err)
		}
	}
}
