// =============================================================================
// Bulk Poster - Transport Module
// =============================================================================
//
// The transport sends a submission document to a remote endpoint and returns
// the raw status code and body. It never interprets either; mapping a status
// to an outcome belongs to the caller.
//
// BEHAVIOR:
//   - One POST per call, never retried
//   - TLS is used when the URL scheme is https
//   - The request honors both the context and the client timeout
//
// =============================================================================

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ContentType is sent with every submission.
const ContentType = "application/x-www-form-urlencoded"

// DefaultTimeout bounds a single submission when none is configured.
const DefaultTimeout = 60 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// Transport posts a document and reports what came back. A non-nil error
// means no HTTP response was received at all.
type Transport interface {
	Post(ctx context.Context, url, contentType string, body []byte) (status int, respBody []byte, err error)
}

// HTTP is the net/http implementation of Transport.
type HTTP struct {
	hc *http.Client
}

// NewHTTP builds an HTTP transport. A zero timeout selects DefaultTimeout.
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTP{hc: &http.Client{Timeout: timeout}}
}

// NewHTTPWithClient wraps an existing client.
func NewHTTPWithClient(hc *http.Client) *HTTP {
	return &HTTP{hc: hc}
}

// Post implements Transport.
func (t *HTTP) Post(ctx context.Context, url, contentType string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to post to %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	return resp.StatusCode, respBody, nil
}
