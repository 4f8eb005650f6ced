// Package transport provides the default ports.Transport adapter: a plain
// HTTPS POST to a fixed endpoint. The core treats transport as an
// out-of-scope collaborator (spec §1) — this package exists so the module
// is usable without the caller having to write their own adapter, following
// the teacher's buildHTTPClient (agent/internal/scraper/base.go), which
// builds one *http.Client per component and reuses it across calls.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rorandom/rorandom-go/internal/ports"
)

// HTTPTransport POSTs JSON-RPC request bodies to a fixed endpoint URL.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

// New builds an HTTPTransport targeting endpoint with the given per-request
// timeout. A zero timeout disables the client-side deadline (the caller's
// context still applies).
func New(endpoint string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Do implements ports.Transport.
func (t *HTTPTransport) Do(ctx context.Context, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ports.ErrMalformedRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("transport: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("transport: read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
