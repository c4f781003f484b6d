// Package remote implements the policy and environment boundaries over
// HTTP. A rollout typically pairs a policy inference server with a
// simulator bridge; both speak a small JSON protocol.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultTimeout bounds a single HTTP round trip. Model inference and
// simulator stepping are slow calls, so the default is generous.
const DefaultTimeout = 120 * time.Second

type client struct {
	baseURL    string
	httpClient *http.Client
}

// postJSON sends a JSON request body and decodes the JSON response into out.
// Non-2xx statuses are mapped to errors carrying the response body.
func (c *client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal request", goerr.V("path", path))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("path", path))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "request failed", goerr.V("url", c.baseURL+path))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return goerr.New(fmt.Sprintf("unexpected status %d", resp.StatusCode),
			goerr.V("url", c.baseURL+path), goerr.V("body", string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode response", goerr.V("path", path))
	}
	return nil
}
