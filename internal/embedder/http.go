package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of a non-JSON error body is quoted in errors.
const maxErrorBody = 512

// postJSON sends body as JSON to url with the given headers and decodes the
// response into out. It returns the HTTP status code so callers can build
// backend-specific error messages. A response that is not valid JSON is
// reported with a truncated copy of the body.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return resp.StatusCode, fmt.Errorf("decode response (HTTP %d): %q", resp.StatusCode, raw)
	}
	return resp.StatusCode, nil
}

// isSuccess reports whether status is a 2xx code.
func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
