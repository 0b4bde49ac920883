package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// requestTimeout bounds every call to the prediction and classification
// endpoints; a call that runs past it is treated as a failure.
const requestTimeout = 10 * time.Second

// Client calls the external ML inference endpoints
type Client struct {
	PredictURL  string
	ClassifyURL string

	httpClient *http.Client
}

// NewClient returns a client for the prediction and classification endpoints
func NewClient(predictURL, classifyURL string) *Client {
	return &Client{
		PredictURL:  predictURL,
		ClassifyURL: classifyURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
}

// postJSON sends the payload and decodes the response into an untyped bag for
// the per-endpoint adapters; the ML services do not publish a stable schema.
func (c *Client) postJSON(ctx context.Context, url string, payload interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// stringField returns the first recognized string field from an untyped
// response bag.
func stringField(bag map[string]interface{}, names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := bag[name]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// floatField returns the first recognized numeric field from an untyped
// response bag.
func floatField(bag map[string]interface{}, names ...string) (float64, bool) {
	for _, name := range names {
		if v, ok := bag[name]; ok {
			switch n := v.(type) {
			case float64:
				return n, true
			case int:
				return float64(n), true
			}
		}
	}
	return 0, false
}
