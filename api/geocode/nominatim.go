package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client talks to a Nominatim-compatible geocoding service
type Client struct {
	BaseURL string

	httpClient *http.Client
}

// NewClient returns a geocoding client. An empty baseURL falls back to the
// public Nominatim instance.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Place is a geocoding result
type Place struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"-"`
	Longitude   float64 `json:"-"`
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Reverse resolves a coordinate to a display address
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var result nominatimResult
	if err := c.get(ctx, "/reverse", q, &result); err != nil {
		return "", err
	}
	if result.DisplayName == "" {
		return "", fmt.Errorf("no address found for %v,%v", lat, lon)
	}
	return result.DisplayName, nil
}

// Search resolves free text to a coordinate, returning the first match
func (c *Client) Search(ctx context.Context, query string) (*Place, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", query)

	var results []nominatimResult
	if err := c.get(ctx, "/search", q, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for %q", query)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed latitude in geocode response: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed longitude in geocode response: %w", err)
	}

	return &Place{
		DisplayName: results[0].DisplayName,
		Latitude:    lat,
		Longitude:   lon,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Nominatim requires an identifying User-Agent
	req.Header.Set("User-Agent", "fixora-api/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocode endpoint returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode geocode response: %w", err)
	}
	return nil
}
