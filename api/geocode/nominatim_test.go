package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixora/fixora-api/api/geocode"
)

func TestClient_ReverseSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"display_name": "5th Ave, New York", "lat": "40.7128", "lon": "-74.006"}`))
	}))
	defer srv.Close()

	c := geocode.NewClient(srv.URL)
	address, err := c.Reverse(context.Background(), 40.7128, -74.006)
	require.NoError(t, err)

	assert.Equal(t, "5th Ave, New York", address)
}

func TestClient_ReverseNoAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := geocode.NewClient(srv.URL)
	_, err := c.Reverse(context.Background(), 0.1, 0.1)

	assert.ErrorContains(t, err, "no address found")
}

func TestClient_SearchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "city hall", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[{"display_name": "City Hall, New York", "lat": "40.7127", "lon": "-74.0059"}]`))
	}))
	defer srv.Close()

	c := geocode.NewClient(srv.URL)
	place, err := c.Search(context.Background(), "city hall")
	require.NoError(t, err)

	assert.Equal(t, "City Hall, New York", place.DisplayName)
	assert.Equal(t, 40.7127, place.Latitude)
	assert.Equal(t, -74.0059, place.Longitude)
}

func TestClient_SearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := geocode.NewClient(srv.URL)
	_, err := c.Search(context.Background(), "nowhere")

	assert.ErrorContains(t, err, "no results")
}

func TestClient_SearchEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := geocode.NewClient(srv.URL)
	_, err := c.Search(context.Background(), "city hall")

	assert.ErrorContains(t, err, "status 429")
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := geocode.NewClient("")

	assert.Equal(t, "https://nominatim.openstreetmap.org", c.BaseURL)
}
