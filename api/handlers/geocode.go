package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fixora/fixora-api/api"
	"github.com/fixora/fixora-api/api/geocode"
	"github.com/fixora/fixora-api/config"
)

// Geocode exposes the geocoding client over the API for the mobile client
type Geocode struct {
	Client *geocode.Client
}

// ReverseHandler resolves lat/lon query params to a display address
func (g Geocode) ReverseHandler(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		config.ErrorStatus("malformed lat", http.StatusBadRequest, w, err)
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		config.ErrorStatus("malformed lon", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	address, err := g.Client.Reverse(ctx, lat, lon)
	if err != nil {
		config.ErrorStatus("reverse geocode failed", http.StatusBadGateway, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"address": address})
}

// SearchHandler resolves a free-text query to a coordinate
func (g Geocode) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		config.ErrorStatus("query is required", http.StatusBadRequest, w, fmt.Errorf("empty q param"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	place, err := g.Client.Search(ctx, query)
	if err != nil {
		config.ErrorStatus("geocode search failed", http.StatusBadGateway, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"displayName": place.DisplayName,
		"latitude":    place.Latitude,
		"longitude":   place.Longitude,
	})
}
