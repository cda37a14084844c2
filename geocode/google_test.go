// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/snaplocate/snaplocate/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googleForwardPayload = `{
	"status": "OK",
	"results": [{
		"geometry": {
			"location": {"lat": 51.5363, "lng": -0.1968},
			"location_type": "ROOFTOP"
		},
		"formatted_address": "Albany Rd, London SE5, UK",
		"place_id": "ChIJabc123",
		"address_components": [
			{"long_name": "United Kingdom", "short_name": "GB", "types": ["country"]},
			{"long_name": "London", "short_name": "London", "types": ["postal_town"]},
			{"long_name": "SE5 0AL", "short_name": "SE5 0AL", "types": ["postal_code"]},
			{"long_name": "Burgess Park", "short_name": "Burgess Park", "types": ["neighborhood"]}
		]
	}]
}`

func TestGoogleGeocoderForward(t *testing.T) {
	var gotAddress string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(googleForwardPayload))
	}))
	defer server.Close()

	g := NewGoogleGeocoder("test-key")
	g.baseURL = server.URL

	result, err := g.Resolve(context.Background(), Query{Text: "Albany Rd, London"})
	require.NoError(t, err)

	assert.Equal(t, "Albany Rd, London", gotAddress)
	assert.InDelta(t, 51.5363, result.Point.Lat, 0.0001)
	assert.InDelta(t, -0.1968, result.Point.Lng, 0.0001)
	assert.Equal(t, "Albany Rd, London SE5, UK", result.Address)
	assert.InDelta(t, 1.0, result.Confidence, 0.0001, "ROOFTOP is fully trusted")
	assert.Equal(t, "google-geocoding", result.Provider)

	expected := &AddressDetails{
		Country:      "United Kingdom",
		City:         "London",
		PostalCode:   "SE5 0AL",
		Neighborhood: "Burgess Park",
		PlaceID:      "ChIJabc123",
	}
	if diff := cmp.Diff(expected, result.Details); diff != "" {
		t.Errorf("Details mismatch (-want +got):\n%s", diff)
	}
}

func TestGoogleGeocoderReverseUsesLatLng(t *testing.T) {
	var gotLatLng string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLatLng = r.URL.Query().Get("latlng")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(googleForwardPayload))
	}))
	defer server.Close()

	g := NewGoogleGeocoder("test-key")
	g.baseURL = server.URL

	_, err := g.Resolve(context.Background(), Query{
		Point: &spatial.Point{Lat: 51.5363, Lng: -0.1968},
	})
	require.NoError(t, err)
	assert.Equal(t, "51.536300,-0.196800", gotLatLng)
}

func TestGoogleGeocoderZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer server.Close()

	g := NewGoogleGeocoder("test-key")
	g.baseURL = server.URL

	_, err := g.Resolve(context.Background(), Query{Text: "nowhere"})
	require.Error(t, err)

	var geoErr *GeocodingError

	require.ErrorAs(t, err, &geoErr)
	assert.Equal(t, ErrorTypeNotFound, geoErr.Type)
}

func TestGoogleGeocoderRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := NewGoogleGeocoder("test-key")
	g.baseURL = server.URL

	_, err := g.Resolve(context.Background(), Query{Text: "anywhere"})
	require.Error(t, err)
	assert.True(t, IsRateLimitError(err))
}

func TestLocationTypeConfidence(t *testing.T) {
	tests := []struct {
		locationType string
		expected     float64
	}{
		{"ROOFTOP", 1.0},
		{"RANGE_INTERPOLATED", 0.8},
		{"GEOMETRIC_CENTER", 0.7},
		{"APPROXIMATE", 0.5},
		{"", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.locationType, func(t *testing.T) {
			assert.InDelta(t, tt.expected, locationTypeConfidence(tt.locationType), 0.0001)
		})
	}
}
