// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/snaplocate/snaplocate/spatial"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleGeocoder uses the Google Maps Geocoding API for both forward and
// reverse lookups.
type GoogleGeocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleGeocoder creates a new Google Maps geocoder.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:  apiKey,
		baseURL: googleGeocodeURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type googleGeocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress  string `json:"formatted_address"`
		PlaceID           string `json:"place_id"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
	Status string `json:"status"` // OK, ZERO_RESULTS, etc.
}

// Name implements Resolver.
func (g *GoogleGeocoder) Name() string { return "google-geocoding" }

// Resolve geocodes a free-text address or reverse-geocodes coordinates.
func (g *GoogleGeocoder) Resolve(ctx context.Context, q Query) (*Result, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)

	if q.IsReverse() {
		params.Set("latlng", fmt.Sprintf("%.6f,%.6f", q.Point.Lat, q.Point.Lng))
	} else {
		params.Set("address", q.Text)
	}

	reqURL := g.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "")
	}

	var gmResp googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if gmResp.Status != "OK" {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("google maps status: %s", gmResp.Status),
		}
	}

	if len(gmResp.Results) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: "no results found",
		}
	}

	result := gmResp.Results[0]

	details := &AddressDetails{PlaceID: result.PlaceID}
	for _, comp := range result.AddressComponents {
		for _, compType := range comp.Types {
			switch compType {
			case "country":
				details.Country = comp.LongName
			case "administrative_area_level_1":
				details.State = comp.ShortName
			case "locality", "postal_town":
				details.City = comp.LongName
			case "postal_code":
				details.PostalCode = comp.LongName
			case "neighborhood", "sublocality_level_1":
				details.Neighborhood = comp.LongName
			}
		}
	}

	return &Result{
		Point: &spatial.Point{
			Lat: result.Geometry.Location.Lat,
			Lng: result.Geometry.Location.Lng,
		},
		Address:    result.FormattedAddress,
		Details:    details,
		Confidence: locationTypeConfidence(result.Geometry.LocationType),
		Provider:   g.Name(),
	}, nil
}

// locationTypeConfidence calibrates confidence from the Google location_type.
// Rooftop accuracy is fully trusted; street-level interpolation less so.
func locationTypeConfidence(locationType string) float64 {
	switch locationType {
	case "ROOFTOP":
		return 1.0
	case "RANGE_INTERPOLATED":
		return 0.8
	case "GEOMETRIC_CENTER":
		return 0.7
	case "APPROXIMATE":
		return 0.5
	default:
		return 0.5
	}
}
