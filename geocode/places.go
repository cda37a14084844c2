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

const googlePlacesURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"

// PlacesResolver resolves business-type queries through the Google Places
// text-search API. It only serves text queries.
type PlacesResolver struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewPlacesResolver creates a new places-search resolver.
func NewPlacesResolver(apiKey string) *PlacesResolver {
	return &PlacesResolver{
		apiKey:  apiKey,
		baseURL: googlePlacesURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type placesResponse struct {
	Results []struct {
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		PlaceID          string  `json:"place_id"`
		Rating           float64 `json:"rating"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"`
}

// Name implements Resolver.
func (p *PlacesResolver) Name() string { return "places-search" }

// Resolve runs a places text search for the query.
func (p *PlacesResolver) Resolve(ctx context.Context, q Query) (*Result, error) {
	if q.IsReverse() {
		return nil, ErrUnsupportedQuery
	}

	params := url.Values{}
	params.Set("query", q.Text)
	params.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating places request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "")
	}

	var plResp placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&plResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if plResp.Status != "OK" || len(plResp.Results) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("places status: %s", plResp.Status),
		}
	}

	best := plResp.Results[0]

	// A rated place is an established, verified listing; trust it more.
	confidence := 0.7
	if best.Rating > 0 {
		confidence = 0.9
	}

	return &Result{
		Point: &spatial.Point{
			Lat: best.Geometry.Location.Lat,
			Lng: best.Geometry.Location.Lng,
		},
		Address:    best.FormattedAddress,
		Details:    &AddressDetails{PlaceID: best.PlaceID},
		Confidence: confidence,
		Provider:   p.Name(),
	}, nil
}
