// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/snaplocate/snaplocate/spatial"
	"github.com/snaplocate/snaplocate/utils/textutils"
)

const zippopotamURL = "https://api.zippopotam.us/us"

// PostalResolver resolves bare postal codes. It serves only text queries
// that look like a 5- or 9-digit ZIP code.
type PostalResolver struct {
	baseURL    string
	httpClient *http.Client
}

// NewPostalResolver creates a postal-code resolver.
func NewPostalResolver() *PostalResolver {
	return &PostalResolver{
		baseURL: zippopotamURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type postalResponse struct {
	PostCode string `json:"post code"`
	Country  string `json:"country"`
	Places   []struct {
		PlaceName string `json:"place name"`
		State     string `json:"state abbreviation"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
	// Some mirrors report a geocoding accuracy alongside the centroid.
	Accuracy float64 `json:"accuracy"`
}

// Name implements Resolver.
func (p *PostalResolver) Name() string { return "postal-code" }

// Resolve maps a postal code to its centroid.
func (p *PostalResolver) Resolve(ctx context.Context, q Query) (*Result, error) {
	if q.IsReverse() || !textutils.LooksLikePostalCode(q.Text) {
		return nil, ErrUnsupportedQuery
	}

	// ZIP+4, with or without the hyphen: only the 5-digit prefix is
	// addressable
	zip := strings.TrimSpace(q.Text)
	if idx := strings.Index(zip, "-"); idx > 0 {
		zip = zip[:idx]
	}
	if len(zip) > 5 {
		zip = zip[:5]
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/"+zip, nil)
	if err != nil {
		return nil, fmt.Errorf("creating postal request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("postal request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "")
	}

	var pResp postalResponse
	if err := json.NewDecoder(resp.Body).Decode(&pResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(pResp.Places) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: "postal code not found: " + zip,
		}
	}

	place := pResp.Places[0]

	var point spatial.Point
	if _, err := fmt.Sscanf(place.Latitude, "%f", &point.Lat); err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", place.Latitude, err)
	}

	if _, err := fmt.Sscanf(place.Longitude, "%f", &point.Lng); err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", place.Longitude, err)
	}

	// Pass the provider's own accuracy figure through untouched; fall back
	// to centroid-grade confidence when it doesn't report one.
	confidence := pResp.Accuracy
	if confidence == 0 {
		confidence = 0.75
	}

	return &Result{
		Point:   &point,
		Address: fmt.Sprintf("%s, %s %s", place.PlaceName, place.State, pResp.PostCode),
		Details: &AddressDetails{
			Country:    pResp.Country,
			State:      place.State,
			City:       place.PlaceName,
			PostalCode: pResp.PostCode,
		},
		Confidence: confidence,
		Provider:   p.Name(),
	}, nil
}
