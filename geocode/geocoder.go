// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"

	"github.com/snaplocate/snaplocate/spatial"
)

// Query is either a free-text lookup or a reverse lookup by coordinates.
// Exactly one of Text or Point should be set; Point wins when both are.
type Query struct {
	Text  string
	Point *spatial.Point
}

// IsReverse reports whether the query is a coordinate-to-address lookup.
func (q Query) IsReverse() bool {
	return q.Point != nil
}

// AddressDetails is the structured breakdown of a reverse-geocoded address.
// Fields the provider did not report stay empty and are omitted from JSON,
// never serialized as empty-but-present strings.
type AddressDetails struct {
	Country      string `json:"country,omitempty"`
	State        string `json:"state,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	PlaceID      string `json:"place_id,omitempty"`
}

// Result represents a geocoding result from any provider.
type Result struct {
	Point      *spatial.Point  `json:"point,omitempty"`
	Address    string          `json:"address"`
	Details    *AddressDetails `json:"details,omitempty"`
	Confidence float64         `json:"confidence"`
	Provider   string          `json:"provider"`
}

// Resolver is the capability interface shared by all geocoding providers
// and by the cascade itself.
type Resolver interface {
	// Name identifies the provider for logging and result attribution.
	Name() string

	// Resolve performs the lookup. A provider that cannot serve the query
	// shape returns ErrUnsupportedQuery; "no match" conditions are errors
	// too, so a nil error always carries a usable result.
	Resolve(ctx context.Context, q Query) (*Result, error)
}
