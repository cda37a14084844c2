// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/snaplocate/snaplocate/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostalResolver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/90210", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"post code": "90210",
			"country": "United States",
			"places": [{
				"place name": "Beverly Hills",
				"state abbreviation": "CA",
				"latitude": "34.0901",
				"longitude": "-118.4065"
			}]
		}`))
	}))
	defer server.Close()

	p := NewPostalResolver()
	p.baseURL = server.URL

	result, err := p.Resolve(context.Background(), Query{Text: "90210"})
	require.NoError(t, err)

	assert.InDelta(t, 34.0901, result.Point.Lat, 0.0001)
	assert.InDelta(t, -118.4065, result.Point.Lng, 0.0001)
	assert.Equal(t, "Beverly Hills, CA 90210", result.Address)
	assert.InDelta(t, 0.75, result.Confidence, 0.0001, "centroid default when provider reports no accuracy")
	assert.Equal(t, "postal-code", result.Provider)

	require.NotNil(t, result.Details)
	assert.Equal(t, "United States", result.Details.Country)
	assert.Equal(t, "CA", result.Details.State)
	assert.Equal(t, "90210", result.Details.PostalCode)
}

func TestPostalResolverPassesAccuracyThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"post code": "10001",
			"country": "United States",
			"accuracy": 0.92,
			"places": [{
				"place name": "New York",
				"state abbreviation": "NY",
				"latitude": "40.7484",
				"longitude": "-73.9967"
			}]
		}`))
	}))
	defer server.Close()

	p := NewPostalResolver()
	p.baseURL = server.URL

	result, err := p.Resolve(context.Background(), Query{Text: "10001"})
	require.NoError(t, err)
	assert.InDelta(t, 0.92, result.Confidence, 0.0001)
}

func TestPostalResolverTrimsZipPlus4(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/90210", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"post code": "90210",
			"country": "United States",
			"places": [{
				"place name": "Beverly Hills",
				"state abbreviation": "CA",
				"latitude": "34.0901",
				"longitude": "-118.4065"
			}]
		}`))
	}))
	defer server.Close()

	p := NewPostalResolver()
	p.baseURL = server.URL

	_, err := p.Resolve(context.Background(), Query{Text: "90210-1234"})
	require.NoError(t, err)

	_, err = p.Resolve(context.Background(), Query{Text: "902101234"})
	require.NoError(t, err)
}

func TestPostalResolverRejectsNonPostalQueries(t *testing.T) {
	p := NewPostalResolver()

	_, err := p.Resolve(context.Background(), Query{Text: "Baker Street"})
	assert.ErrorIs(t, err, ErrUnsupportedQuery)

	_, err = p.Resolve(context.Background(), Query{Point: &spatial.Point{Lat: 1, Lng: 1}})
	assert.ErrorIs(t, err, ErrUnsupportedQuery)
}

func TestPlacesResolverConfidence(t *testing.T) {
	payload := `{
		"status": "OK",
		"results": [{
			"name": "Tortoise Coffee",
			"formatted_address": "12 Camden High St, London",
			"place_id": "ChIJplace1",
			"rating": 4.5,
			"geometry": {"location": {"lat": 51.539, "lng": -0.142}}
		}]
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	p := NewPlacesResolver("test-key")
	p.baseURL = server.URL

	result, err := p.Resolve(context.Background(), Query{Text: "tortoise coffee camden"})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, result.Confidence, 0.0001, "rated places are trusted more")
	assert.Equal(t, "12 Camden High St, London", result.Address)

	unrated := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"name": "Popup Stand",
				"formatted_address": "Somewhere",
				"geometry": {"location": {"lat": 1, "lng": 2}}
			}]
		}`))
	}))
	defer unrated.Close()

	p2 := NewPlacesResolver("test-key")
	p2.baseURL = unrated.URL

	result, err = p2.Resolve(context.Background(), Query{Text: "popup stand"})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, result.Confidence, 0.0001)
}
