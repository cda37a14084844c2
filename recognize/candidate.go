// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

// Package recognize fuses weak location signals extracted from a
// photograph into a single ranked location estimate.
package recognize

import (
	"fmt"

	"github.com/snaplocate/snaplocate/spatial"
)

// Method tags the signal a location candidate was derived from.
type Method string

const (
	// MethodEXIFGPS is GPS coordinates embedded in image metadata.
	MethodEXIFGPS Method = "exif-gps"
	// MethodLandmark is an AI-recognized landmark with known coordinates.
	MethodLandmark Method = "ai-landmark-detection"
	// MethodLogo is a brand logo detected in the image.
	MethodLogo Method = "ai-logo-detection"
	// MethodTextBusiness is a business name read off a sign or storefront.
	MethodTextBusiness Method = "ai-text-business"
	// MethodTextAddress is a street address read off a sign.
	MethodTextAddress Method = "ai-text-address"
	// MethodSceneAnalysis is a generic AI inference from scene content.
	MethodSceneAnalysis Method = "ai-scene-analysis"
	// MethodDeviceFallback is the requesting device's own reported location.
	MethodDeviceFallback Method = "device-location-fallback"
	// MethodBusinessLookup is a match against the curated business table.
	MethodBusinessLookup Method = "business-lookup"
	// MethodTriangulation is a fusion of several candidates.
	MethodTriangulation Method = "multi-image-triangulation"
)

// Per-source confidence calibration. Embedded GPS is near-authoritative;
// a generic scene inference is barely better than a coin flip.
const (
	ConfidenceEXIF           = 0.95
	ConfidenceBusinessLookup = 0.9
	ConfidenceLandmark       = 0.8
	ConfidenceLogo           = 0.75
	ConfidenceTextBusiness   = 0.7
	ConfidenceTextAddress    = 0.65
	ConfidenceSceneAnalysis  = 0.6
	ConfidenceDeviceFallback = 0.4
)

// LocationCandidate is one hypothesis about where a photo was taken,
// derived from a single signal source. Candidates live for the duration
// of one recognition request; only the chosen or fused candidate is
// persisted as a Sighting.
type LocationCandidate struct {
	// ID is set when the candidate was hydrated from stored history.
	ID         int64          `json:"id,omitempty"`
	Point      *spatial.Point `json:"point,omitempty"`
	Confidence float64        `json:"confidence"`
	Method     Method         `json:"method"`
	Name       string         `json:"name,omitempty"`
	Address    string         `json:"address,omitempty"`
	Category   string         `json:"category,omitempty"`
	MapsLink   string         `json:"maps_link,omitempty"`
}

// HasValidPoint reports whether the candidate carries usable coordinates.
func (c *LocationCandidate) HasValidPoint() bool {
	return c != nil && c.Point != nil && c.Point.Valid()
}

// MapsLinkFor builds a Google Maps link for a point.
func MapsLinkFor(p spatial.Point) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", p.Lat, p.Lng)
}

// RecognitionResult is what the pipeline hands back to callers. A failed
// recognition (every signal exhausted) has Success false and nothing else
// set; everything else is best-effort with an honest confidence.
type RecognitionResult struct {
	Success    bool           `json:"success"`
	Point      *spatial.Point `json:"location,omitempty"`
	Address    string         `json:"address,omitempty"`
	Name       string         `json:"name,omitempty"`
	Confidence float64        `json:"confidence"`
	Method     Method         `json:"method,omitempty"`
	Category   string         `json:"category,omitempty"`

	// Fusion diagnostics, present when the result was triangulated.
	SourceLocations []*LocationCandidate `json:"source_locations,omitempty"`
	AverageDistance float64              `json:"average_distance,omitempty"`
	MaxDistance     float64              `json:"max_distance,omitempty"`

	// Quality is the advisory pre-processing report for the image.
	Quality *QualityReport `json:"quality,omitempty"`

	// Candidates holds every hypothesis considered, ranked by confidence.
	Candidates []*LocationCandidate `json:"candidates,omitempty"`
}
