// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package recognize

import (
	"errors"

	"github.com/snaplocate/snaplocate/spatial"
)

// ErrInsufficientCandidates means fewer than two usable locations were
// available, so there is nothing to fuse.
var ErrInsufficientCandidates = errors.New("fusion requires at least two located candidates")

// FusedLocation is the outcome of triangulating several per-image
// location estimates into one.
type FusedLocation struct {
	Point      spatial.Point
	Confidence float64
	Method     Method

	// Sources are the candidates that contributed, in input order.
	Sources []*LocationCandidate
	// AverageDistance and MaxDistance measure the spread of the sources
	// around the fused point, in meters.
	AverageDistance float64
	MaxDistance     float64
}

// Triangulate fuses candidates into a confidence-weighted centroid.
// Candidates without valid coordinates are ignored. The fused confidence
// is the weakest contributing confidence: agreement across images narrows
// the location but cannot make the evidence stronger than its weakest
// source.
func Triangulate(candidates []*LocationCandidate) (*FusedLocation, error) {
	var located []*LocationCandidate

	for _, c := range candidates {
		if c.HasValidPoint() {
			located = append(located, c)
		}
	}

	if len(located) < 2 {
		return nil, ErrInsufficientCandidates
	}

	var sumLat, sumLng, totalWeight float64

	minConfidence := located[0].Confidence

	for _, c := range located {
		sumLat += c.Point.Lat * c.Confidence
		sumLng += c.Point.Lng * c.Confidence
		totalWeight += c.Confidence

		if c.Confidence < minConfidence {
			minConfidence = c.Confidence
		}
	}

	if totalWeight <= 0 {
		return nil, errors.New("fusion candidates carry no confidence weight")
	}

	fused := &FusedLocation{
		Point: spatial.Point{
			Lat: sumLat / totalWeight,
			Lng: sumLng / totalWeight,
		},
		Confidence: minConfidence,
		Method:     MethodTriangulation,
		Sources:    located,
	}

	for _, c := range located {
		d := fused.Point.HaversineDistance(c.Point)
		fused.AverageDistance += d

		if d > fused.MaxDistance {
			fused.MaxDistance = d
		}
	}

	fused.AverageDistance /= float64(len(located))

	return fused, nil
}
