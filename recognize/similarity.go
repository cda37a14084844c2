// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package recognize

import (
	"sort"

	"github.com/snaplocate/snaplocate/utils/textutils"
)

// MatchType classifies why two candidates are considered the same place.
type MatchType string

const (
	// MatchExact means the points are within exactMatchRadius of each other.
	MatchExact MatchType = "exact"
	// MatchNearby means the points are close but not co-located.
	MatchNearby MatchType = "nearby"
	// MatchBusiness means the names resolve to the same business.
	MatchBusiness MatchType = "business"
	// MatchLandmark means both candidates recognized the same landmark.
	MatchLandmark MatchType = "landmark"
)

const (
	exactMatchRadius  = 50.0  // meters
	nearbyMatchRadius = 200.0 // meters

	nameMatchScore  = 0.95
	exactMatchScore = 0.85
	nearbyFloor     = 0.6

	// maxComparisons bounds a FindSimilar pass so an unbounded history
	// cannot stall a request.
	maxComparisons = 1000
	maxMatches     = 10

	duplicateThreshold = 0.9
)

// SimilarityResult describes how closely a candidate matches a prior
// sighting.
type SimilarityResult struct {
	MatchedID      int64     `json:"matched_id"`
	Similarity     float64   `json:"similarity"`
	MatchType      MatchType `json:"match_type"`
	DistanceMeters float64   `json:"distance_meters"`
}

// CalculateSimilarity scores how likely two candidates describe the same
// place, or nil when they clearly do not. Both candidates must carry
// valid coordinates; a name match beats any distance score.
func CalculateSimilarity(a, b *LocationCandidate) *SimilarityResult {
	if !a.HasValidPoint() || !b.HasValidPoint() {
		return nil
	}

	distance := a.Point.HaversineDistance(b.Point)

	if namesMatch(a.Name, b.Name) {
		matchType := MatchBusiness
		if a.Method == MethodLandmark && b.Method == MethodLandmark {
			matchType = MatchLandmark
		}

		return &SimilarityResult{
			MatchedID:      b.ID,
			Similarity:     nameMatchScore,
			MatchType:      matchType,
			DistanceMeters: distance,
		}
	}

	if distance < exactMatchRadius {
		return &SimilarityResult{
			MatchedID:      b.ID,
			Similarity:     exactMatchScore,
			MatchType:      MatchExact,
			DistanceMeters: distance,
		}
	}

	if distance < nearbyMatchRadius {
		// Linear decay from 1.0 at zero distance, clamped to the floor.
		score := 1.0 - (distance/nearbyMatchRadius)*0.4
		if score < nearbyFloor {
			score = nearbyFloor
		}

		return &SimilarityResult{
			MatchedID:      b.ID,
			Similarity:     score,
			MatchType:      MatchNearby,
			DistanceMeters: distance,
		}
	}

	return nil
}

// namesMatch compares normalized names, accepting containment either way
// so that an OCR over-read ("Tortoise One") still matches the curated
// entry ("Tortoise").
func namesMatch(a, b string) bool {
	na := textutils.NormalizeBusinessName(a)
	nb := textutils.NormalizeBusinessName(b)

	if na == "" || nb == "" {
		return false
	}

	return na == nb || textutils.ContainsEitherWay(na, nb)
}

// FindSimilar scores the candidate against prior sightings and returns
// the best matches, strongest first. History beyond maxComparisons is
// ignored; callers pass history most-recent-first.
func FindSimilar(candidate *LocationCandidate, history []*LocationCandidate) []*SimilarityResult {
	if len(history) > maxComparisons {
		history = history[:maxComparisons]
	}

	var matches []*SimilarityResult

	for _, prior := range history {
		if result := CalculateSimilarity(candidate, prior); result != nil {
			matches = append(matches, result)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}

	return matches
}

// IsDuplicate reports whether the strongest match is confident enough to
// treat the candidate as a repeat sighting of a known place.
func IsDuplicate(matches []*SimilarityResult) bool {
	return len(matches) > 0 && matches[0].Similarity > duplicateThreshold
}
