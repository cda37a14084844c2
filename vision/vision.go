// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

// Package vision extracts location signals from image bytes: EXIF GPS
// metadata and AI-vision output (labels, landmarks, OCR text, logos).
package vision

import (
	"context"

	"github.com/snaplocate/snaplocate/spatial"
)

// Landmark is a recognized landmark, with coordinates when the model
// knows them.
type Landmark struct {
	Name  string         `json:"name"`
	Point *spatial.Point `json:"point,omitempty"`
}

// Signals is everything the vision model reads out of one image.
type Signals struct {
	Labels    []string   `json:"labels"`
	Landmarks []Landmark `json:"landmarks"`
	TextLines []string   `json:"text_lines"`
	Logos     []string   `json:"logos"`
}

// Empty reports whether the model found nothing usable.
func (s *Signals) Empty() bool {
	return s == nil ||
		(len(s.Labels) == 0 && len(s.Landmarks) == 0 &&
			len(s.TextLines) == 0 && len(s.Logos) == 0)
}

// Analyzer runs AI-vision analysis over raw image bytes.
type Analyzer interface {
	Analyze(ctx context.Context, imageData []byte) (*Signals, error)
}
