// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package recognize

import (
	"bytes"
	"fmt"
	"image"

	// Register decoders for the formats phone cameras produce.
	_ "image/jpeg"
	_ "image/png"
)

const (
	minDimension   = 200
	minBrightness  = 30
	maxBrightness  = 240
	brightnessGrid = 64 // sample at most brightnessGrid^2 pixels
)

// QualityReport is the advisory verdict on whether an image is worth
// running through the expensive signal extractors.
type QualityReport struct {
	IsGood bool   `json:"is_good"`
	Reason string `json:"reason,omitempty"`
}

// CheckQuality inspects resolution and brightness. It fails open: any
// decode failure returns a good report, because a tooling error must not
// block the pipeline. Callers treat a bad report as a flag, not an abort.
func CheckQuality(imageData []byte) QualityReport {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return QualityReport{IsGood: true}
	}

	if cfg.Width < minDimension || cfg.Height < minDimension {
		return QualityReport{
			IsGood: false,
			Reason: fmt.Sprintf("resolution too low (%dx%d)", cfg.Width, cfg.Height),
		}
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return QualityReport{IsGood: true}
	}

	brightness := meanBrightness(img)
	if brightness < minBrightness {
		return QualityReport{
			IsGood: false,
			Reason: fmt.Sprintf("too dark (brightness %.0f)", brightness),
		}
	}

	if brightness > maxBrightness {
		return QualityReport{
			IsGood: false,
			Reason: fmt.Sprintf("overexposed (brightness %.0f)", brightness),
		}
	}

	return QualityReport{IsGood: true}
}

// meanBrightness samples the image on a coarse grid and averages the
// per-channel brightness on a 0-255 scale.
func meanBrightness(img image.Image) float64 {
	bounds := img.Bounds()

	stepX := bounds.Dx() / brightnessGrid
	if stepX < 1 {
		stepX = 1
	}

	stepY := bounds.Dy() / brightnessGrid
	if stepY < 1 {
		stepY = 1
	}

	var sum, samples float64

	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels
			sum += float64(r>>8+g>>8+b>>8) / 3
			samples++
		}
	}

	if samples == 0 {
		return 0
	}

	return sum / samples
}
