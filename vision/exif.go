// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package vision

import (
	"bytes"
	"fmt"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/snaplocate/snaplocate/spatial"
)

// EXIFData is the location-relevant subset of an image's EXIF block.
type EXIFData struct {
	// Point is nil when the image carries no GPS tags.
	Point       *spatial.Point
	CameraMake  string
	CameraModel string
}

// ExtractEXIF reads GPS coordinates and camera metadata from image bytes.
// An image without an EXIF block returns an error; an EXIF block without
// GPS tags returns data with a nil Point, which is not an error.
func ExtractEXIF(imageData []byte) (*EXIFData, error) {
	x, err := exif.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("decoding EXIF: %w", err)
	}

	data := &EXIFData{}

	if lat, lng, err := x.LatLong(); err == nil {
		point := spatial.Point{Lat: lat, Lng: lng}
		if point.Valid() {
			data.Point = &point
		}
	}

	if tag, err := x.Get(exif.Make); err == nil {
		if val, err := tag.StringVal(); err == nil {
			data.CameraMake = val
		}
	}

	if tag, err := x.Get(exif.Model); err == nil {
		if val, err := tag.StringVal(); err == nil {
			data.CameraModel = val
		}
	}

	return data, nil
}
