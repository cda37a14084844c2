// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEXIFNoBlock(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	data, err := ExtractEXIF(buf.Bytes())
	assert.Error(t, err, "PNG output carries no EXIF block")
	assert.Nil(t, data)
}

func TestExtractEXIFGarbage(t *testing.T) {
	data, err := ExtractEXIF([]byte("not an image at all"))
	assert.Error(t, err)
	assert.Nil(t, data)
}
