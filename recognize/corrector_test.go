// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package recognize

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectWordRules(t *testing.T) {
	c := NewTextCorrector()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"restarant", "JOE'S RESTARANT", "JOE'S RESTAURANT"},
		{"coffe", "COFFE HOUSE", "COFFEE HOUSE"},
		{"spelling drift", "CITY CENTRE", "CITY CENTER"},
		{"case insensitive", "joe's restarant", "joe's RESTAURANT"},
		{"whole word only", "RESTARANTS", "RESTARANTS"},
		{"already correct", "CORNER RESTAURANT", "CORNER RESTAURANT"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, c.Correct(tc.input))
		})
	}
}

func TestCorrectGlyphFixes(t *testing.T) {
	c := NewTextCorrector()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"zero between uppers", "H0TEL", "HOTEL"},
		{"zero run", "L00P ROAD", "LOOP ROAD"},
		{"one between letters", "MA1N STREET", "MAIN STREET"},
		{"leading five", "5TORE", "STORE"},
		{"trailing five", "EXPRES5", "EXPRESS"},
		{"mc prefix", "HcDonald's", "McDonald's"},
		{"street number kept", "42 MAIN STREET", "42 MAIN STREET"},
		{"postal code kept", "90210", "90210"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, c.Correct(tc.input))
		})
	}
}

func TestCorrectMixedTokens(t *testing.T) {
	c := NewTextCorrector()

	// tokens of 4+ chars mixing digits and letters get all confusable
	// digits rewritten
	assert.Equal(t, "5 STOREYS", c.Correct("5 5T0REY5"))
	assert.Equal(t, "B1 X", c.Correct("B1 X"))
}

func TestCorrectStripsWatermarks(t *testing.T) {
	c := NewTextCorrector()

	assert.Equal(t, "MAIN STREET", c.Correct("SHOT ON REDMI MAIN STREET"))
	assert.Equal(t, "BAKERY", c.Correct("BAKERY shot on Huawei"))
}

func TestCorrectStripsWatermarksAfterMultibyteRunes(t *testing.T) {
	c := NewTextCorrector()

	// U+023F uppercases to U+2C7E, which is one byte longer in UTF-8.
	// Watermark stripping must not assume the uppercased text and the
	// original share byte offsets.
	assert.NotPanics(t, func() {
		assert.Equal(t, "ȿȿȿȿ", c.Correct("ȿȿȿȿSHOT ON"))
	})

	assert.Equal(t, "ȿȿȿȿ MAIN ST", c.Correct("ȿȿȿȿSHOT ON MAIN ST"))
}

func TestCorrectEmptyAndIdempotent(t *testing.T) {
	c := NewTextCorrector()

	assert.Equal(t, "", c.Correct(""))

	once := c.Correct("JOE'S RESTARANT ON MA1N")
	assert.Equal(t, once, c.Correct(once))
}

func TestAddCorrection(t *testing.T) {
	c := NewTextCorrector()

	c.AddCorrection("bakary", "bakery")
	assert.Equal(t, "BAKERY", c.Correct("BAKARY"))

	// last write wins
	c.AddCorrection("BAKARY", "BAKEHOUSE")
	assert.Equal(t, "BAKEHOUSE", c.Correct("bakary"))

	// empty mappings ignored
	c.AddCorrection("", "X")
	c.AddCorrection("X", "  ")
	assert.Equal(t, "X", c.Correct("X"))
}

func TestAddCorrectionConcurrent(t *testing.T) {
	c := NewTextCorrector()

	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c.AddCorrection("BAKARY", "BAKERY")
		}()
		go func() {
			defer wg.Done()
			_ = c.Correct("BAKARY ON MA1N")
		}()
	}

	wg.Wait()
	assert.Equal(t, "BAKERY", c.Correct("BAKARY"))
}
