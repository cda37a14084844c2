// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package recognize

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// noisePhrases are watermark and overlay strings OCR reliably picks up
// from phone photos but which carry no location information.
var noisePhrases = []string{
	"SHOT ON",
	"AI CAMERA",
	"DUAL CAMERA",
	"XIAOMI",
	"REDMI",
	"HUAWEI",
	"LEICA",
}

// defaultCorrections seed the registry: common OCR word confusions and
// British/American spelling drift that breaks downstream lookups.
var defaultCorrections = map[string]string{
	"RESTARANT":  "RESTAURANT",
	"RESTURANT":  "RESTAURANT",
	"RESTAURENT": "RESTAURANT",
	"COFFE":      "COFFEE",
	"CAFFE":      "CAFE",
	"GROCERRY":   "GROCERY",
	"PHARMACCY":  "PHARMACY",
	"CENTRE":     "CENTER",
	"THEATRE":    "THEATER",
	"HARBOUR":    "HARBOR",
}

// noisePhraseRegex matches any noise phrase case-insensitively. Matching
// on the original string keeps byte offsets valid for arbitrary Unicode
// input, where an uppercased copy can differ in length.
var noisePhraseRegex = func() *regexp.Regexp {
	quoted := make([]string, len(noisePhrases))
	for i, phrase := range noisePhrases {
		quoted[i] = regexp.QuoteMeta(phrase)
	}

	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}()

var (
	wordRegex = regexp.MustCompile(`[A-Za-z0-9]+`)

	// Digit-for-letter swaps, applied only where the surrounding context
	// proves the digit is a misread glyph.
	zeroBetweenUppers  = regexp.MustCompile(`([A-Z])0([A-Z])`)
	oneBetweenLetters  = regexp.MustCompile(`([A-Za-z])1([A-Za-z])`)
	leadingFive        = regexp.MustCompile(`\b5([A-Z])`)
	trailingFive       = regexp.MustCompile(`([A-Z])5\b`)
	confusableMcPrefix = regexp.MustCompile(`\bH([Cc][A-Za-z])`)

	multiSpace = regexp.MustCompile(`[ \t]{2,}`)
)

// glyphSwaps maps misread digits to the letters they resemble.
var glyphSwaps = map[rune]rune{'0': 'O', '1': 'I', '5': 'S'}

// TextCorrector repairs common OCR misreads before the text is used for
// lookups. The rule registry is shared mutable state owned by the
// corrector; construct one per process (or per test) and inject it.
type TextCorrector struct {
	mu    sync.RWMutex
	rules map[string]string
}

// NewTextCorrector creates a corrector seeded with the default rules.
func NewTextCorrector() *TextCorrector {
	c := &TextCorrector{rules: make(map[string]string, len(defaultCorrections))}
	for wrong, right := range defaultCorrections {
		c.rules[wrong] = right
	}

	return c
}

// AddCorrection registers a whole-word substitution. Keys and values are
// case-normalized; empty mappings are ignored; last write wins.
func (c *TextCorrector) AddCorrection(wrong, right string) {
	wrong = strings.ToUpper(strings.TrimSpace(wrong))
	right = strings.ToUpper(strings.TrimSpace(right))

	if wrong == "" || right == "" {
		return
	}

	c.mu.Lock()
	c.rules[wrong] = right
	c.mu.Unlock()
}

// Correct returns the best-effort repaired form of raw OCR output. It
// never fails; unknown text passes through unchanged, and correcting
// already-correct text is the identity transform.
func (c *TextCorrector) Correct(raw string) string {
	if raw == "" {
		return raw
	}

	text := stripNoisePhrases(raw)
	text = c.applyWordRules(text)
	text = fixConfusableGlyphs(text)
	text = fixMixedTokens(text)

	return strings.TrimSpace(text)
}

// stripNoisePhrases removes hallucinated watermark text wholesale.
func stripNoisePhrases(text string) string {
	text = noisePhraseRegex.ReplaceAllString(text, "")

	return multiSpace.ReplaceAllString(text, " ")
}

// applyWordRules substitutes registered corrections, whole words only,
// case-insensitively.
func (c *TextCorrector) applyWordRules(text string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return wordRegex.ReplaceAllStringFunc(text, func(word string) string {
		if right, ok := c.rules[strings.ToUpper(word)]; ok {
			return right
		}

		return word
	})
}

// fixConfusableGlyphs applies character-level repairs scoped tightly
// enough not to corrupt real words.
func fixConfusableGlyphs(text string) string {
	// Repeated application handles runs like "L00P"
	for {
		fixed := zeroBetweenUppers.ReplaceAllString(text, "${1}O${2}")
		fixed = oneBetweenLetters.ReplaceAllString(fixed, "${1}I${2}")

		if fixed == text {
			break
		}

		text = fixed
	}

	text = leadingFive.ReplaceAllString(text, "S${1}")
	text = trailingFive.ReplaceAllString(text, "${1}S")

	// "Mc" brand prefixes scan as "Hc" often enough to warrant a rule.
	text = confusableMcPrefix.ReplaceAllString(text, "M${1}")

	return text
}

// fixMixedTokens rewrites digits inside tokens that mix letters and
// digits, e.g. "H0TEL" or "5T0RE". Purely numeric tokens (street numbers,
// postal codes) are left alone.
func fixMixedTokens(text string) string {
	return wordRegex.ReplaceAllStringFunc(text, func(word string) string {
		if len(word) < 4 {
			return word
		}

		var letters, digits int

		for _, r := range word {
			switch {
			case unicode.IsLetter(r):
				letters++
			case unicode.IsDigit(r):
				digits++
			}
		}

		if letters == 0 || digits == 0 {
			return word
		}

		return strings.Map(func(r rune) rune {
			if swap, ok := glyphSwaps[r]; ok {
				return swap
			}

			return r
		}, word)
	})
}
