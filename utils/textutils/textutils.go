// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package textutils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

var (
	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	postalCodeRegex  = regexp.MustCompile(`^\d{5}(-?\d{4})?$`)
)

// NormalizeBusinessName folds a business name into a canonical comparison form:
// accent-folded, punctuation stripped, whitespace collapsed, uppercased.
// "Tortoise & Co." and "TORTOISE CO" normalize to the same string.
func NormalizeBusinessName(name string) string {
	name = LowerASCIIFolding(name)
	name = punctuationRegex.ReplaceAllString(name, "")
	name = whitespaceRegex.ReplaceAllString(name, " ")

	return strings.ToUpper(strings.TrimSpace(name))
}

// ContainsEitherWay reports whether either normalized string contains
// the other. Both must be non-empty.
func ContainsEitherWay(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	return strings.Contains(a, b) || strings.Contains(b, a)
}

// LooksLikePostalCode reports whether the query is a bare 5-digit or
// 9-digit (ZIP+4) postal code.
func LooksLikePostalCode(query string) bool {
	return postalCodeRegex.MatchString(strings.TrimSpace(query))
}

// businessKeywords are query terms that indicate a place search rather than
// a street-address geocode.
var businessKeywords = []string{"restaurant", "store", "hotel", "business", "cafe", "shop"}

// ContainsBusinessKeyword reports whether the query mentions a business type.
func ContainsBusinessKeyword(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range businessKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	return false
}
