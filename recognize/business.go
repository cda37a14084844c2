// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package recognize

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/snaplocate/snaplocate/spatial"
	"github.com/snaplocate/snaplocate/utils/textutils"
)

// Business is a curated place record used to enrich OCR-derived
// candidates with trusted coordinates and metadata.
type Business struct {
	Name     string        `json:"name"`
	Address  string        `json:"address"`
	Category string        `json:"category"`
	Point    spatial.Point `json:"point"`
}

// BusinessIndex provides lookup of curated businesses by name. Exact
// matches on the normalized name win; otherwise the first entry (in
// insertion order) whose normalized name contains, or is contained by,
// the query is returned.
type BusinessIndex struct {
	businesses map[string]*Business // key: normalized name
	order      []string             // normalized keys, insertion order
}

// NewBusinessIndex creates an empty index.
func NewBusinessIndex() *BusinessIndex {
	return &BusinessIndex{
		businesses: make(map[string]*Business),
	}
}

// Add inserts a business. A later entry with the same normalized name
// replaces the earlier one without changing its position.
func (idx *BusinessIndex) Add(b *Business) {
	key := textutils.NormalizeBusinessName(b.Name)
	if key == "" {
		return
	}

	if _, exists := idx.businesses[key]; !exists {
		idx.order = append(idx.order, key)
	}

	idx.businesses[key] = b
}

// Len returns the number of indexed businesses.
func (idx *BusinessIndex) Len() int {
	return len(idx.order)
}

// Lookup finds the curated business for an OCR-extracted name, or nil.
func (idx *BusinessIndex) Lookup(name string) *Business {
	query := textutils.NormalizeBusinessName(name)
	if query == "" {
		return nil
	}

	if b, ok := idx.businesses[query]; ok {
		return b
	}

	// OCR often yields partial signage ("FUNFAIR" for "George Bins
	// Funfair") or over-reads ("Tortoise One" for "Tortoise"), so fall
	// back to containment either way.
	for _, key := range idx.order {
		if textutils.ContainsEitherWay(key, query) {
			return idx.businesses[key]
		}
	}

	return nil
}

// Enhance overrides a candidate's location and metadata with the curated
// record when its name matches a known business. It returns true when a
// match was applied.
func (idx *BusinessIndex) Enhance(candidate *LocationCandidate) bool {
	b := idx.Lookup(candidate.Name)
	if b == nil {
		return false
	}

	candidate.Point = &spatial.Point{Lat: b.Point.Lat, Lng: b.Point.Lng}
	candidate.Name = b.Name
	candidate.Address = b.Address
	candidate.Category = b.Category
	candidate.Confidence = ConfidenceBusinessLookup
	candidate.Method = MethodBusinessLookup
	candidate.MapsLink = MapsLinkFor(*candidate.Point)

	return true
}

// LoadBusinessIndex loads a curated business layer from a JSON file.
func LoadBusinessIndex(filepath string) (*BusinessIndex, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return nil, fmt.Errorf("reading businesses file: %w", err)
	}

	var records []Business

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing businesses JSON: %w", err)
	}

	index := NewBusinessIndex()
	for i := range records {
		index.Add(&records[i])
	}

	return index, nil
}

// DefaultBusinessIndex returns the built-in curated layer. It is small
// on purpose: deployments load their own layer with LoadBusinessIndex
// and this set keeps the pipeline useful out of the box.
func DefaultBusinessIndex() *BusinessIndex {
	index := NewBusinessIndex()

	for _, b := range []*Business{
		{
			Name:     "George Bins Funfair",
			Address:  "Burgess Park, Albany Rd, London SE5 0AL",
			Category: "Entertainment",
			Point:    spatial.Point{Lat: 51.4816, Lng: -0.0887},
		},
		{
			Name:     "Tortoise",
			Address:  "22 Berners St, London W1T 3LP",
			Category: "Media",
			Point:    spatial.Point{Lat: 51.5176, Lng: -0.1369},
		},
		{
			Name:     "Borough Market",
			Address:  "8 Southwark St, London SE1 1TL",
			Category: "Market",
			Point:    spatial.Point{Lat: 51.5055, Lng: -0.0910},
		},
		{
			Name:     "Brockwell Lido",
			Address:  "Brockwell Park, Dulwich Rd, London SE24 0PA",
			Category: "Leisure",
			Point:    spatial.Point{Lat: 51.4530, Lng: -0.1069},
		},
	} {
		index.Add(b)
	}

	return index
}
