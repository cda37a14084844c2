// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package recognize

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/snaplocate/snaplocate/geocode"
	"github.com/snaplocate/snaplocate/spatial"
	"github.com/snaplocate/snaplocate/vision"
)

// addressHintRegex spots street-address shapes in OCR text: a number
// followed by words, or a street-type suffix.
var addressHintRegex = regexp.MustCompile(`(?i)(\b\d{1,5}\s+\S+|\b(road|rd|street|st|avenue|ave|boulevard|blvd|lane|ln|drive|dr|way|plaza|square|park)\b\.?$|\b(road|rd|street|st|avenue|ave|boulevard|blvd|lane|ln|drive|dr)\b)`)

// maxSceneLabels bounds how much of the label list feeds the last-resort
// scene query.
const maxSceneLabels = 3

// Pipeline turns image bytes into a ranked location estimate by fusing
// EXIF metadata, AI-vision signals, curated business knowledge, and the
// geocoding cascade.
type Pipeline struct {
	Analyzer   vision.Analyzer
	Geocoder   geocode.Resolver
	Businesses *BusinessIndex
	Corrector  *TextCorrector

	// Repository is optional; without it no history matching or
	// persistence happens.
	Repository SightingRepository
}

// NewPipeline wires a pipeline with the default corrector and curated
// business layer. Analyzer and Geocoder may be nil, in which case the
// corresponding signals are simply unavailable.
func NewPipeline(analyzer vision.Analyzer, geocoder geocode.Resolver, repo SightingRepository) *Pipeline {
	return &Pipeline{
		Analyzer:   analyzer,
		Geocoder:   geocoder,
		Businesses: DefaultBusinessIndex(),
		Corrector:  NewTextCorrector(),
		Repository: repo,
	}
}

// Recognize estimates where a single photo was taken. deviceLocation is
// the requesting device's own position, used only as a last-resort
// candidate. Recognition never returns an error for weak signals; the
// result reports Success false when every signal came up empty.
func (p *Pipeline) Recognize(ctx context.Context, imageData []byte, deviceLocation *spatial.Point) (*RecognitionResult, error) {
	quality := CheckQuality(imageData)
	if !quality.IsGood {
		log.Printf("image quality flagged: %s", quality.Reason)
	}

	exifData, signals := p.extractSignals(ctx, imageData)

	candidates := p.buildCandidates(ctx, exifData, signals, deviceLocation)
	rankCandidates(candidates)

	best := chooseBest(candidates)
	if best == nil {
		return &RecognitionResult{Success: false, Quality: &quality}, nil
	}

	p.fillAddress(ctx, best)
	p.applyHistory(best)
	p.persist(best)

	return &RecognitionResult{
		Success:    true,
		Point:      best.Point,
		Address:    best.Address,
		Name:       best.Name,
		Confidence: best.Confidence,
		Method:     best.Method,
		Category:   best.Category,
		Quality:    &quality,
		Candidates: candidates,
	}, nil
}

// RecognizeAll estimates a shared location from several photos of the
// same place. With one usable image it degrades to Recognize; with two or
// more it triangulates the per-image estimates.
func (p *Pipeline) RecognizeAll(ctx context.Context, images [][]byte, deviceLocation *spatial.Point) (*RecognitionResult, error) {
	var (
		located     []*LocationCandidate
		lastSuccess *RecognitionResult
		lastResult  *RecognitionResult
	)

	for i, imageData := range images {
		result, err := p.Recognize(ctx, imageData, deviceLocation)
		if err != nil {
			return nil, err
		}

		lastResult = result

		if !result.Success {
			log.Printf("image %d of %d produced no location", i+1, len(images))

			continue
		}

		lastSuccess = result

		located = append(located, &LocationCandidate{
			Point:      result.Point,
			Confidence: result.Confidence,
			Method:     result.Method,
			Name:       result.Name,
			Address:    result.Address,
			Category:   result.Category,
			MapsLink:   MapsLinkFor(*result.Point),
		})
	}

	switch len(located) {
	case 0:
		if lastResult != nil {
			return lastResult, nil
		}

		return &RecognitionResult{Success: false}, nil
	case 1:
		return lastSuccess, nil
	}

	fused, err := Triangulate(located)
	if err != nil {
		return nil, err
	}

	result := &RecognitionResult{
		Success:         true,
		Point:           &fused.Point,
		Confidence:      fused.Confidence,
		Method:          fused.Method,
		SourceLocations: fused.Sources,
		AverageDistance: fused.AverageDistance,
		MaxDistance:     fused.MaxDistance,
	}

	// Carry forward the strongest source's identity.
	strongest := fused.Sources[0]
	for _, src := range fused.Sources[1:] {
		if src.Confidence > strongest.Confidence {
			strongest = src
		}
	}

	result.Name = strongest.Name
	result.Category = strongest.Category

	fusedCandidate := &LocationCandidate{
		Point:      result.Point,
		Confidence: result.Confidence,
		Method:     result.Method,
		Name:       result.Name,
		Category:   result.Category,
		MapsLink:   MapsLinkFor(*result.Point),
	}

	p.fillAddress(ctx, fusedCandidate)
	result.Address = fusedCandidate.Address

	p.persist(fusedCandidate)

	return result, nil
}

// extractSignals runs the EXIF reader and the vision analyzer
// concurrently. Either may fail independently; a failure just removes
// that signal source.
func (p *Pipeline) extractSignals(ctx context.Context, imageData []byte) (*vision.EXIFData, *vision.Signals) {
	var (
		wg       sync.WaitGroup
		exifData *vision.EXIFData
		signals  *vision.Signals
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		data, err := vision.ExtractEXIF(imageData)
		if err != nil {
			log.Printf("exif extraction: %v", err)

			return
		}

		exifData = data
	}()

	if p.Analyzer != nil {
		wg.Add(1)

		go func() {
			defer wg.Done()

			s, err := p.Analyzer.Analyze(ctx, imageData)
			if err != nil {
				log.Printf("vision analysis: %v", err)

				return
			}

			signals = s
		}()
	}

	wg.Wait()

	return exifData, signals
}

func (p *Pipeline) buildCandidates(ctx context.Context, exifData *vision.EXIFData, signals *vision.Signals, deviceLocation *spatial.Point) []*LocationCandidate {
	var candidates []*LocationCandidate

	if exifData != nil && exifData.Point != nil {
		point := *exifData.Point
		candidates = append(candidates, &LocationCandidate{
			Point:      &point,
			Confidence: ConfidenceEXIF,
			Method:     MethodEXIFGPS,
			MapsLink:   MapsLinkFor(point),
		})
	}

	if !signals.Empty() {
		candidates = append(candidates, p.landmarkCandidates(ctx, signals.Landmarks)...)
		candidates = append(candidates, p.logoCandidates(ctx, signals.Logos)...)
		candidates = append(candidates, p.textCandidates(ctx, signals.TextLines)...)

		if len(candidates) == 0 {
			if c := p.sceneCandidate(ctx, signals.Labels); c != nil {
				candidates = append(candidates, c)
			}
		}
	}

	if deviceLocation != nil && deviceLocation.Valid() {
		point := *deviceLocation
		candidates = append(candidates, &LocationCandidate{
			Point:      &point,
			Confidence: ConfidenceDeviceFallback,
			Method:     MethodDeviceFallback,
			MapsLink:   MapsLinkFor(point),
		})
	}

	return candidates
}

func (p *Pipeline) landmarkCandidates(ctx context.Context, landmarks []vision.Landmark) []*LocationCandidate {
	var candidates []*LocationCandidate

	for _, lm := range landmarks {
		candidate := &LocationCandidate{
			Confidence: ConfidenceLandmark,
			Method:     MethodLandmark,
			Name:       lm.Name,
		}

		if lm.Point != nil && lm.Point.Valid() {
			point := *lm.Point
			candidate.Point = &point
			candidate.MapsLink = MapsLinkFor(point)
		} else if !p.locate(ctx, candidate, geocode.Query{Text: lm.Name}) {
			continue
		}

		candidates = append(candidates, candidate)
	}

	return candidates
}

func (p *Pipeline) logoCandidates(ctx context.Context, logos []string) []*LocationCandidate {
	var candidates []*LocationCandidate

	for _, logo := range logos {
		name := p.Corrector.Correct(logo)
		if name == "" {
			continue
		}

		candidate := &LocationCandidate{
			Confidence: ConfidenceLogo,
			Method:     MethodLogo,
			Name:       name,
		}

		if p.Businesses == nil || !p.Businesses.Enhance(candidate) {
			if !p.locate(ctx, candidate, geocode.Query{Text: name}) {
				continue
			}
		}

		candidates = append(candidates, candidate)
	}

	return candidates
}

func (p *Pipeline) textCandidates(ctx context.Context, lines []string) []*LocationCandidate {
	var candidates []*LocationCandidate

	for _, line := range lines {
		text := p.Corrector.Correct(line)
		if text == "" {
			continue
		}

		if addressHintRegex.MatchString(text) {
			candidate := &LocationCandidate{
				Confidence: ConfidenceTextAddress,
				Method:     MethodTextAddress,
			}
			if p.locate(ctx, candidate, geocode.Query{Text: text}) {
				if candidate.Address == "" {
					candidate.Address = text
				}

				candidates = append(candidates, candidate)
			}

			continue
		}

		candidate := &LocationCandidate{
			Confidence: ConfidenceTextBusiness,
			Method:     MethodTextBusiness,
			Name:       text,
		}

		if p.Businesses != nil && p.Businesses.Enhance(candidate) {
			candidates = append(candidates, candidate)

			continue
		}

		if p.locate(ctx, candidate, geocode.Query{Text: text}) {
			candidates = append(candidates, candidate)
		}
	}

	return candidates
}

// sceneCandidate is the last resort before the device fallback: geocode a
// query synthesized from the scene labels. Only attempted when nothing
// stronger produced a candidate.
func (p *Pipeline) sceneCandidate(ctx context.Context, labels []string) *LocationCandidate {
	if len(labels) == 0 {
		return nil
	}

	if len(labels) > maxSceneLabels {
		labels = labels[:maxSceneLabels]
	}

	candidate := &LocationCandidate{
		Confidence: ConfidenceSceneAnalysis,
		Method:     MethodSceneAnalysis,
		Name:       strings.Join(labels, " "),
	}

	if !p.locate(ctx, candidate, geocode.Query{Text: candidate.Name}) {
		return nil
	}

	return candidate
}

// locate resolves a query and fills the candidate's point and address.
// It reports whether the candidate ended up with usable coordinates.
func (p *Pipeline) locate(ctx context.Context, candidate *LocationCandidate, q geocode.Query) bool {
	if p.Geocoder == nil {
		return false
	}

	result, err := p.Geocoder.Resolve(ctx, q)
	if err != nil {
		log.Printf("geocoding %q: %v", q.Text, err)

		return false
	}

	if result.Point == nil || !result.Point.Valid() {
		return false
	}

	point := *result.Point
	candidate.Point = &point
	candidate.MapsLink = MapsLinkFor(point)

	if candidate.Address == "" {
		candidate.Address = result.Address
	}

	return true
}

// fillAddress reverse-geocodes the candidate when it has coordinates but
// no human-readable address. Failure is non-fatal.
func (p *Pipeline) fillAddress(ctx context.Context, candidate *LocationCandidate) {
	if candidate.Address != "" || !candidate.HasValidPoint() || p.Geocoder == nil {
		return
	}

	result, err := p.Geocoder.Resolve(ctx, geocode.Query{Point: candidate.Point})
	if err != nil {
		log.Printf("reverse geocoding: %v", err)

		return
	}

	candidate.Address = result.Address
}

// applyHistory compares the candidate against prior sightings near it and
// adopts the identity of a confident repeat match.
func (p *Pipeline) applyHistory(candidate *LocationCandidate) {
	if p.Repository == nil || !candidate.HasValidPoint() {
		return
	}

	sightings, err := p.Repository.ListNearby(*candidate.Point)
	if err != nil {
		log.Printf("listing nearby sightings: %v", err)

		return
	}

	history := make([]*LocationCandidate, 0, len(sightings))
	for _, s := range sightings {
		history = append(history, s.Candidate())
	}

	matches := FindSimilar(candidate, history)
	if len(matches) == 0 {
		return
	}

	// Adopt identity for confident duplicates and for co-located matches.
	if !IsDuplicate(matches) && matches[0].MatchType != MatchExact {
		return
	}

	for _, prior := range history {
		if prior.ID != matches[0].MatchedID {
			continue
		}

		if candidate.Name == "" {
			candidate.Name = prior.Name
		}

		if candidate.Address == "" {
			candidate.Address = prior.Address
		}

		if candidate.Category == "" {
			candidate.Category = prior.Category
		}

		break
	}
}

// persist records the decided location as a sighting. Failure is logged,
// not surfaced: a storage hiccup must not fail the recognition.
func (p *Pipeline) persist(candidate *LocationCandidate) {
	if p.Repository == nil || !candidate.HasValidPoint() {
		return
	}

	sighting := &Sighting{
		Name:       candidate.Name,
		Address:    candidate.Address,
		Category:   candidate.Category,
		Point:      *candidate.Point,
		Confidence: candidate.Confidence,
		Method:     candidate.Method,
	}

	if err := p.Repository.Save(sighting); err != nil {
		log.Printf("saving sighting: %v", err)

		return
	}

	candidate.ID = sighting.ID
}

// rankCandidates orders hypotheses strongest first, preserving signal
// order among equals.
func rankCandidates(candidates []*LocationCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
}

// chooseBest picks the winning hypothesis. A curated business match is
// authoritative and beats everything, including embedded GPS; otherwise
// the strongest located candidate wins.
func chooseBest(candidates []*LocationCandidate) *LocationCandidate {
	var best *LocationCandidate

	for _, c := range candidates {
		if !c.HasValidPoint() {
			continue
		}

		if c.Method == MethodBusinessLookup {
			return c
		}

		if best == nil {
			best = c
		}
	}

	return best
}
