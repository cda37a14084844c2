// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/snaplocate/snaplocate/utils/textutils"
)

const (
	// defaultProviderTimeout bounds each provider call independently so a
	// slow upstream cannot stall the whole request.
	defaultProviderTimeout = 8 * time.Second

	// acceptConfidence is the threshold at which a provider result is
	// accepted without consulting the remaining providers.
	acceptConfidence = 0.7
)

// Cascade tries an ordered list of resolvers until one returns an
// acceptable result. The order is chosen per query by a shape classifier;
// providers the classifier did not prefer are tried afterwards in their
// configured fallback order.
type Cascade struct {
	providers []Resolver
	timeout   time.Duration
}

// NewCascade creates a cascade over the given providers. The slice order is
// the fixed fallback order.
func NewCascade(providers ...Resolver) *Cascade {
	return &Cascade{
		providers: providers,
		timeout:   defaultProviderTimeout,
	}
}

// Name implements Resolver.
func (c *Cascade) Name() string { return "cascade" }

// ordering returns the providers to try, preferred one first.
func (c *Cascade) ordering(q Query) []Resolver {
	var preferred string

	switch {
	case q.IsReverse():
		preferred = "google-geocoding"
	case textutils.LooksLikePostalCode(q.Text):
		preferred = "postal-code"
	case textutils.ContainsBusinessKeyword(q.Text):
		preferred = "places-search"
	default:
		preferred = "google-geocoding"
	}

	ordered := make([]Resolver, 0, len(c.providers))
	for _, p := range c.providers {
		if p.Name() == preferred {
			ordered = append(ordered, p)

			break
		}
	}

	for _, p := range c.providers {
		if p.Name() != preferred {
			ordered = append(ordered, p)
		}
	}

	return ordered
}

// Resolve runs the cascade. Text queries return the first result above the
// acceptance threshold or ErrNotFound once every provider has been tried.
// Reverse queries never fail: when no provider answers, the coordinates are
// synthesized into a plain "lat, lng" address with no structured details.
func (c *Cascade) Resolve(ctx context.Context, q Query) (*Result, error) {
	for _, provider := range c.ordering(q) {
		result, err := c.resolveOne(ctx, provider, q)
		if err != nil {
			// A failed provider is "no result", not a hard failure.
			switch {
			case errors.Is(err, ErrUnsupportedQuery):
			case IsTimeoutError(err):
				log.Printf("geocode: provider %s timed out: %v", provider.Name(), err)
			case IsRateLimitError(err) || IsQuotaExceededError(err):
				log.Printf("geocode: provider %s throttled: %v", provider.Name(), err)
			default:
				log.Printf("geocode: provider %s: %v", provider.Name(), err)
			}

			continue
		}

		if result.Confidence > acceptConfidence {
			return result, nil
		}
	}

	if q.IsReverse() {
		return coordinateFallback(q), nil
	}

	return nil, ErrNotFound
}

// resolveOne calls a single provider under its own timeout.
func (c *Cascade) resolveOne(ctx context.Context, provider Resolver, q Query) (*Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return provider.Resolve(callCtx, q)
}

// coordinateFallback synthesizes a degraded but valid reverse-geocode
// result from the raw coordinates.
func coordinateFallback(q Query) *Result {
	return &Result{
		Point:      q.Point,
		Address:    fmt.Sprintf("%.6f, %.6f", q.Point.Lat, q.Point.Lng),
		Details:    nil,
		Confidence: 0.4,
		Provider:   "coordinate-fallback",
	}
}
