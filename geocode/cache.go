// Copyright 2025 The SnapLocate Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultTTL is how long a geocoding result may be served from cache.
	DefaultTTL = time.Hour

	cleanupInterval = 10 * time.Minute
)

// Key builds the cache key for a query. Coordinate queries are quantized to
// 6 decimal places before hashing, so lookups that differ only beyond that
// precision share an entry. Text queries are trimmed and case-folded.
func Key(q Query) string {
	var raw string
	if q.IsReverse() {
		raw = "rev:" + fmt.Sprintf("%.6f,%.6f", q.Point.Lat, q.Point.Lng)
	} else {
		raw = "txt:" + strings.ToLower(strings.TrimSpace(q.Text))
	}

	hash := sha256.Sum256([]byte(raw))

	return "geocode:v1:" + hex.EncodeToString(hash[:])
}

type inflightCall struct {
	wg     sync.WaitGroup
	result *Result
	err    error
}

// CachedResolver wraps a Resolver with a TTL-bounded in-memory cache and an
// in-flight guard so concurrent lookups for the same key trigger a single
// upstream call.
type CachedResolver struct {
	inner Resolver
	cache *gocache.Cache
	ttl   time.Duration

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

// NewCachedResolver wraps inner with a cache using the given TTL; ttl <= 0
// selects DefaultTTL.
func NewCachedResolver(inner Resolver, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &CachedResolver{
		inner:    inner,
		cache:    gocache.New(ttl, cleanupInterval),
		ttl:      ttl,
		inflight: make(map[string]*inflightCall),
	}
}

// Name implements Resolver.
func (c *CachedResolver) Name() string { return c.inner.Name() }

// Resolve serves the query from cache when a fresh entry exists, otherwise
// computes it through the wrapped resolver. Only successful results are
// cached; failures are retried on the next call.
func (c *CachedResolver) Resolve(ctx context.Context, q Query) (*Result, error) {
	key := Key(q)

	if cached, found := c.cache.Get(key); found {
		result := *cached.(*Result)

		return &result, nil
	}

	c.mu.Lock()

	if call, ok := c.inflight[key]; ok {
		// Another request is already resolving this key; wait for it.
		c.mu.Unlock()
		call.wg.Wait()

		if call.err != nil {
			return nil, call.err
		}

		result := *call.result

		return &result, nil
	}

	call := &inflightCall{}
	call.wg.Add(1)
	c.inflight[key] = call
	c.mu.Unlock()

	call.result, call.err = c.inner.Resolve(ctx, q)

	if call.err == nil {
		c.cache.Set(key, call.result, c.ttl)
	}

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	call.wg.Done()

	if call.err != nil {
		return nil, call.err
	}

	result := *call.result

	return &result, nil
}

// Flush drops every cached entry. Intended for tests.
func (c *CachedResolver) Flush() {
	c.cache.Flush()
}
