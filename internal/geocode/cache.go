// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"fmt"
	"sync"

	"github.com/wneessen/geochain/internal/observability"
)

// Store persists the complete address to Result mapping of a CachedGeocoder.
type Store interface {
	// Load returns the persisted mapping. A store that holds nothing yet returns an empty
	// mapping and no error.
	Load(ctx context.Context) (map[string]Result, error)
	// Save replaces the persisted mapping with results.
	Save(ctx context.Context, results map[string]Result) error
}

// CachedGeocoder remembers successful results of the wrapped Geocoder by the exact address
// string. Entries never expire and failures are never cached.
type CachedGeocoder struct {
	coder   Geocoder
	store   Store
	metrics *observability.Metrics

	mu      sync.Mutex
	loaded  bool
	results map[string]Result
}

// NewCachedGeocoder returns a CachedGeocoder around coder that persists to store. The store is
// not read before the first lookup. metrics may be nil.
func NewCachedGeocoder(coder Geocoder, store Store, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		coder:   coder,
		store:   store,
		metrics: metrics,
	}
}

func (c *CachedGeocoder) Name() string {
	return "geocoder cache using " + c.coder.Name()
}

// Geocode returns the cached Result for address, or geocodes it with the wrapped Geocoder and
// stores the new mapping. The lock is held for the whole sequence, so concurrent misses for
// the same address call the wrapped Geocoder only once.
func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return Result{}, err
	}

	if result, ok := c.results[address]; ok {
		c.observe("hit")
		return result, nil
	}
	c.observe("miss")

	result, err := c.coder.Geocode(ctx, address)
	if err != nil {
		return Result{}, err
	}

	c.results[address] = result
	if c.metrics != nil {
		c.metrics.CacheEntries.Set(float64(len(c.results)))
	}
	if err = c.store.Save(ctx, c.results); err != nil {
		return Result{}, fmt.Errorf("failed to persist geocoding cache: %w", err)
	}

	return result, nil
}

func (c *CachedGeocoder) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	results, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load geocoding cache: %w", err)
	}
	if results == nil {
		results = make(map[string]Result)
	}
	c.results = results
	c.loaded = true
	if c.metrics != nil {
		c.metrics.CacheEntries.Set(float64(len(c.results)))
	}
	return nil
}

func (c *CachedGeocoder) observe(result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
}
