// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"

	"github.com/wneessen/geochain/internal/observability"
)

// InstrumentedGeocoder records request outcomes and durations of the wrapped Geocoder.
type InstrumentedGeocoder struct {
	coder   Geocoder
	metrics *observability.Metrics
}

// NewInstrumentedGeocoder returns an InstrumentedGeocoder around coder. metrics may be nil, in
// which case nothing is recorded.
func NewInstrumentedGeocoder(coder Geocoder, metrics *observability.Metrics) *InstrumentedGeocoder {
	return &InstrumentedGeocoder{
		coder:   coder,
		metrics: metrics,
	}
}

func (i *InstrumentedGeocoder) Name() string {
	return i.coder.Name()
}

func (i *InstrumentedGeocoder) Geocode(ctx context.Context, address string) (Result, error) {
	start := clock.Now()
	result, err := i.coder.Geocode(ctx, address)
	if i.metrics == nil {
		return result, err
	}
	i.metrics.GeocodeDuration.WithLabelValues(i.coder.Name()).Observe(clock.Since(start).Seconds())
	i.metrics.GeocodeRequests.WithLabelValues(i.coder.Name(), outcome(err)).Inc()
	return result, err
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := KindOf(err); ok {
		return kind.String()
	}
	return "error"
}
