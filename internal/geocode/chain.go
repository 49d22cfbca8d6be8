// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/wneessen/geochain/internal/logger"
)

// ErrNoGeocoders is returned when a ChainGeocoder is created without any geocoder.
var ErrNoGeocoders = errors.New("geocoder chain requires at least one geocoder")

// ChainGeocoder tries its geocoders in order. A failure of one of the skip kinds moves on
// to the next geocoder, any other failure is returned immediately. The last geocoder is
// always called without any skip handling and its outcome is returned as-is.
type ChainGeocoder struct {
	coders []Geocoder
	skipOn map[Kind]struct{}
	logger *logger.Logger
}

// NewChainGeocoder returns a ChainGeocoder for the given geocoders. skipOn lists the failure
// kinds that fall through to the next geocoder; use DefaultSkipKinds for the usual policy.
// A nil logger discards the skip messages.
func NewChainGeocoder(log *logger.Logger, skipOn []Kind, coders ...Geocoder) (*ChainGeocoder, error) {
	if len(coders) == 0 {
		return nil, ErrNoGeocoders
	}
	if log == nil {
		log = logger.NewLogger(slog.LevelError, io.Discard)
	}
	skip := make(map[Kind]struct{}, len(skipOn))
	for _, kind := range skipOn {
		skip[kind] = struct{}{}
	}
	return &ChainGeocoder{
		coders: append([]Geocoder(nil), coders...),
		skipOn: skip,
		logger: log,
	}, nil
}

func (c *ChainGeocoder) Name() string {
	names := make([]string, 0, len(c.coders))
	for _, coder := range c.coders {
		names = append(names, coder.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c *ChainGeocoder) Geocode(ctx context.Context, address string) (Result, error) {
	last := len(c.coders) - 1
	for _, coder := range c.coders[:last] {
		result, err := coder.Geocode(ctx, address)
		if err == nil {
			return result, nil
		}
		if !c.skippable(err) {
			return Result{}, err
		}
		kind, _ := KindOf(err)
		c.logger.Warn("geocoder failed, trying next one", slog.String("geocoder", coder.Name()),
			slog.String("kind", kind.String()), logger.Err(err))
	}

	return c.coders[last].Geocode(ctx, address)
}

func (c *ChainGeocoder) skippable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	_, skip := c.skipOn[kind]
	return skip
}
