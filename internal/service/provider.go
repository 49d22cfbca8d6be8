// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/geochain/internal/config"
	"github.com/wneessen/geochain/internal/geocode"
	"github.com/wneessen/geochain/internal/geocode/provider/google"
	"github.com/wneessen/geochain/internal/geocode/provider/smartform"
	"github.com/wneessen/geochain/internal/geocode/store/file"
	"github.com/wneessen/geochain/internal/geocode/store/redis"
	"github.com/wneessen/geochain/internal/http"
)

func (s *Service) selectGeocodeProviders(client *http.Client) ([]geocode.Geocoder, error) {
	coders := make([]geocode.Geocoder, 0, len(s.config.Geocoder.Providers))
	for _, name := range s.config.Geocoder.Providers {
		var coder geocode.Geocoder
		switch strings.ToLower(name) {
		case config.ProviderGoogle:
			coder = google.New(client, google.Config{
				APIKey:   s.config.Google.APIKey,
				Language: s.config.Language(),
				Params:   s.config.Google.Params,
			})
		case config.ProviderSmartform:
			if s.config.Smartform.Password == "" {
				return nil, fmt.Errorf("smartform geocoder requires a password")
			}
			coder = smartform.New(client, smartform.Config{
				Password: s.config.Smartform.Password,
				Params:   s.config.Smartform.Params,
			})
		default:
			return nil, fmt.Errorf("unsupported geocoder type: %s", name)
		}
		coders = append(coders, geocode.NewInstrumentedGeocoder(coder, s.metrics))
	}
	return coders, nil
}

// selectStore returns the configured cache store, or nil if caching is disabled.
func (s *Service) selectStore(ctx context.Context) (geocode.Store, error) {
	switch s.config.Cache.Store {
	case config.StoreFile:
		s.logger.Debug("using geocoding cache file", slog.String("dir", s.config.Cache.Dir))
		return file.New(s.config.Cache.Dir), nil
	case config.StoreRedis:
		store, err := redis.NewFromURL(ctx, s.config.Cache.RedisURL, s.config.Cache.RedisKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache store: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		return store, nil
	case config.StoreNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported cache store: %s", s.config.Cache.Store)
	}
}
