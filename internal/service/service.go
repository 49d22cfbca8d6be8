// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"time"

	"github.com/wneessen/geochain/internal/config"
	"github.com/wneessen/geochain/internal/geocode"
	"github.com/wneessen/geochain/internal/http"
	"github.com/wneessen/geochain/internal/logger"
	"github.com/wneessen/geochain/internal/observability"
	"github.com/wneessen/geochain/internal/server"
)

const shutdownTimeout = 10 * time.Second

// pinger is implemented by stores that depend on a remote server.
type pinger interface {
	Ping(ctx context.Context) error
}

type Service struct {
	config   *config.Config
	logger   *logger.Logger
	metrics  *observability.Metrics
	geocoder geocode.Geocoder
	store    geocode.Store
	closers  []func() error
}

// New builds the geocoder stack described by conf: every configured provider wrapped with
// instrumentation, combined into a chain and, unless disabled, wrapped with the cache.
func New(ctx context.Context, conf *config.Config, log *logger.Logger, metrics *observability.Metrics) (*Service, error) {
	return newWithClient(ctx, conf, log, metrics, http.New(log))
}

func newWithClient(ctx context.Context, conf *config.Config, log *logger.Logger, metrics *observability.Metrics,
	client *http.Client,
) (*Service, error) {
	service := &Service{
		config:  conf,
		logger:  log,
		metrics: metrics,
	}

	coders, err := service.selectGeocodeProviders(client)
	if err != nil {
		return nil, err
	}
	chain, err := geocode.NewChainGeocoder(log, conf.SkipOn(), coders...)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoder chain: %w", err)
	}
	service.geocoder = chain

	store, err := service.selectStore(ctx)
	if err != nil {
		return nil, err
	}
	if store != nil {
		service.store = store
		service.geocoder = geocode.NewCachedGeocoder(chain, store, metrics)
	}

	return service, nil
}

// Name returns the name of the outermost geocoder.
func (s *Service) Name() string {
	return s.geocoder.Name()
}

// Geocode resolves address through the configured geocoder stack.
func (s *Service) Geocode(ctx context.Context, address string) (geocode.Result, error) {
	return s.geocoder.Geocode(ctx, address)
}

// CheckReadiness reports an error if the cache store depends on a server that cannot be reached.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if p, ok := s.store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Run serves the geocoding HTTP API until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	srv := server.New(s.config.Server.Addr, s, s, s.logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	s.logger.Info("http server stopped", slog.String("geocoder", s.Name()))
	return nil
}

// Close releases connections held by the cache store.
func (s *Service) Close() error {
	var errs []error
	for _, closer := range s.closers {
		errs = append(errs, closer())
	}
	return errors.Join(errs...)
}
