// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wneessen/geochain/internal/config"
	"github.com/wneessen/geochain/internal/geocode"
	"github.com/wneessen/geochain/internal/geocode/store/file"
	"github.com/wneessen/geochain/internal/http"
	"github.com/wneessen/geochain/internal/logger"
	"github.com/wneessen/geochain/internal/observability"
	"github.com/wneessen/geochain/internal/testhelper"
)

const (
	googleRooftopFile     = "../../testdata/google_rooftop.json"
	googleOverQueryFile   = "../../testdata/google_over_query_limit.json"
	googleApproximateFile = "../../testdata/google_approximate.json"
	smartformHitFile      = "../../testdata/smartform_hit.json"
)

func TestNew(t *testing.T) {
	t.Run("new service succeeds", func(t *testing.T) {
		serv, err := testService(t, nil)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		if serv == nil {
			t.Fatal("expected service to be non-nil")
		}
	})
	t.Run("initializing service with different geocoder stacks", func(t *testing.T) {
		tests := []struct {
			name     string
			env      []string
			wantName string
			wantFail bool
		}{
			{
				"google with file cache",
				nil,
				"geocoder cache using chain(google)",
				false,
			},
			{
				"google without cache",
				[]string{"GEOCHAIN_CACHE_STORE=none"},
				"chain(google)",
				false,
			},
			{
				"smartform and google in order",
				[]string{
					"GEOCHAIN_GEOCODER_PROVIDERS=[smartform,google]",
					"GEOCHAIN_SMARTFORM_PASSWORD=secret",
					"GEOCHAIN_CACHE_STORE=none",
				},
				"chain(smartform,google)",
				false,
			},
			{
				"unreachable redis store",
				[]string{
					"GEOCHAIN_CACHE_STORE=redis",
					"GEOCHAIN_CACHE_REDIS_URL=redis://127.0.0.1:1/0",
				},
				"",
				true,
			},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				for _, envVars := range tc.env {
					vals := strings.SplitN(envVars, "=", 2)
					if len(vals) != 2 {
						t.Fatalf("invalid env var %q", envVars)
					}
					t.Setenv(vals[0], vals[1])
				}
				serv, err := testService(t, nil)
				if tc.wantFail {
					if err == nil {
						t.Fatal("expected service creation to fail")
					}
					return
				}
				if err != nil {
					t.Fatalf("failed to create service: %s", err)
				}
				if serv.Name() != tc.wantName {
					t.Errorf("expected geocoder name to be %q, got %q", tc.wantName, serv.Name())
				}
			})
		}
	})
	t.Run("smartform without password fails", func(t *testing.T) {
		conf := testConfig(t)
		conf.Geocoder.Providers = []string{config.ProviderSmartform}
		_, err := newWithClient(t.Context(), conf, testLogger(), observability.NewMetricsForTesting(),
			http.New(testLogger()))
		if err == nil {
			t.Error("expected service creation without smartform password to fail")
		}
	})
	t.Run("unsupported provider fails", func(t *testing.T) {
		conf := testConfig(t)
		conf.Geocoder.Providers = []string{"mapquest"}
		_, err := newWithClient(t.Context(), conf, testLogger(), observability.NewMetricsForTesting(),
			http.New(testLogger()))
		if err == nil {
			t.Error("expected unsupported provider to fail")
		}
	})
	t.Run("empty provider list fails", func(t *testing.T) {
		conf := testConfig(t)
		conf.Geocoder.Providers = nil
		_, err := newWithClient(t.Context(), conf, testLogger(), observability.NewMetricsForTesting(),
			http.New(testLogger()))
		if err == nil {
			t.Error("expected empty provider list to fail")
		}
	})
}

func TestService_Geocode(t *testing.T) {
	t.Run("geocoding through the cache persists the result", func(t *testing.T) {
		calls := 0
		serv, err := testService(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			calls++
			return fileResponse(t, googleRooftopFile), nil
		})
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		for range 2 {
			result, err := serv.Geocode(t.Context(), "Staroměstské náměstí 3/1, Praha")
			if err != nil {
				t.Fatalf("failed to geocode: %s", err)
			}
			if result.City.Value() != "Praha" {
				t.Errorf("expected city Praha, got %s", result.City)
			}
		}
		if calls != 1 {
			t.Errorf("expected 1 provider request, got %d", calls)
		}

		stored, err := file.New(serv.config.Cache.Dir).Load(t.Context())
		if err != nil {
			t.Fatalf("failed to load cache file: %s", err)
		}
		if _, ok := stored["Staroměstské náměstí 3/1, Praha"]; !ok {
			t.Errorf("expected address to be persisted, got %v", stored)
		}
	})
	t.Run("quota limit of the first provider falls back to the next one", func(t *testing.T) {
		t.Setenv("GEOCHAIN_GEOCODER_PROVIDERS", "[google,smartform]")
		t.Setenv("GEOCHAIN_SMARTFORM_PASSWORD", "secret")
		serv, err := testService(t, routeByHost(t, googleOverQueryFile, smartformHitFile))
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		result, err := serv.Geocode(t.Context(), "Náměstí Svobody 2, Brno")
		if err != nil {
			t.Fatalf("failed to geocode: %s", err)
		}
		if result.City.Value() != "Brno" {
			t.Errorf("expected smartform result, got %+v", result)
		}
	})
	t.Run("no exact result is not skipped by default", func(t *testing.T) {
		t.Setenv("GEOCHAIN_GEOCODER_PROVIDERS", "[google,smartform]")
		t.Setenv("GEOCHAIN_SMARTFORM_PASSWORD", "secret")
		serv, err := testService(t, routeByHost(t, googleApproximateFile, smartformHitFile))
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		_, err = serv.Geocode(t.Context(), "Springfield")
		if !geocode.IsNoExactResult(err) {
			t.Errorf("expected no exact result, got %v", err)
		}
	})
	t.Run("canceled context does not fall back to the next provider", func(t *testing.T) {
		t.Setenv("GEOCHAIN_GEOCODER_PROVIDERS", "[google,smartform]")
		t.Setenv("GEOCHAIN_SMARTFORM_PASSWORD", "secret")
		smartformCalls := 0
		serv, err := testService(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			if req.URL.Host == "secure.smartform.cz" {
				smartformCalls++
				return fileResponse(t, smartformHitFile), nil
			}
			return nil, req.Context().Err()
		})
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err = serv.Geocode(ctx, "Náměstí Svobody 2, Brno")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context cancellation, got %v", err)
		}
		if smartformCalls != 0 {
			t.Errorf("expected no smartform request, got %d", smartformCalls)
		}
	})
	t.Run("provider outcomes are counted", func(t *testing.T) {
		serv, err := testService(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, googleRooftopFile), nil
		})
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		if _, err = serv.Geocode(t.Context(), "Staroměstské náměstí 3/1, Praha"); err != nil {
			t.Fatalf("failed to geocode: %s", err)
		}
		if got := testutil.ToFloat64(serv.metrics.GeocodeRequests.WithLabelValues("google", "success")); got != 1 {
			t.Errorf("expected 1 successful google request, got %v", got)
		}
	})
}

func TestService_CheckReadiness(t *testing.T) {
	t.Run("file store is always ready", func(t *testing.T) {
		serv, err := testService(t, nil)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		if err = serv.CheckReadiness(t.Context()); err != nil {
			t.Errorf("expected service to be ready, got %s", err)
		}
	})
}

func TestService_Run(t *testing.T) {
	t.Run("run stops when the context is canceled", func(t *testing.T) {
		t.Setenv("GEOCHAIN_SERVER_ADDR", "127.0.0.1:0")
		serv, err := testService(t, nil)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() {
			done <- serv.Run(ctx)
		}()
		time.Sleep(time.Millisecond * 100)
		cancel()
		select {
		case err = <-done:
			if err != nil {
				t.Errorf("expected run to stop cleanly, got %s", err)
			}
		case <-time.After(time.Second * 5):
			t.Fatal("run did not stop after context cancellation")
		}
	})
	t.Run("run fails on an invalid listen address", func(t *testing.T) {
		t.Setenv("GEOCHAIN_SERVER_ADDR", "invalid-address")
		serv, err := testService(t, nil)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		if err = serv.Run(t.Context()); err == nil {
			t.Error("expected run to fail")
		}
	})
}

func TestService_Close(t *testing.T) {
	t.Run("closing a service without remote store succeeds", func(t *testing.T) {
		serv, err := testService(t, nil)
		if err != nil {
			t.Fatalf("failed to create service: %s", err)
		}
		if err = serv.Close(); err != nil {
			t.Errorf("expected close to succeed, got %s", err)
		}
	})
}

func testLogger() *logger.Logger {
	return logger.NewLogger(slog.LevelDebug, io.Discard)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("GEOCHAIN_CACHE_DIR", t.TempDir())
	conf, err := config.New()
	if err != nil {
		t.Fatalf("failed to load config: %s", err)
	}
	return conf
}

func testService(t *testing.T, fn func(req *stdhttp.Request) (*stdhttp.Response, error)) (*Service, error) {
	t.Helper()
	conf := testConfig(t)
	client := http.New(testLogger())
	if fn != nil {
		client.Transport = testhelper.MockRoundTripper{Fn: fn}
	}
	return newWithClient(t.Context(), conf, testLogger(), observability.NewMetricsForTesting(), client)
}

func routeByHost(t *testing.T, googleFile, smartformFile string) func(req *stdhttp.Request) (*stdhttp.Response, error) {
	t.Helper()
	return func(req *stdhttp.Request) (*stdhttp.Response, error) {
		if req.URL.Host == "secure.smartform.cz" {
			return fileResponse(t, smartformFile), nil
		}
		return fileResponse(t, googleFile), nil
	}
}

func fileResponse(t *testing.T, name string) *stdhttp.Response {
	t.Helper()
	data, err := os.Open(name)
	if err != nil {
		t.Fatalf("failed to open JSON response file: %s", err)
	}
	return &stdhttp.Response{
		StatusCode: 200,
		Body:       data,
		Header:     make(stdhttp.Header),
	}
}
