// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kkyr/fig"
	"golang.org/x/text/language"

	"github.com/wneessen/geochain/internal/geocode"
)

const (
	configEnv = "GEOCHAIN"
	appName   = "geochain"
)

// Supported geocoding providers.
const (
	ProviderGoogle    = "google"
	ProviderSmartform = "smartform"
)

// Supported cache stores.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
	StoreNone  = "none"
)

var (
	providers = []string{ProviderGoogle, ProviderSmartform}
	stores    = []string{StoreFile, StoreRedis, StoreNone}
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Geocoder struct {
		// Providers are queried in the given order.
		Providers []string `fig:"providers" default:"[google]"`
		// Allowed values: failure, quota_limit, no_exact_result
		SkipOn []string `fig:"skip_on" default:"[failure,quota_limit]"`
	} `fig:"geocoder"`

	Google struct {
		APIKey string            `fig:"apikey"`
		Params map[string]string `fig:"params"`
	} `fig:"google"`

	Smartform struct {
		Password string         `fig:"password"`
		Params   map[string]any `fig:"params"`
	} `fig:"smartform"`

	Cache struct {
		// Allowed values: file, redis, none
		Store    string `fig:"store" default:"file"`
		Dir      string `fig:"dir"`
		RedisURL string `fig:"redis_url"`
		RedisKey string `fig:"redis_key" default:"geochain:cache"`
	} `fig:"cache"`

	Server struct {
		Addr string `fig:"addr" default:":8080"`
	} `fig:"server"`

	language language.Tag
	skipOn   []geocode.Kind
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	c.language = language.Und
	if c.Locale != "" {
		tag, err := language.Parse(c.Locale)
		if err != nil {
			return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
		}
		c.language = tag
	}

	if len(c.Geocoder.Providers) == 0 {
		return errors.New("at least one geocoding provider is required")
	}
	for _, provider := range c.Geocoder.Providers {
		if !slices.Contains(providers, provider) {
			return fmt.Errorf("invalid geocoding provider: %s", provider)
		}
	}
	if slices.Contains(c.Geocoder.Providers, ProviderSmartform) && c.Smartform.Password == "" {
		return errors.New("smartform geocoding provider requires a password")
	}

	c.skipOn = make([]geocode.Kind, 0, len(c.Geocoder.SkipOn))
	for _, name := range c.Geocoder.SkipOn {
		kind, err := geocode.ParseKind(name)
		if err != nil {
			return err
		}
		c.skipOn = append(c.skipOn, kind)
	}

	if !slices.Contains(stores, c.Cache.Store) {
		return fmt.Errorf("invalid cache store: %s", c.Cache.Store)
	}
	if c.Cache.Store == StoreRedis && c.Cache.RedisURL == "" {
		return errors.New("redis cache store requires a redis_url")
	}
	if c.Cache.Dir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.Cache.Dir = filepath.Join(dir, appName)
	}

	return nil
}

// Language returns the parsed locale. It is language.Und if no locale is configured.
func (c *Config) Language() language.Tag {
	return c.language
}

// SkipOn returns the failure kinds on which the provider chain moves on to the next provider.
func (c *Config) SkipOn() []geocode.Kind {
	return slices.Clone(c.skipOn)
}

// getLocale derives the locale from LC_MESSAGES. Values that are no valid language tag, like
// "C" or "POSIX", yield an empty locale.
func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		locale = locale[:idx]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if _, err := language.Parse(locale); err != nil {
		return ""
	}
	return locale
}
