// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package main implements the geochain command. Without -serve every argument is geocoded and
// printed as one JSON line; with -serve the geocoding HTTP API is started.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wneessen/geochain/internal/config"
	"github.com/wneessen/geochain/internal/geocode"
	"github.com/wneessen/geochain/internal/logger"
	"github.com/wneessen/geochain/internal/observability"
	"github.com/wneessen/geochain/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// output is printed for every geocoded address.
type output struct {
	Address string          `json:"address"`
	Result  *geocode.Result `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Hint    string          `json:"hint,omitempty"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.NewLogger(slog.LevelError)

	// Read config
	confRead := false
	confPath := flag.String("config", "", "path to the config file")
	serve := flag.Bool("serve", false, "serve the geocoding HTTP API")
	flag.Parse()

	// Read default config
	conf, err := config.New()
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	// If config file was specified, read it
	if *confPath != "" {
		file := filepath.Base(*confPath)
		path := filepath.Dir(*confPath)
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
		confRead = true
	}

	// Check if we have a config file in the default location
	if path, file := findConfigFile(); !confRead && (path != "" && file != "") {
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
	}

	log = logger.NewLogger(conf.LogLevel)

	// Initialize the service
	serv, err := service.New(ctx, conf, log, observability.NewMetrics())
	if err != nil {
		log.Error("failed to initialize geochain service", logger.Err(err))
		os.Exit(1)
	}
	defer func() {
		if err := serv.Close(); err != nil {
			log.Error("failed to close geochain service", logger.Err(err))
		}
	}()

	if !*serve {
		if !geocodeAll(ctx, serv, flag.Args(), os.Stdout) {
			_ = serv.Close()
			cancel()
			os.Exit(1)
		}
		return
	}

	log.Info("starting geochain service", slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date), slog.String("geocoder", serv.Name()))
	if err = serv.Run(ctx); err != nil {
		log.Error("failed to run geochain service", logger.Err(err))
	}
	log.Info("shutting down geochain service")
}

// geocodeAll geocodes every address and writes one JSON line per address to w. It reports
// whether all addresses were resolved.
func geocodeAll(ctx context.Context, coder geocode.Geocoder, addresses []string, w io.Writer) bool {
	encoder := json.NewEncoder(w)
	ok := true
	for _, address := range addresses {
		out := output{Address: address}
		result, err := coder.Geocode(ctx, address)
		if err != nil {
			ok = false
			out.Error = err.Error()
			out.Hint = geocode.HintOf(err)
			if kind, isKind := geocode.KindOf(err); isKind {
				out.Kind = kind.String()
			}
		} else {
			out.Result = &result
		}
		if err = encoder.Encode(out); err != nil {
			return false
		}
	}
	return ok
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "geochain", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
