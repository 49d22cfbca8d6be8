// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package file persists the geocoding cache as a single JSON file.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/wneessen/geochain/internal/geocode"
)

// FileName is the name of the cache file inside the configured directory.
const FileName = "geocoding.json"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store reads and writes the whole geocoding cache from and to one file.
type Store struct {
	dir string
}

// entry is one cached address in the file. Addresses that are not valid UTF-8 are kept in
// RawAddress, since JSON strings cannot carry their bytes unchanged.
type entry struct {
	Address    string         `json:"address,omitempty"`
	RawAddress []byte         `json:"raw_address,omitempty"`
	Result     geocode.Result `json:"result"`
}

func (e entry) address() string {
	if e.RawAddress != nil {
		return string(e.RawAddress)
	}
	return e.Address
}

func newEntry(address string, result geocode.Result) entry {
	if utf8.ValidString(address) {
		return entry{Address: address, Result: result}
	}
	return entry{RawAddress: []byte(address), Result: result}
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the full path of the cache file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Load returns the stored mapping. A missing file yields an empty mapping.
func (s *Store) Load(_ context.Context) (map[string]geocode.Result, error) {
	results := make(map[string]geocode.Result)
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return results, nil
		}
		return nil, fmt.Errorf("failed to read geocoding cache file: %w", err)
	}
	var entries []entry
	if err = json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding cache file %s: %w", s.Path(), err)
	}
	for _, e := range entries {
		results[e.address()] = e.Result
	}
	return results, nil
}

// Save replaces the file content with the given mapping. The directory is created if it does
// not exist yet. The file is written to a temporary file first and then renamed into place, so
// readers never see a partially written cache.
func (s *Store) Save(_ context.Context, results map[string]geocode.Result) error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create geocoding cache directory: %w", err)
	}
	entries := make([]entry, 0, len(results))
	for address, result := range results {
		entries = append(entries, newEntry(address, result))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].address() < entries[j].address()
	})
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode geocoding cache: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary geocoding cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temporary geocoding cache file: %w", err)
	}
	if err = tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set geocoding cache file permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary geocoding cache file: %w", err)
	}
	if err = os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("failed to replace geocoding cache file: %w", err)
	}
	return nil
}
