// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package redis persists the geocoding cache in a single Redis hash.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/wneessen/geochain/internal/geocode"
)

const (
	// DefaultKey is the hash key used if none is configured.
	DefaultKey  = "geochain:cache"
	pingTimeout = time.Second * 3
)

// Store keeps one hash field per address; the field value is the JSON encoded Result.
type Store struct {
	client *redis.Client
	key    string
}

// New returns a Store using the given client. An empty key selects DefaultKey.
func New(client *redis.Client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

// NewFromURL connects to the Redis server at url and verifies the connection.
func NewFromURL(ctx context.Context, url, key string) (*Store, error) {
	if url == "" {
		return nil, errors.New("redis: no URL given")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return New(client, key), nil
}

// Key returns the hash key the store operates on.
func (s *Store) Key() string {
	return s.key
}

// Load returns all cached results. A missing hash yields an empty mapping.
func (s *Store) Load(ctx context.Context) (map[string]geocode.Result, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: load geocoding cache: %w", err)
	}
	results := make(map[string]geocode.Result, len(fields))
	for address, value := range fields {
		var result geocode.Result
		if err = json.Unmarshal([]byte(value), &result); err != nil {
			return nil, fmt.Errorf("redis: decode cached result for %q: %w", address, err)
		}
		results[address] = result
	}
	return results, nil
}

// Save replaces the hash with the given mapping in a single transaction.
func (s *Store) Save(ctx context.Context, results map[string]geocode.Result) error {
	values := make([]any, 0, len(results)*2)
	for address, result := range results {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("redis: encode result for %q: %w", address, err)
		}
		values = append(values, address, string(data))
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.HSet(ctx, s.key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: save geocoding cache: %w", err)
	}
	return nil
}

// Ping checks the connection to the Redis server.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
