/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/blnkfinance/tagrecon/config"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key is missing")

// Cache provides the basic operations of a key/value cache.
type Cache interface {
	// Set stores a value under key for ttl.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get decodes the value stored under key into data. It returns
	// ErrCacheMiss when nothing is stored.
	Get(ctx context.Context, key string, data interface{}) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// localCacheSize is the number of entries kept in the in-process TinyLFU layer.
const localCacheSize = 10000

// localCacheTTL bounds how long an entry may be served from process memory.
const localCacheTTL = time.Minute

// RedisCache is a two level cache: TinyLFU in process, Redis behind it when
// a Redis client is configured.
type RedisCache struct {
	cache  *cache.Cache
	client redis.UniversalClient
}

// NewCache builds the cache from the loaded configuration. An empty Redis
// DNS gives a process-local cache.
func NewCache() (*RedisCache, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Dns == "" {
		return NewLocalCache(), nil
	}

	client, err := NewRedisClient(cfg.Redis.Dns, cfg.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	return NewRedisCache(client), nil
}

// NewLocalCache returns a cache that never leaves the process.
func NewLocalCache() *RedisCache {
	return &RedisCache{cache: cache.New(&cache.Options{
		LocalCache: cache.NewTinyLFU(localCacheSize, localCacheTTL),
	})}
}

// NewRedisCache layers the TinyLFU cache in front of client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{
		client: client,
		cache: cache.New(&cache.Options{
			Redis:      client,
			LocalCache: cache.NewTinyLFU(localCacheSize, localCacheTTL),
		}),
	}
}

func (r *RedisCache) Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	return r.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: data,
		TTL:   ttl,
	})
}

func (r *RedisCache) Get(ctx context.Context, key string, data interface{}) error {
	err := r.cache.Get(ctx, key, data)
	if errors.Is(err, cache.ErrCacheMiss) {
		return ErrCacheMiss
	}
	return err
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	err := r.cache.Delete(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}

// Close releases the Redis connection, if any.
func (r *RedisCache) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Client returns the Redis client behind the cache, or nil for a local cache.
func (r *RedisCache) Client() redis.UniversalClient {
	return r.client
}
