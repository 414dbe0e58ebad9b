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
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ParseRedisURL turns a configured DNS into client options. Plain host:port
// addresses are used as is; anything else goes through redis.ParseURL, with
// a password-only userinfo ("redis://secret@host") accepted as well.
func ParseRedisURL(rawURL string, skipTLSVerify bool) (*redis.Options, error) {
	if !strings.Contains(rawURL, "//") && !strings.Contains(rawURL, "@") {
		return &redis.Options{Addr: rawURL}, nil
	}

	if strings.HasPrefix(rawURL, "redis://") || strings.HasPrefix(rawURL, "rediss://") {
		scheme, rest, _ := strings.Cut(rawURL, "://")
		if userinfo, host, ok := strings.Cut(rest, "@"); ok && !strings.Contains(userinfo, ":") {
			rawURL = fmt.Sprintf("%s://:%s@%s", scheme, userinfo, host)
		}
	}

	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	if opts.TLSConfig != nil && skipTLSVerify {
		opts.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true,
		}
	}
	return opts, nil
}

// NewRedisClient connects to the Redis instance at dns and pings it.
func NewRedisClient(dns string, skipTLSVerify bool) (redis.UniversalClient, error) {
	opts, err := ParseRedisURL(dns, skipTLSVerify)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
