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

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-gonic/gin"

	"github.com/blnkfinance/tagrecon/config"
)

const (
	KeyHeader = "X-Tagrecon-Key"

	// AuthTokenKey is the gin context key holding the forwarded platform token.
	AuthTokenKey = "auth_token"
)

// RateLimitMiddleware throttles requests per client IP with tollbooth. It is a
// pass-through unless both requests per second and burst are configured.
func RateLimitMiddleware(conf *config.Configuration) gin.HandlerFunc {
	limits := conf.RateLimit
	if limits.RequestsPerSecond == nil || limits.Burst == nil {
		return func(c *gin.Context) { c.Next() }
	}

	expiry := time.Hour
	if limits.CleanupIntervalSec != nil {
		expiry = time.Duration(*limits.CleanupIntervalSec) * time.Second
	}

	lmt := tollbooth.NewLimiter(*limits.RequestsPerSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: expiry})
	lmt.SetBurst(*limits.Burst)

	return func(c *gin.Context) {
		if limitErr := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); limitErr != nil {
			c.AbortWithStatusJSON(limitErr.StatusCode, gin.H{"error": limitErr.Message})
			return
		}
		c.Next()
	}
}

// SecretKeyAuthMiddleware rejects requests whose KeyHeader does not carry the
// configured server secret.
func SecretKeyAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var secret string
		if conf, err := config.Fetch(); err == nil {
			secret = conf.Server.SecretKey
		}
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server secret is not configured"})
			return
		}

		switch provided := c.GetHeader(KeyHeader); {
		case provided == "":
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + KeyHeader + " header"})
		case !secureCompare(secret, provided):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid secret key"})
		default:
			c.Next()
		}
	}
}

// BearerTokenMiddleware requires an Authorization bearer token and stores it
// under AuthTokenKey for handlers that call the platform.
func BearerTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		c.Set(AuthTokenKey, token)
		c.Next()
	}
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
