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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/blnkfinance/tagrecon/config"
)

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/ping", func(c *gin.Context) {
		token, _ := c.Get(AuthTokenKey)
		c.JSON(http.StatusOK, gin.H{"token": token})
	})
	return router
}

func serve(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestSecretKeyAuthMiddleware(t *testing.T) {
	config.MockConfig(&config.Configuration{Server: config.ServerConfig{SecretKey: "s3cret"}})
	router := newTestRouter(SecretKeyAuthMiddleware())

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{KeyHeader: "nope"}, http.StatusUnauthorized},
		{"valid key", map[string]string{KeyHeader: "s3cret"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, serve(router, tt.headers).Code)
		})
	}
}

func TestSecretKeyAuthMiddleware_NotConfigured(t *testing.T) {
	config.MockConfig(&config.Configuration{})
	router := newTestRouter(SecretKeyAuthMiddleware())

	assert.Equal(t, http.StatusInternalServerError, serve(router, map[string]string{KeyHeader: "x"}).Code)
}

func TestBearerTokenMiddleware(t *testing.T) {
	router := newTestRouter(BearerTokenMiddleware())

	resp := serve(router, map[string]string{"Authorization": "Bearer tok-1"})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"token":"tok-1"}`, resp.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(router, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, map[string]string{"Authorization": "Basic abc"}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, map[string]string{"Authorization": "Bearer "}).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	rps := 1.0
	burst := 1
	cleanup := 60
	conf := &config.Configuration{RateLimit: config.RateLimitConfig{RequestsPerSecond: &rps, Burst: &burst, CleanupIntervalSec: &cleanup}}
	router := newTestRouter(RateLimitMiddleware(conf))

	assert.Equal(t, http.StatusOK, serve(router, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, nil).Code)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	router := newTestRouter(RateLimitMiddleware(&config.Configuration{}))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(router, nil).Code)
	}
}
