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

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/blnkfinance/tagrecon"
	"github.com/blnkfinance/tagrecon/api/middleware"
	"github.com/blnkfinance/tagrecon/config"
	"github.com/blnkfinance/tagrecon/internal/apierror"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type Api struct {
	tagrecon *tagrecon.TagRecon
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.POST("/dropdowns", a.CreateDropdown)
	router.GET("/dropdowns", a.GetAllDropdowns)
	router.GET("/dropdowns/:id", a.GetDropdown)
	router.POST("/dropdowns/:id/sync", a.SyncDropdown)
	router.GET("/dropdowns/:id/sync-runs", a.GetSyncRuns)
	router.POST("/dropdowns/:id/match", a.MatchDropdownOption)

	router.POST("/entities/match", a.MatchEntities)

	platform := router.Group("/", middleware.BearerTokenMiddleware())
	platform.POST("/dropdowns/:id/publish", a.PublishDropdown)
	platform.POST("/transactions/allocations", a.ResolveTransactionAllocations)
	platform.POST("/payment-requests/allocations", a.ResolvePaymentRequestAllocations)

	return a.router
}

func NewAPI(t *tagrecon.TagRecon) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if conf.Telemetry.Enable {
		r.Use(otelgin.Middleware(conf.Telemetry.ServiceName))
	}
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{tagrecon: t, router: r}
}

// respondWithError renders err with the status matching its code.
func respondWithError(c *gin.Context, err error) {
	status := apierror.MapErrorToHTTPStatus(err)

	var apiErr apierror.APIError
	if !errors.As(err, &apiErr) {
		c.JSON(status, gin.H{"error": err.Error(), "code": apierror.ErrInternalServer})
		return
	}

	body := gin.H{"error": apiErr.Message, "code": apiErr.Code}
	if suggestions, ok := apiErr.Details.(tagrecon.MatchSuggestions); ok {
		body["suggestions"] = suggestions.Suggestions
	}
	c.JSON(status, body)
}

func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func authToken(c *gin.Context) string {
	return c.GetString(middleware.AuthTokenKey)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
}
