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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blnkfinance/tagrecon"
	model2 "github.com/blnkfinance/tagrecon/api/model"
)

// MatchEntities runs the matcher against the entities in the request body.
// Nothing is read from or written to storage.
func (a Api) MatchEntities(c *gin.Context) {
	var req model2.MatchEntities
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateMatchEntities(); err != nil {
		badRequest(c, err)
		return
	}

	entity, suggestions, ok := a.tagrecon.MatchEntities(c.Request.Context(), req.Entities, req.Name, tagrecon.MatchDelimiter(req.Delimiter))
	if !ok {
		c.JSON(http.StatusOK, model2.MatchEntitiesResponse{Matched: false, Suggestions: suggestions})
		return
	}

	c.JSON(http.StatusOK, model2.MatchEntitiesResponse{Matched: true, Entity: &entity})
}
