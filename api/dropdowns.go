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

func (a Api) CreateDropdown(c *gin.Context) {
	var newDropdown model2.CreateDropdown
	if err := c.ShouldBindJSON(&newDropdown); err != nil {
		badRequest(c, err)
		return
	}

	if err := newDropdown.ValidateCreateDropdown(); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := a.tagrecon.CreateDropdown(c.Request.Context(), newDropdown.ToDropdown())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (a Api) GetDropdown(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	resp, err := a.tagrecon.GetDropdown(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetAllDropdowns(c *gin.Context) {
	limit, offset := pagination(c)

	resp, err := a.tagrecon.GetAllDropdowns(c.Request.Context(), limit, offset)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) SyncDropdown(c *gin.Context) {
	id := c.Param("id")

	var req model2.SyncDropdown
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateSyncDropdown(); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := a.tagrecon.SyncDropdown(c.Request.Context(), id, req.Entities, req.ToSyncOptions(tagrecon.DefaultSyncOptions()))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) GetSyncRuns(c *gin.Context) {
	resp, err := a.tagrecon.GetSyncRuns(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) MatchDropdownOption(c *gin.Context) {
	var req model2.MatchOption
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateMatchOption(); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := a.tagrecon.MatchDropdownOption(c.Request.Context(), c.Param("id"), req.Name, tagrecon.MatchDelimiter(req.Delimiter))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a Api) PublishDropdown(c *gin.Context) {
	resp, err := a.tagrecon.PublishDropdown(c.Request.Context(), authToken(c), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
