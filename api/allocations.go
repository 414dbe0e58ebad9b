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

	model2 "github.com/blnkfinance/tagrecon/api/model"
)

func (a Api) ResolveTransactionAllocations(c *gin.Context) {
	var req model2.ResolveTransactionAllocations
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateResolveTransactionAllocations(); err != nil {
		badRequest(c, err)
		return
	}

	allocations, err := a.tagrecon.ResolveTransactionAllocations(c.Request.Context(), authToken(c), req.Transactions)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, model2.AllocationsResponse{Allocations: allocations})
}

func (a Api) ResolvePaymentRequestAllocations(c *gin.Context) {
	var req model2.ResolvePaymentRequestAllocations
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateResolvePaymentRequestAllocations(); err != nil {
		badRequest(c, err)
		return
	}

	allocations, err := a.tagrecon.ResolvePaymentRequestAllocations(c.Request.Context(), authToken(c), req.PaymentRequests)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, model2.AllocationsResponse{Allocations: allocations})
}
