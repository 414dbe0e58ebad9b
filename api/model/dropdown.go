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

package model

import (
	"github.com/blnkfinance/tagrecon/model"
)

type CreateDropdown struct {
	Name    string            `json:"name"`
	FieldID string            `json:"field_id"`
	Options []model.TagOption `json:"options"`
}

// SyncDropdown is the body of a sync request. Omitted switches fall back to
// the configured defaults. An omitted or null entities field means no entity
// list was supplied; an empty array is an empty list.
type SyncDropdown struct {
	Entities         []model.MatchableEntity `json:"entities"`
	UpdateNames      *bool                   `json:"update_names"`
	DisableDeleted   *bool                   `json:"disable_deleted"`
	HandleDuplicates *bool                   `json:"handle_duplicates"`
}

type MatchOption struct {
	Name      string `json:"name"`
	Delimiter string `json:"delimiter"`
}

type MatchEntities struct {
	Entities  []model.MatchableEntity `json:"entities"`
	Name      string                  `json:"name"`
	Delimiter string                  `json:"delimiter"`
}

type MatchEntitiesResponse struct {
	Matched     bool                   `json:"matched"`
	Entity      *model.MatchableEntity `json:"entity,omitempty"`
	Suggestions []string               `json:"suggestions,omitempty"`
}

type ResolveTransactionAllocations struct {
	Transactions []model.Transaction `json:"transactions"`
}

type ResolvePaymentRequestAllocations struct {
	PaymentRequests []model.PaymentRequest `json:"payment_requests"`
}

type AllocationsResponse struct {
	Allocations map[int64][]model.Allocation `json:"allocations"`
}

func (d *CreateDropdown) ToDropdown() model.TagDropdown {
	return model.TagDropdown{
		Name:    d.Name,
		FieldID: d.FieldID,
		Options: d.Options,
	}
}

// ToSyncOptions overlays the switches present in the request on defaults.
func (s *SyncDropdown) ToSyncOptions(defaults model.SyncOptions) model.SyncOptions {
	opts := defaults
	if s.UpdateNames != nil {
		opts.UpdateNames = *s.UpdateNames
	}
	if s.DisableDeleted != nil {
		opts.DisableDeleted = *s.DisableDeleted
	}
	if s.HandleDuplicates != nil {
		opts.HandleDuplicates = *s.HandleDuplicates
	}
	return opts
}
