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

package database

import (
	"context"

	"github.com/blnkfinance/tagrecon/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	dropdown
	syncRun
}

// dropdown defines methods for handling stored dropdowns.
type dropdown interface {
	// CreateDropdown stores a new dropdown.
	CreateDropdown(ctx context.Context, dropdown model.TagDropdown) (model.TagDropdown, error)
	// GetDropdownByID retrieves a dropdown by its public id.
	GetDropdownByID(ctx context.Context, id string) (*model.TagDropdown, error)
	// GetAllDropdowns retrieves a page of dropdowns, newest first.
	GetAllDropdowns(ctx context.Context, limit, offset int) ([]model.TagDropdown, error)
	// UpdateDropdownOptions replaces the stored options of a dropdown.
	UpdateDropdownOptions(ctx context.Context, id string, options []model.TagOption) error
}

// syncRun defines methods for recording synchronizations.
type syncRun interface {
	RecordSyncRun(ctx context.Context, run *model.SyncRun) error
	GetSyncRuns(ctx context.Context, dropdownID string, limit int) ([]model.SyncRun, error)
}
