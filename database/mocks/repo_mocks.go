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

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/blnkfinance/tagrecon/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Dropdown methods

func (m *MockDataSource) CreateDropdown(ctx context.Context, dropdown model.TagDropdown) (model.TagDropdown, error) {
	args := m.Called(ctx, dropdown)
	return args.Get(0).(model.TagDropdown), args.Error(1)
}

func (m *MockDataSource) GetDropdownByID(ctx context.Context, id string) (*model.TagDropdown, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TagDropdown), args.Error(1)
}

func (m *MockDataSource) GetAllDropdowns(ctx context.Context, limit, offset int) ([]model.TagDropdown, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.TagDropdown), args.Error(1)
}

func (m *MockDataSource) UpdateDropdownOptions(ctx context.Context, id string, options []model.TagOption) error {
	args := m.Called(ctx, id, options)
	return args.Error(0)
}

// Sync run methods

func (m *MockDataSource) RecordSyncRun(ctx context.Context, run *model.SyncRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockDataSource) GetSyncRuns(ctx context.Context, dropdownID string, limit int) ([]model.SyncRun, error) {
	args := m.Called(ctx, dropdownID, limit)
	return args.Get(0).([]model.SyncRun), args.Error(1)
}
