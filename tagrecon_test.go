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

package tagrecon

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/tagrecon/config"
	"github.com/blnkfinance/tagrecon/database/mocks"
	"github.com/blnkfinance/tagrecon/internal/apierror"
	"github.com/blnkfinance/tagrecon/internal/cache"
	"github.com/blnkfinance/tagrecon/model"
)

type mockPlatform struct {
	mock.Mock
}

func (m *mockPlatform) FetchFieldDefinitions(ctx context.Context, authToken string) ([]model.FieldDefinition, error) {
	args := m.Called(ctx, authToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FieldDefinition), args.Error(1)
}

func (m *mockPlatform) UpdateTagDropdown(ctx context.Context, authToken string, dropdown model.TagDropdown) error {
	args := m.Called(ctx, authToken, dropdown)
	return args.Error(0)
}

func newTestTagRecon(t *testing.T) (*TagRecon, *mocks.MockDataSource, *mockPlatform) {
	t.Helper()
	config.MockConfig(&config.Configuration{})
	ds := new(mocks.MockDataSource)
	platform := new(mockPlatform)
	service := NewTagRecon(ds, platform, cache.NewLocalCache()).WithPublisher(platform)
	return service, ds, platform
}

func storedDropdown() *model.TagDropdown {
	return &model.TagDropdown{
		DropdownID: "tdd_1",
		FieldID:    "field-1",
		Name:       "Category",
		Options: []model.TagOption{
			{Value: "1", Name: "Travel", IsEnabled: true},
			{Value: "2", Name: "Meals", IsEnabled: true},
		},
	}
}

func TestCreateDropdown(t *testing.T) {
	service, ds, _ := newTestTagRecon(t)

	input := model.TagDropdown{Name: " Category ", Options: storedDropdown().Options}
	ds.On("CreateDropdown", mock.Anything, mock.MatchedBy(func(d model.TagDropdown) bool {
		return strings.HasPrefix(d.DropdownID, "tdd_") && d.Name == "Category"
	})).Return(model.TagDropdown{DropdownID: "tdd_new", Name: "Category"}, nil)

	created, err := service.CreateDropdown(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "tdd_new", created.DropdownID)
	ds.AssertExpectations(t)
}

func TestCreateDropdown_Invalid(t *testing.T) {
	service, ds, _ := newTestTagRecon(t)

	tests := []struct {
		name     string
		dropdown model.TagDropdown
		code     apierror.ErrorCode
	}{
		{"missing name", model.TagDropdown{}, apierror.ErrInvalidInput},
		{"duplicate names", model.TagDropdown{Name: "x", Options: []model.TagOption{
			{Value: "1", Name: "Travel", IsEnabled: true}, {Value: "2", Name: "travel", IsEnabled: true},
		}}, apierror.ErrValidation},
		{"nothing enabled", model.TagDropdown{Name: "x", Options: []model.TagOption{{Value: "1", Name: "Travel"}}}, apierror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateDropdown(context.Background(), tt.dropdown)
			assert.True(t, apierror.IsCode(err, tt.code))
		})
	}
	ds.AssertNotCalled(t, "CreateDropdown", mock.Anything, mock.Anything)
}

func TestSyncDropdown_PersistsChanges(t *testing.T) {
	service, ds, _ := newTestTagRecon(t)

	ds.On("GetDropdownByID", mock.Anything, "tdd_1").Return(storedDropdown(), nil)
	ds.On("UpdateDropdownOptions", mock.Anything, "tdd_1", []model.TagOption{
		{Value: "1", Name: "Travel", IsEnabled: true},
		{Value: "2", Name: "Meals", IsEnabled: false},
		{Value: "3", Name: "Office", IsEnabled: true},
	}).Return(nil)
	ds.On("RecordSyncRun", mock.Anything, mock.MatchedBy(func(run *model.SyncRun) bool {
		return strings.HasPrefix(run.RunID, "srn_") && run.EntityCount == 2 && run.UpdatedCount == 2 && run.CompletedAt != nil
	})).Return(nil)

	entities := []model.MatchableEntity{{EntityID: "1", EntityName: "Travel"}, {EntityID: "3", EntityName: "Office"}}
	result, err := service.SyncDropdown(context.Background(), "tdd_1", entities, model.DefaultSyncOptions())

	require.NoError(t, err)
	assert.Equal(t, 2, result.UpdatedCount)
	assert.ElementsMatch(t, []string{"3", "2"}, result.UpdatedValues)
	ds.AssertExpectations(t)
}

func TestSyncDropdown_NoChangesSkipsWrite(t *testing.T) {
	service, ds, _ := newTestTagRecon(t)

	ds.On("GetDropdownByID", mock.Anything, "tdd_1").Return(storedDropdown(), nil)
	ds.On("RecordSyncRun", mock.Anything, mock.AnythingOfType("*model.SyncRun")).Return(nil)

	entities := []model.MatchableEntity{{EntityID: "1", EntityName: "Travel"}, {EntityID: "2", EntityName: "Meals"}}
	result, err := service.SyncDropdown(context.Background(), "tdd_1", entities, model.DefaultSyncOptions())

	require.NoError(t, err)
	assert.Equal(t, 0, result.UpdatedCount)
	ds.AssertNotCalled(t, "UpdateDropdownOptions", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncDropdown_Errors(t *testing.T) {
	t.Run("unknown dropdown", func(t *testing.T) {
		service, ds, _ := newTestTagRecon(t)
		ds.On("GetDropdownByID", mock.Anything, "missing").
			Return(nil, apierror.NewAPIError(apierror.ErrNotFound, "Dropdown not found", nil))

		_, err := service.SyncDropdown(context.Background(), "missing", nil, model.DefaultSyncOptions())
		assert.True(t, apierror.IsCode(err, apierror.ErrNotFound))
	})

	t.Run("invalid entities", func(t *testing.T) {
		service, ds, _ := newTestTagRecon(t)
		ds.On("GetDropdownByID", mock.Anything, "tdd_1").Return(storedDropdown(), nil)

		entities := []model.MatchableEntity{{EntityID: "1", EntityName: "A"}, {EntityID: "1", EntityName: "B"}}
		_, err := service.SyncDropdown(context.Background(), "tdd_1", entities, model.DefaultSyncOptions())

		assert.True(t, apierror.IsCode(err, apierror.ErrValidation))
		ds.AssertNotCalled(t, "UpdateDropdownOptions", mock.Anything, mock.Anything, mock.Anything)
		ds.AssertNotCalled(t, "RecordSyncRun", mock.Anything, mock.Anything)
	})

	t.Run("write failure", func(t *testing.T) {
		service, ds, _ := newTestTagRecon(t)
		ds.On("GetDropdownByID", mock.Anything, "tdd_1").Return(storedDropdown(), nil)
		ds.On("UpdateDropdownOptions", mock.Anything, "tdd_1", mock.Anything).
			Return(apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update dropdown options", errors.New("db down")))

		_, err := service.SyncDropdown(context.Background(), "tdd_1", []model.MatchableEntity{}, model.DefaultSyncOptions())
		assert.True(t, apierror.IsCode(err, apierror.ErrInternalServer))
		ds.AssertNotCalled(t, "RecordSyncRun", mock.Anything, mock.Anything)
	})
}

func TestSyncDropdown_DistributedLock(t *testing.T) {
	service, ds, _ := newTestTagRecon(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	service.WithDistributedLock(client)

	ds.On("GetDropdownByID", mock.Anything, "tdd_1").Return(storedDropdown(), nil)
	ds.On("RecordSyncRun", mock.Anything, mock.AnythingOfType("*model.SyncRun")).Return(nil)

	_, err := service.SyncDropdown(context.Background(), "tdd_1", nil, model.DefaultSyncOptions())
	require.NoError(t, err)
	assert.False(t, mr.Exists("tagrecon:sync:tdd_1"))

	require.NoError(t, mr.Set("tagrecon:sync:tdd_1", "someone-else"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = service.SyncDropdown(ctx, "tdd_1", nil, model.DefaultSyncOptions())
	assert.True(t, apierror.IsCode(err, apierror.ErrConflict))
}

func TestMatchDropdownOption(t *testing.T) {
	service, ds, _ := newTestTagRecon(t)

	dropdown := &model.TagDropdown{DropdownID: "tdd_1", Options: []model.TagOption{
		{Value: "1", Name: "One", IsEnabled: true},
		{Value: "2", Name: "Expense:One", IsEnabled: true},
		{Value: "3", Name: "Expense:Category:One", IsEnabled: true},
		{Value: "4", Name: "Expense:Category:Two", IsEnabled: false},
	}}
	ds.On("GetDropdownByID", mock.Anything, "tdd_1").Return(dropdown, nil)

	option, err := service.MatchDropdownOption(context.Background(), "tdd_1", "one", ':')
	require.NoError(t, err)
	assert.Equal(t, "1", option.Value)

	_, err = service.MatchDropdownOption(context.Background(), "tdd_1", "Two", ':')
	require.Error(t, err)
	assert.True(t, apierror.IsCode(err, apierror.ErrNotFound))

	_, err = service.MatchDropdownOption(context.Background(), "tdd_1", "Onne", NoDelimiter)
	var apiErr apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	suggestions, ok := apiErr.Details.(MatchSuggestions)
	require.True(t, ok)
	assert.Equal(t, "One", suggestions.Suggestions[0])
}

func TestPublishDropdown(t *testing.T) {
	service, ds, platform := newTestTagRecon(t)

	dropdown := storedDropdown()
	ds.On("GetDropdownByID", mock.Anything, "tdd_1").Return(dropdown, nil)
	platform.On("UpdateTagDropdown", mock.Anything, "token", *dropdown).Return(nil).Once()

	published, err := service.PublishDropdown(context.Background(), "token", "tdd_1")
	require.NoError(t, err)
	assert.Equal(t, dropdown, published)

	platform.On("UpdateTagDropdown", mock.Anything, "token", *dropdown).
		Return(apierror.NewAPIError(apierror.ErrUpstream, "platform request failed", nil))
	_, err = service.PublishDropdown(context.Background(), "token", "tdd_1")
	assert.True(t, apierror.IsCode(err, apierror.ErrUpstream))
}

func TestPublishDropdown_NoPublisher(t *testing.T) {
	config.MockConfig(&config.Configuration{})
	service := NewTagRecon(new(mocks.MockDataSource), nil, nil)

	_, err := service.PublishDropdown(context.Background(), "token", "tdd_1")
	assert.True(t, apierror.IsCode(err, apierror.ErrInternalServer))
}

func TestFieldDefinitions_Cached(t *testing.T) {
	service, _, platform := newTestTagRecon(t)

	definitions := []model.FieldDefinition{{ID: "f1", Name: gofakeit.BuzzWord(), Type: model.FieldTypeDropdown}}
	platform.On("FetchFieldDefinitions", mock.Anything, "token").Return(definitions, nil).Once()

	for i := 0; i < 3; i++ {
		got, err := service.FieldDefinitions(context.Background(), "token")
		require.NoError(t, err)
		assert.Equal(t, definitions, got)
	}
	platform.AssertNumberOfCalls(t, "FetchFieldDefinitions", 1)
}

func TestFieldDefinitions_CachedPerToken(t *testing.T) {
	service, _, platform := newTestTagRecon(t)

	platform.On("FetchFieldDefinitions", mock.Anything, "a").Return([]model.FieldDefinition{{ID: "fa"}}, nil).Once()
	platform.On("FetchFieldDefinitions", mock.Anything, "b").Return([]model.FieldDefinition{{ID: "fb"}}, nil).Once()

	a, err := service.FieldDefinitions(context.Background(), "a")
	require.NoError(t, err)
	b, err := service.FieldDefinitions(context.Background(), "b")
	require.NoError(t, err)

	assert.Equal(t, "fa", a[0].ID)
	assert.Equal(t, "fb", b[0].ID)
}

func TestResolveAllocationsService_SkipsFetchWithoutAnswers(t *testing.T) {
	service, _, platform := newTestTagRecon(t)

	records := []model.FinancialRecord{{ID: 1, Amount: decimal.NewFromInt(-4)}}
	result, err := service.ResolveAllocations(context.Background(), "token", records)

	require.NoError(t, err)
	assert.True(t, result[1][0].Amount.Equal(decimal.NewFromInt(4)))
	platform.AssertNotCalled(t, "FetchFieldDefinitions", mock.Anything, mock.Anything)
}

func TestResolveTransactionAllocations(t *testing.T) {
	service, _, platform := newTestTagRecon(t)

	platform.On("FetchFieldDefinitions", mock.Anything, "token").Return([]model.FieldDefinition{
		{ID: "project", Type: model.FieldTypeDropdown},
		{ID: "split", Type: model.FieldTypeAllocation},
	}, nil).Once()

	transactions := []model.Transaction{
		{TransactionID: 10, Amount: decimal.RequireFromString("-3.50"), TagAnswers: []model.TagAnswer{{FieldID: "project", RawValue: "p-1"}}},
		{TransactionID: 11, Amount: decimal.RequireFromString("5"), TagAnswers: []model.TagAnswer{
			{FieldID: "split", RawValue: `{"tagId":"a","amount":2,"items":[]}`},
			{FieldID: "split", RawValue: `{"tagId":"b","amount":3,"items":[]}`},
		}},
		{TransactionID: 12, Amount: decimal.RequireFromString("1")},
	}

	result, err := service.ResolveTransactionAllocations(context.Background(), "token", transactions)

	require.NoError(t, err)
	assert.Len(t, result, 3)
	assert.Equal(t, []model.AllocationValueItem{{TagID: "project", Value: "p-1"}}, result[10][0].Items)
	assert.Len(t, result[11], 2)
	assert.True(t, model.SumAllocations(result[11]).Equal(decimal.NewFromInt(5)))
	platform.AssertNumberOfCalls(t, "FetchFieldDefinitions", 1)
}

func TestResolvePaymentRequestAllocations_FetchError(t *testing.T) {
	service, _, platform := newTestTagRecon(t)

	platform.On("FetchFieldDefinitions", mock.Anything, "token").
		Return(nil, apierror.NewAPIError(apierror.ErrUpstream, "platform request failed", nil))

	requests := []model.PaymentRequest{{PaymentRequestID: 1, Amount: decimal.NewFromInt(2), TagAnswers: []model.TagAnswer{{FieldID: "x", RawValue: "y"}}}}
	result, err := service.ResolvePaymentRequestAllocations(context.Background(), "token", requests)

	assert.Nil(t, result)
	assert.True(t, apierror.IsCode(err, apierror.ErrUpstream))
}

func TestDefaultSyncOptions_FromConfig(t *testing.T) {
	updateNames := true
	disableDeleted := false
	config.MockConfig(&config.Configuration{Sync: config.SyncConfig{UpdateNames: &updateNames, DisableDeleted: &disableDeleted}})

	opts := DefaultSyncOptions()
	assert.True(t, opts.UpdateNames)
	assert.False(t, opts.DisableDeleted)
	assert.True(t, opts.HandleDuplicates)
}

func TestMatchDelimiter(t *testing.T) {
	config.MockConfig(&config.Configuration{Matcher: config.MatcherConfig{Delimiter: "/"}})

	assert.Equal(t, ':', MatchDelimiter(":"))
	assert.Equal(t, '/', MatchDelimiter(""))

	config.MockConfig(&config.Configuration{})
	assert.Equal(t, NoDelimiter, MatchDelimiter(""))
}

func TestMatchEntities(t *testing.T) {
	service, _, _ := newTestTagRecon(t)
	entities := []model.MatchableEntity{
		entity("1", "Expense"),
		entity("2", "Expense:Travel"),
	}

	matched, suggestions, ok := service.MatchEntities(context.Background(), entities, "travel", ':')
	require.True(t, ok)
	assert.Equal(t, "2", matched.EntityID)
	assert.Nil(t, suggestions)

	_, suggestions, ok = service.MatchEntities(context.Background(), entities, "Expence", ':')
	assert.False(t, ok)
	assert.Equal(t, []string{"Expense"}, suggestions)
}
