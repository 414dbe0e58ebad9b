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
	"embed"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/tagrecon/config"
	"github.com/blnkfinance/tagrecon/database"
	"github.com/blnkfinance/tagrecon/internal/cache"
	redlock "github.com/blnkfinance/tagrecon/internal/lock"
	"github.com/blnkfinance/tagrecon/model"
)

//go:embed sql/*.sql
var SQLFiles embed.FS

var tracer = otel.Tracer("tagrecon")

const (
	syncLockTimeout = 30 * time.Second
	syncLockWait    = 10 * time.Second
	syncRunsLimit   = 50
)

// FieldDefinitionSource supplies the custom field definitions visible to an
// authorization token.
type FieldDefinitionSource interface {
	FetchFieldDefinitions(ctx context.Context, authToken string) ([]model.FieldDefinition, error)
}

// DropdownPublisher pushes the options of a dropdown back to the platform.
type DropdownPublisher interface {
	UpdateTagDropdown(ctx context.Context, authToken string, dropdown model.TagDropdown) error
}

// TagRecon hosts dropdown synchronization, entity matching and allocation
// resolution on top of storage and the platform collaborators.
type TagRecon struct {
	datasource database.IDataSource
	fields     FieldDefinitionSource
	publisher  DropdownPublisher
	cache      cache.Cache
	locks      *redlock.KeyedMutex
	redis      redis.UniversalClient
}

// NewTagRecon creates the service.
//
// Parameters:
// - db database.IDataSource: The datasource for dropdowns and sync runs.
// - fields FieldDefinitionSource: Where field definitions are fetched from.
// - c cache.Cache: Cache for field definitions.
//
// Returns:
// - *TagRecon: The service.
func NewTagRecon(db database.IDataSource, fields FieldDefinitionSource, c cache.Cache) *TagRecon {
	return &TagRecon{
		datasource: db,
		fields:     fields,
		cache:      c,
		locks:      redlock.NewKeyedMutex(),
	}
}

// WithPublisher sets the collaborator used by PublishDropdown.
func (t *TagRecon) WithPublisher(publisher DropdownPublisher) *TagRecon {
	t.publisher = publisher
	return t
}

// WithDistributedLock makes dropdown syncs exclusive across every instance
// sharing client, on top of the in-process lock.
func (t *TagRecon) WithDistributedLock(client redis.UniversalClient) *TagRecon {
	t.redis = client
	return t
}

// settings returns the loaded configuration, or a zero configuration with
// defaults applied when none has been loaded.
func settings() *config.Configuration {
	cnf, err := config.Fetch()
	if err != nil {
		return &config.Configuration{
			Cache:   config.CacheConfig{FieldDefinitionTTLSeconds: config.DEFAULT_FIELD_CACHE_TTL},
			Matcher: config.MatcherConfig{SuggestionLimit: config.DEFAULT_MATCH_SUGGESTION_SIZE},
		}
	}
	return cnf
}

func suggestionLimit() int {
	if limit := settings().Matcher.SuggestionLimit; limit > 0 {
		return limit
	}
	return config.DEFAULT_MATCH_SUGGESTION_SIZE
}

func fieldDefinitionTTL() time.Duration {
	if ttl := settings().FieldDefinitionTTL(); ttl > 0 {
		return ttl
	}
	return config.DEFAULT_FIELD_CACHE_TTL * time.Second
}

// DefaultSyncOptions returns the sync switches from configuration, falling
// back to model.DefaultSyncOptions for anything not configured.
func DefaultSyncOptions() model.SyncOptions {
	opts := model.DefaultSyncOptions()
	configured := settings().Sync
	if configured.UpdateNames != nil {
		opts.UpdateNames = *configured.UpdateNames
	}
	if configured.DisableDeleted != nil {
		opts.DisableDeleted = *configured.DisableDeleted
	}
	if configured.HandleDuplicates != nil {
		opts.HandleDuplicates = *configured.HandleDuplicates
	}
	return opts
}

// MatchDelimiter returns the first rune of requested, or the configured
// matcher delimiter when requested is empty.
func MatchDelimiter(requested string) rune {
	for _, r := range requested {
		return r
	}
	return settings().MatcherDelimiter()
}

// MatchEntities matches name against a caller supplied entity list. When
// nothing matches it returns the closest entity names instead.
func (t *TagRecon) MatchEntities(ctx context.Context, entities []model.MatchableEntity, name string, delimiter rune) (model.MatchableEntity, []string, bool) {
	_, span := tracer.Start(ctx, "MatchEntities")
	defer span.End()

	entity, ok := MatchEntityByName(entities, name, delimiter)
	if !ok {
		return model.MatchableEntity{}, SuggestEntityNames(entities, name, suggestionLimit()), false
	}
	return entity, nil, true
}
