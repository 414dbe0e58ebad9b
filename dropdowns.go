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
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blnkfinance/tagrecon/internal/apierror"
	redlock "github.com/blnkfinance/tagrecon/internal/lock"
	"github.com/blnkfinance/tagrecon/internal/notification"
	"github.com/blnkfinance/tagrecon/model"
)

// MatchSuggestions is attached to the NOT_FOUND error of MatchDropdownOption.
type MatchSuggestions struct {
	Name        string   `json:"name"`
	Suggestions []string `json:"suggestions"`
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// CreateDropdown validates and stores a new dropdown. An empty option list
// is allowed; otherwise names and values must be unique and one option must
// be enabled.
func (t *TagRecon) CreateDropdown(ctx context.Context, dropdown model.TagDropdown) (model.TagDropdown, error) {
	ctx, span := tracer.Start(ctx, "CreateDropdown")
	defer span.End()

	dropdown.Name = strings.TrimSpace(dropdown.Name)
	if dropdown.Name == "" {
		err := apierror.NewAPIError(apierror.ErrInvalidInput, "dropdown name is required", nil)
		recordSpanError(span, err)
		return model.TagDropdown{}, err
	}
	if err := ValidateTagOptions(dropdown.Options); err != nil {
		recordSpanError(span, err)
		return model.TagDropdown{}, err
	}

	dropdown = dropdown.Clone()
	dropdown.DropdownID = model.GenerateUUIDWithSuffix("tdd")
	created, err := t.datasource.CreateDropdown(ctx, dropdown)
	if err != nil {
		recordSpanError(span, err)
		return model.TagDropdown{}, err
	}

	span.SetAttributes(attribute.String("dropdown.id", created.DropdownID))
	return created, nil
}

func (t *TagRecon) GetDropdown(ctx context.Context, id string) (*model.TagDropdown, error) {
	ctx, span := tracer.Start(ctx, "GetDropdown")
	defer span.End()
	span.SetAttributes(attribute.String("dropdown.id", id))

	return t.datasource.GetDropdownByID(ctx, id)
}

func (t *TagRecon) GetAllDropdowns(ctx context.Context, limit, offset int) ([]model.TagDropdown, error) {
	ctx, span := tracer.Start(ctx, "GetAllDropdowns")
	defer span.End()

	return t.datasource.GetAllDropdowns(ctx, limit, offset)
}

// SyncDropdown reconciles a stored dropdown against entities. Syncs of the
// same dropdown are serialized. The new options are persisted only when
// something changed; a sync run is recorded either way.
//
// Parameters:
// - ctx: The context for the operation.
// - id: The dropdown id.
// - entities: The external entity list. Nil means no list was supplied.
// - opts: The sync switches.
//
// Returns:
// - model.SyncResult: The synced dropdown and what changed.
// - error: NOT_FOUND for an unknown dropdown, VALIDATION_ERROR from the sync itself,
// or a storage error.
func (t *TagRecon) SyncDropdown(ctx context.Context, id string, entities []model.MatchableEntity, opts model.SyncOptions) (model.SyncResult, error) {
	ctx, span := tracer.Start(ctx, "SyncDropdown")
	defer span.End()
	span.SetAttributes(attribute.String("dropdown.id", id), attribute.Int("entity.count", len(entities)))

	run := model.SyncRun{
		RunID:       model.GenerateUUIDWithSuffix("srn"),
		DropdownID:  id,
		EntityCount: len(entities),
		Options:     opts,
		StartedAt:   time.Now().UTC(),
	}

	unlock, err := t.lockDropdown(ctx, id, run.RunID)
	if err != nil {
		recordSpanError(span, err)
		return model.SyncResult{}, err
	}
	defer unlock()

	dropdown, err := t.datasource.GetDropdownByID(ctx, id)
	if err != nil {
		recordSpanError(span, err)
		return model.SyncResult{}, err
	}

	result, err := UpsertTagOptions(*dropdown, entities, opts)
	if err != nil {
		recordSpanError(span, err)
		logrus.WithFields(logrus.Fields{"dropdown_id": id, "entities": len(entities)}).Warnf("dropdown sync rejected: %v", err)
		return model.SyncResult{}, err
	}

	if result.UpdatedCount > 0 {
		if err := t.datasource.UpdateDropdownOptions(ctx, id, result.Dropdown.Options); err != nil {
			recordSpanError(span, err)
			return model.SyncResult{}, err
		}
	}

	run.UpdatedCount = result.UpdatedCount
	run.CompletedAt = ptr.Time(time.Now().UTC())
	if err := t.datasource.RecordSyncRun(ctx, &run); err != nil {
		// the options are already stored; losing the run record is not fatal
		notification.NotifyError(fmt.Errorf("recording sync run %s for dropdown %s: %w", run.RunID, id, err))
	}

	span.SetAttributes(attribute.Int("updated.count", result.UpdatedCount))
	logrus.WithFields(logrus.Fields{
		"dropdown_id":   id,
		"run_id":        run.RunID,
		"entities":      len(entities),
		"updated_count": result.UpdatedCount,
	}).Info("dropdown synced")

	if result.UpdatedCount > 0 {
		t.postSyncActions(ctx, run, result)
	}
	return result, nil
}

func (t *TagRecon) postSyncActions(ctx context.Context, run model.SyncRun, result model.SyncResult) {
	payload := map[string]interface{}{
		"run":            run,
		"updated_values": result.UpdatedValues,
	}
	go func(ctx context.Context) {
		if err := notification.SendWebhook(ctx, notification.EventDropdownSynced, payload); err != nil {
			notification.NotifyError(err)
		}
	}(context.WithoutCancel(ctx))
}

func (t *TagRecon) lockDropdown(ctx context.Context, id, holder string) (func(), error) {
	unlock := t.locks.Lock(id)
	if t.redis == nil {
		return unlock, nil
	}

	locker := redlock.NewLocker(t.redis, "tagrecon:sync:"+id, holder)
	if err := locker.WaitLock(ctx, syncLockTimeout, syncLockWait); err != nil {
		unlock()
		return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("dropdown %s is being synced elsewhere", id), err)
	}

	return func() {
		if err := locker.Unlock(context.WithoutCancel(ctx)); err != nil {
			logrus.WithField("dropdown_id", id).Warnf("releasing sync lock: %v", err)
		}
		unlock()
	}, nil
}

// GetSyncRuns lists the latest sync runs of a dropdown, newest first.
func (t *TagRecon) GetSyncRuns(ctx context.Context, dropdownID string) ([]model.SyncRun, error) {
	ctx, span := tracer.Start(ctx, "GetSyncRuns")
	defer span.End()

	if _, err := t.datasource.GetDropdownByID(ctx, dropdownID); err != nil {
		return nil, err
	}
	return t.datasource.GetSyncRuns(ctx, dropdownID, syncRunsLimit)
}

// MatchDropdownOption finds the enabled option of a dropdown whose name
// matches name. When nothing matches, the NOT_FOUND error carries the
// closest option names.
func (t *TagRecon) MatchDropdownOption(ctx context.Context, id, name string, delimiter rune) (model.TagOption, error) {
	ctx, span := tracer.Start(ctx, "MatchDropdownOption")
	defer span.End()
	span.SetAttributes(attribute.String("dropdown.id", id))

	dropdown, err := t.datasource.GetDropdownByID(ctx, id)
	if err != nil {
		recordSpanError(span, err)
		return model.TagOption{}, err
	}

	entities := dropdown.EnabledEntities()
	entity, ok := MatchEntityByName(entities, name, delimiter)
	if !ok {
		suggestions := SuggestEntityNames(entities, name, suggestionLimit())
		return model.TagOption{}, apierror.APIError{
			Code:    apierror.ErrNotFound,
			Message: fmt.Sprintf("no option of dropdown %s matches %q", id, name),
			Details: MatchSuggestions{Name: name, Suggestions: suggestions},
		}
	}

	return model.TagOption{Value: entity.EntityID, Name: entity.EntityName, IsEnabled: true}, nil
}

// PublishDropdown pushes the stored options of a dropdown to the platform.
func (t *TagRecon) PublishDropdown(ctx context.Context, authToken, id string) (*model.TagDropdown, error) {
	ctx, span := tracer.Start(ctx, "PublishDropdown")
	defer span.End()
	span.SetAttributes(attribute.String("dropdown.id", id))

	if t.publisher == nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "no platform publisher configured", nil)
	}

	dropdown, err := t.datasource.GetDropdownByID(ctx, id)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	if err := t.publisher.UpdateTagDropdown(ctx, authToken, *dropdown); err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	go func(ctx context.Context) {
		if err := notification.SendWebhook(ctx, notification.EventDropdownPublished, dropdown); err != nil {
			notification.NotifyError(err)
		}
	}(context.WithoutCancel(ctx))

	return dropdown, nil
}
