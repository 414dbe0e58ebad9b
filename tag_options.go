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
	"fmt"

	"golang.org/x/text/cases"

	"github.com/blnkfinance/tagrecon/internal/apierror"
	"github.com/blnkfinance/tagrecon/model"
)

// duplicateSuffix is appended to a stale option whose name collides with an
// option being synced.
const duplicateSuffix = "*"

// updateTracker collects the distinct option values touched during a sync.
type updateTracker struct {
	fold   cases.Caser
	seen   map[string]struct{}
	values []string
}

func newUpdateTracker(fold cases.Caser) *updateTracker {
	return &updateTracker{fold: fold, seen: make(map[string]struct{})}
}

func (u *updateTracker) mark(value string) {
	key := u.fold.String(value)
	if _, ok := u.seen[key]; ok {
		return
	}
	u.seen[key] = struct{}{}
	u.values = append(u.values, value)
}

// UpsertTagOptions reconciles the options of a dropdown against an external
// entity list and returns the new dropdown state. The input dropdown is left
// untouched.
//
// A nil entities slice means no entity list was supplied: nothing is inserted,
// renamed or disabled and only the enabled-option invariant is repaired. A
// non-nil empty slice is a list with zero entities, so with DisableDeleted
// every option gets disabled before the repair re-enables the first one.
//
// Parameters:
// - dropdown: The stored dropdown.
// - entities: The external entities, in the order they should be applied.
// - opts: Rename, disable and duplicate handling switches.
//
// Returns:
// - model.SyncResult: The synced dropdown and the distinct option values that changed.
// - error: A VALIDATION_ERROR APIError when the entities or the resulting options are inconsistent.
func UpsertTagOptions(dropdown model.TagDropdown, entities []model.MatchableEntity, opts model.SyncOptions) (model.SyncResult, error) {
	synced := dropdown.Clone()
	fold := cases.Fold()
	updated := newUpdateTracker(fold)

	if entities != nil {
		if err := validateEntities(entities, fold); err != nil {
			return model.SyncResult{}, err
		}

		entityIDs := make(map[string]struct{}, len(entities))
		for _, entity := range entities {
			entityIDs[fold.String(entity.EntityID)] = struct{}{}

			index := findOptionByValue(synced.Options, entity.EntityID, fold)
			if index >= 0 {
				if opts.UpdateNames && synced.Options[index].Name != entity.EntityName {
					synced.Options[index].Name = entity.EntityName
					updated.mark(synced.Options[index].Value)
				}
			} else {
				synced.Options = append(synced.Options, model.TagOption{
					Value:     entity.EntityID,
					Name:      entity.EntityName,
					IsEnabled: true,
				})
				index = len(synced.Options) - 1
				updated.mark(entity.EntityID)
			}

			if opts.HandleDuplicates {
				if err := resolveDuplicateNames(synced.Options, index, fold, updated); err != nil {
					return model.SyncResult{}, err
				}
			}
		}

		if opts.DisableDeleted {
			for i := range synced.Options {
				option := &synced.Options[i]
				if _, ok := entityIDs[fold.String(option.Value)]; ok {
					continue
				}
				option.IsEnabled = false
				updated.mark(option.Value)
			}
		}
	}

	if len(synced.Options) > 0 && !synced.HasEnabledOption() {
		synced.Options[0].IsEnabled = true
		updated.mark(synced.Options[0].Value)
	}

	if err := ValidateTagOptions(synced.Options); err != nil {
		return model.SyncResult{}, err
	}

	return model.SyncResult{
		Dropdown:      synced,
		UpdatedCount:  len(updated.values),
		UpdatedValues: updated.values,
	}, nil
}

// ValidateTagOptions checks that option names and values are unique
// (case-insensitive) and that a non-empty option list has an enabled option.
func ValidateTagOptions(options []model.TagOption) error {
	fold := cases.Fold()
	names := make(map[string]struct{}, len(options))
	values := make(map[string]struct{}, len(options))
	enabled := false

	for _, option := range options {
		name := fold.String(option.Name)
		if _, ok := names[name]; ok {
			return apierror.NewAPIError(apierror.ErrValidation, fmt.Sprintf("duplicate option name %q", option.Name), nil)
		}
		names[name] = struct{}{}

		value := fold.String(option.Value)
		if _, ok := values[value]; ok {
			return apierror.NewAPIError(apierror.ErrValidation, fmt.Sprintf("duplicate option value %q", option.Value), nil)
		}
		values[value] = struct{}{}

		enabled = enabled || option.IsEnabled
	}

	if len(options) > 0 && !enabled {
		return apierror.NewAPIError(apierror.ErrValidation, "dropdown must have at least one enabled option", nil)
	}
	return nil
}

func validateEntities(entities []model.MatchableEntity, fold cases.Caser) error {
	names := make(map[string]struct{}, len(entities))
	ids := make(map[string]struct{}, len(entities))

	for _, entity := range entities {
		name := fold.String(entity.EntityName)
		if _, ok := names[name]; ok {
			return apierror.NewAPIError(apierror.ErrValidation, fmt.Sprintf("duplicate entity name %q", entity.EntityName), nil)
		}
		names[name] = struct{}{}

		id := fold.String(entity.EntityID)
		if _, ok := ids[id]; ok {
			return apierror.NewAPIError(apierror.ErrValidation, fmt.Sprintf("duplicate entity id %q", entity.EntityID), nil)
		}
		ids[id] = struct{}{}
	}
	return nil
}

func findOptionByValue(options []model.TagOption, value string, fold cases.Caser) int {
	key := fold.String(value)
	for i, option := range options {
		if fold.String(option.Value) == key {
			return i
		}
	}
	return -1
}

func findDuplicateName(options []model.TagOption, index int, fold cases.Caser) int {
	name := fold.String(options[index].Name)
	value := fold.String(options[index].Value)
	for i, option := range options {
		if i == index || fold.String(option.Value) == value {
			continue
		}
		if fold.String(option.Name) == name {
			return i
		}
	}
	return -1
}

// resolveDuplicateNames suffixes every option whose name collides with the
// option at start, then the options those renames collide with, until all
// names reachable from start are unique. The option at start keeps its name.
func resolveDuplicateNames(options []model.TagOption, start int, fold cases.Caser, updated *updateTracker) error {
	budget := len(options) * len(options)
	pending := []int{start}

	for len(pending) > 0 {
		current := pending[len(pending)-1]
		other := findDuplicateName(options, current, fold)
		if other < 0 {
			pending = pending[:len(pending)-1]
			continue
		}

		if budget == 0 {
			return apierror.NewAPIError(apierror.ErrValidation, fmt.Sprintf("could not disambiguate option name %q", options[start].Name), nil)
		}
		budget--

		options[other].Name += duplicateSuffix
		updated.mark(options[other].Value)
		pending = append(pending, other)
	}
	return nil
}
