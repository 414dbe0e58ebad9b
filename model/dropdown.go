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

import "time"

// TagOption is one selectable choice of a dropdown field.
type TagOption struct {
	Value     string `json:"value"`
	Name      string `json:"name"`
	IsEnabled bool   `json:"is_enabled"`
}

// TagDropdown is a dropdown custom field together with its stored options.
// Options keep their stored order; new options are appended at the end.
type TagDropdown struct {
	ID         int64       `json:"-"`
	DropdownID string      `json:"dropdown_id"`
	FieldID    string      `json:"field_id"`
	Name       string      `json:"name"`
	Options    []TagOption `json:"options"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Clone returns a copy of the dropdown that shares no option storage with d.
func (d TagDropdown) Clone() TagDropdown {
	clone := d
	if d.Options != nil {
		clone.Options = make([]TagOption, len(d.Options))
		copy(clone.Options, d.Options)
	}
	return clone
}

// HasEnabledOption reports whether at least one option is enabled.
func (d TagDropdown) HasEnabledOption() bool {
	for _, option := range d.Options {
		if option.IsEnabled {
			return true
		}
	}
	return false
}

// EnabledEntities converts the enabled options into matchable entities,
// using the option value as the entity id.
func (d TagDropdown) EnabledEntities() []MatchableEntity {
	entities := make([]MatchableEntity, 0, len(d.Options))
	for _, option := range d.Options {
		if !option.IsEnabled {
			continue
		}
		entities = append(entities, MatchableEntity{EntityID: option.Value, EntityName: option.Name})
	}
	return entities
}

// SyncOptions controls how a dropdown is reconciled against an entity list.
type SyncOptions struct {
	UpdateNames      bool `json:"update_names"`
	DisableDeleted   bool `json:"disable_deleted"`
	HandleDuplicates bool `json:"handle_duplicates"`
}

// DefaultSyncOptions keeps stored names, disables options whose entity
// disappeared and disambiguates duplicate names.
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		UpdateNames:      false,
		DisableDeleted:   true,
		HandleDuplicates: true,
	}
}

// SyncResult is the outcome of one synchronization.
type SyncResult struct {
	Dropdown      TagDropdown `json:"dropdown"`
	UpdatedCount  int         `json:"updated_count"`
	UpdatedValues []string    `json:"updated_values"`
}

// SyncRun records a synchronization performed by the service.
type SyncRun struct {
	ID           int64       `json:"-"`
	RunID        string      `json:"run_id"`
	DropdownID   string      `json:"dropdown_id"`
	EntityCount  int         `json:"entity_count"`
	UpdatedCount int         `json:"updated_count"`
	Options      SyncOptions `json:"options"`
	StartedAt    time.Time   `json:"started_at"`
	CompletedAt  *time.Time  `json:"completed_at"`
}
