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
	"encoding/json"
	"strings"
)

// FieldType describes how the raw answer of a custom field is interpreted.
type FieldType string

const (
	FieldTypeText            FieldType = "text"
	FieldTypeYesNo           FieldType = "yes_no"
	FieldTypeDropdown        FieldType = "dropdown"
	FieldTypeDecimal         FieldType = "decimal"
	FieldTypePercentageTax   FieldType = "percentage_tax"
	FieldTypeAbsoluteTax     FieldType = "absolute_tax"
	FieldTypeMerchantAddress FieldType = "merchant_address"
	FieldTypeAllocation      FieldType = "allocation"
	FieldTypeUnknown         FieldType = "unknown"
)

var knownFieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeYesNo,
	FieldTypeDropdown,
	FieldTypeDecimal,
	FieldTypePercentageTax,
	FieldTypeAbsoluteTax,
	FieldTypeMerchantAddress,
	FieldTypeAllocation,
}

// ParseFieldType accepts the snake_case names above as well as the
// PascalCase names used by the platform ("YesNo", "PercentageTax").
// Anything else maps to FieldTypeUnknown.
func ParseFieldType(s string) FieldType {
	normalized := normalizeFieldType(s)
	for _, t := range knownFieldTypes {
		if normalizeFieldType(string(t)) == normalized {
			return t
		}
	}
	return FieldTypeUnknown
}

func normalizeFieldType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "-", "")
}

// IsSplit reports whether answers of this type carry their own allocation.
func (t FieldType) IsSplit() bool {
	return t == FieldTypeAllocation
}

func (t *FieldType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = ParseFieldType(raw)
	return nil
}

// FieldDefinition describes a custom field configured on the platform.
type FieldDefinition struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// IndexFieldDefinitions keys definitions by id. Later duplicates win.
func IndexFieldDefinitions(definitions []FieldDefinition) map[string]FieldDefinition {
	index := make(map[string]FieldDefinition, len(definitions))
	for _, definition := range definitions {
		index[definition.ID] = definition
	}
	return index
}
