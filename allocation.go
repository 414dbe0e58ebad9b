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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/blnkfinance/tagrecon/internal/apierror"
	"github.com/blnkfinance/tagrecon/model"
)

// splitAllocation is the JSON carried in the raw answer of an allocation
// field. Field names are matched case-insensitively, so both "tagId" and
// "TagId" decode.
type splitAllocation struct {
	TagID  *string                     `json:"tagId"`
	Amount decimal.Decimal             `json:"amount"`
	Items  []model.AllocationValueItem `json:"items"`
}

// ResolveAllocations turns the tag answers of financial records into
// allocations, keyed by record id.
//
// A record with allocation-type answers yields exactly those split
// allocations. Any other record yields one default allocation (nil TagID)
// carrying the absolute record amount and every other answer as an item.
// Records whose id was already resolved are skipped. Any error aborts the
// whole batch.
//
// Parameters:
// - records: The records to resolve, in order.
// - fields: The field definitions keyed by field id.
//
// Returns:
// - map[int64][]model.Allocation: Allocations keyed by record id.
// - error: INVALID_INPUT when fields is nil but answers exist, NOT_FOUND for an
// unknown field id, MALFORMED_DATA for an undecodable split answer.
func ResolveAllocations(records []model.FinancialRecord, fields map[string]model.FieldDefinition) (map[int64][]model.Allocation, error) {
	if fields == nil && anyTagAnswers(records) {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "field definitions are required to resolve tag answers", nil)
	}

	result := make(map[int64][]model.Allocation, len(records))
	for _, record := range records {
		if _, seen := result[record.ID]; seen {
			continue
		}

		allocations, err := resolveRecord(record, fields)
		if err != nil {
			return nil, err
		}
		result[record.ID] = allocations
	}
	return result, nil
}

func resolveRecord(record model.FinancialRecord, fields map[string]model.FieldDefinition) ([]model.Allocation, error) {
	defaultAllocation := model.Allocation{
		Amount: record.Amount.Abs(),
		Items:  []model.AllocationValueItem{},
	}

	var splits []model.Allocation
	for _, answer := range record.TagAnswers {
		field, ok := fields[answer.FieldID]
		if !ok {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("field definition %q not found", answer.FieldID), nil)
		}

		switch {
		case field.Type.IsSplit():
			split, err := parseSplitAllocation(record.ID, answer)
			if err != nil {
				return nil, err
			}
			splits = append(splits, split)
		default:
			defaultAllocation.Items = append(defaultAllocation.Items, model.AllocationValueItem{
				TagID: answer.FieldID,
				Value: answer.RawValue,
			})
		}
	}

	if len(splits) == 0 {
		return []model.Allocation{defaultAllocation}, nil
	}
	return splits, nil
}

func parseSplitAllocation(recordID int64, answer model.TagAnswer) (model.Allocation, error) {
	var raw splitAllocation
	if err := json.Unmarshal([]byte(answer.RawValue), &raw); err != nil {
		return model.Allocation{}, malformedSplit(recordID, answer.FieldID, err)
	}

	if raw.TagID == nil {
		return model.Allocation{}, malformedSplit(recordID, answer.FieldID, errors.New("split allocation has no tagId"))
	}

	allocation := model.Allocation{TagID: raw.TagID, Amount: raw.Amount, Items: raw.Items}
	if allocation.Items == nil {
		allocation.Items = []model.AllocationValueItem{}
	}
	return allocation, nil
}

func malformedSplit(recordID int64, fieldID string, cause error) error {
	return apierror.NewAPIError(apierror.ErrMalformedData,
		fmt.Sprintf("allocation answer for field %q on record %d could not be parsed", fieldID, recordID), cause)
}

func anyTagAnswers(records []model.FinancialRecord) bool {
	for _, record := range records {
		if record.HasTagAnswers() {
			return true
		}
	}
	return false
}
