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

import "github.com/shopspring/decimal"

// AllocationValueItem is one tag value attached to an allocation.
type AllocationValueItem struct {
	TagID string `json:"tagId"`
	Value string `json:"value"`
}

// Allocation is one category of spend on a financial record.
// A nil TagID marks the default allocation synthesized when a record carries
// no split answers.
type Allocation struct {
	TagID  *string               `json:"tagId"`
	Amount decimal.Decimal       `json:"amount"`
	Items  []AllocationValueItem `json:"items"`
}

// IsDefault reports whether a is the synthesized, unsplit allocation.
func (a Allocation) IsDefault() bool {
	return a.TagID == nil
}

// SumAllocations adds up the amounts of allocations.
func SumAllocations(allocations []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, allocation := range allocations {
		total = total.Add(allocation.Amount)
	}
	return total
}
