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
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/blnkfinance/tagrecon/model"
)

var delimiterRule = validation.RuneLength(0, 1).Error("delimiter must be a single character")

func optionRule(value interface{}) error {
	option, ok := value.(model.TagOption)
	if !ok {
		return errors.New("invalid option type")
	}
	return validation.ValidateStruct(&option,
		validation.Field(&option.Value, validation.Required),
		validation.Field(&option.Name, validation.Required),
	)
}

func entityRule(value interface{}) error {
	entity, ok := value.(model.MatchableEntity)
	if !ok {
		return errors.New("invalid entity type")
	}
	return validation.ValidateStruct(&entity,
		validation.Field(&entity.EntityID, validation.Required),
		validation.Field(&entity.EntityName, validation.Required),
	)
}

func (d *CreateDropdown) ValidateCreateDropdown() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Options, validation.Each(validation.By(optionRule))),
	)
}

func (s *SyncDropdown) ValidateSyncDropdown() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Entities, validation.Each(validation.By(entityRule))),
	)
}

func (m *MatchOption) ValidateMatchOption() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.Delimiter, delimiterRule),
	)
}

func (m *MatchEntities) ValidateMatchEntities() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.Delimiter, delimiterRule),
		validation.Field(&m.Entities, validation.Each(validation.By(entityRule))),
	)
}

func (r *ResolveTransactionAllocations) ValidateResolveTransactionAllocations() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Transactions, validation.NotNil),
	)
}

func (r *ResolvePaymentRequestAllocations) ValidateResolvePaymentRequestAllocations() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PaymentRequests, validation.NotNil),
	)
}
