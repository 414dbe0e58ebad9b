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

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blnkfinance/tagrecon/internal/apierror"
	"github.com/blnkfinance/tagrecon/internal/cache"
	"github.com/blnkfinance/tagrecon/model"
)

const fieldDefinitionsCachePrefix = "field_definitions:"

func fieldDefinitionsCacheKey(authToken string) string {
	return fieldDefinitionsCachePrefix + model.HashToken(authToken)
}

// FieldDefinitions returns the field definitions visible to authToken,
// served from cache when possible. Cache failures fall through to the source.
func (t *TagRecon) FieldDefinitions(ctx context.Context, authToken string) ([]model.FieldDefinition, error) {
	ctx, span := tracer.Start(ctx, "FieldDefinitions")
	defer span.End()

	if t.fields == nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "no field definition source configured", nil)
	}

	key := fieldDefinitionsCacheKey(authToken)
	if t.cache != nil {
		var cached []model.FieldDefinition
		err := t.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			logrus.Warnf("reading field definitions from cache: %v", err)
		}
	}

	definitions, err := t.fields.FetchFieldDefinitions(ctx, authToken)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	if definitions == nil {
		definitions = []model.FieldDefinition{}
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, key, definitions, fieldDefinitionTTL()); err != nil {
			logrus.Warnf("caching field definitions: %v", err)
		}
	}

	span.SetAttributes(attribute.Bool("cache.hit", false), attribute.Int("field.count", len(definitions)))
	return definitions, nil
}

// ResolveAllocations resolves the allocations of records, fetching field
// definitions once and only when some record carries tag answers.
//
// Parameters:
// - ctx: The context for the operation. Cancelling it aborts the fetch.
// - authToken: The token forwarded to the field definition source.
// - records: The records to resolve.
//
// Returns:
// - map[int64][]model.Allocation: Allocations keyed by record id.
// - error: The fetch error, or the error of the pure resolver.
func (t *TagRecon) ResolveAllocations(ctx context.Context, authToken string, records []model.FinancialRecord) (map[int64][]model.Allocation, error) {
	ctx, span := tracer.Start(ctx, "ResolveAllocations")
	defer span.End()
	span.SetAttributes(attribute.Int("record.count", len(records)))

	var fields map[string]model.FieldDefinition
	if anyTagAnswers(records) {
		definitions, err := t.FieldDefinitions(ctx, authToken)
		if err != nil {
			return nil, err
		}
		fields = model.IndexFieldDefinitions(definitions)
	}

	allocations, err := ResolveAllocations(records, fields)
	if err != nil {
		recordSpanError(span, err)
		logrus.WithField("records", len(records)).Warnf("allocation resolution failed: %v", err)
		return nil, err
	}
	return allocations, nil
}

// ResolveTransactionAllocations resolves allocations keyed by transaction id.
func (t *TagRecon) ResolveTransactionAllocations(ctx context.Context, authToken string, transactions []model.Transaction) (map[int64][]model.Allocation, error) {
	return t.ResolveAllocations(ctx, authToken, model.TransactionRecords(transactions))
}

// ResolvePaymentRequestAllocations resolves allocations keyed by payment request id.
func (t *TagRecon) ResolvePaymentRequestAllocations(ctx context.Context, authToken string, requests []model.PaymentRequest) (map[int64][]model.Allocation, error) {
	return t.ResolveAllocations(ctx, authToken, model.PaymentRequestRecords(requests))
}
