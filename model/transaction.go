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

	"github.com/shopspring/decimal"
)

// TagAnswer is one custom field answer attached to a transaction or a
// payment request.
type TagAnswer struct {
	FieldID  string `json:"field_id"`
	RawValue string `json:"raw_value"`
}

// FinancialRecord is the shape shared by transactions and payment requests
// for allocation resolution.
type FinancialRecord struct {
	ID         int64           `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	TagAnswers []TagAnswer     `json:"tag_answers,omitempty"`
}

// HasTagAnswers reports whether the record carries at least one answer.
func (r FinancialRecord) HasTagAnswers() bool {
	return len(r.TagAnswers) > 0
}

// Transaction is a card transaction as supplied by the platform.
type Transaction struct {
	TransactionID int64           `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description"`
	TagAnswers    []TagAnswer     `json:"tag_answers,omitempty"`
}

func (transaction *Transaction) ToJSON() ([]byte, error) {
	return json.Marshal(transaction)
}

func (transaction *Transaction) ToFinancialRecord() FinancialRecord {
	return FinancialRecord{ID: transaction.TransactionID, Amount: transaction.Amount, TagAnswers: transaction.TagAnswers}
}

// PaymentRequest is a reimbursement or invoice payment request. Its id space
// is 32 bit on the platform.
type PaymentRequest struct {
	PaymentRequestID int32           `json:"payment_request_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Reference        string          `json:"reference"`
	TagAnswers       []TagAnswer     `json:"tag_answers,omitempty"`
}

func (request *PaymentRequest) ToFinancialRecord() FinancialRecord {
	return FinancialRecord{ID: int64(request.PaymentRequestID), Amount: request.Amount, TagAnswers: request.TagAnswers}
}

// TransactionRecords converts transactions into financial records, keeping order.
func TransactionRecords(transactions []Transaction) []FinancialRecord {
	records := make([]FinancialRecord, len(transactions))
	for i := range transactions {
		records[i] = transactions[i].ToFinancialRecord()
	}
	return records
}

// PaymentRequestRecords converts payment requests into financial records, keeping order.
func PaymentRequestRecords(requests []PaymentRequest) []FinancialRecord {
	records := make([]FinancialRecord, len(requests))
	for i := range requests {
		records[i] = requests[i].ToFinancialRecord()
	}
	return records
}
