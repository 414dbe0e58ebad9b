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

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/tagrecon/internal/apierror"
	"github.com/blnkfinance/tagrecon/model"
)

var tracer = otel.Tracer("tagrecon.database")

func (d Datasource) CreateDropdown(ctx context.Context, dropdown model.TagDropdown) (model.TagDropdown, error) {
	ctx, span := tracer.Start(ctx, "CreateDropdown")
	defer span.End()

	if dropdown.Options == nil {
		dropdown.Options = []model.TagOption{}
	}
	optionsJSON, err := json.Marshal(dropdown.Options)
	if err != nil {
		return model.TagDropdown{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal options", err)
	}

	now := time.Now().UTC()
	dropdown.CreatedAt = now
	dropdown.UpdatedAt = now

	err = d.Conn.QueryRowContext(ctx, `
		INSERT INTO tagrecon.tag_dropdowns (dropdown_id, field_id, name, options, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, dropdown.DropdownID, dropdown.FieldID, dropdown.Name, optionsJSON, dropdown.CreatedAt, dropdown.UpdatedAt).Scan(&dropdown.ID)
	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return model.TagDropdown{}, apierror.NewAPIError(apierror.ErrConflict, "Dropdown with this ID or field already exists", err)
			default:
				return model.TagDropdown{}, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return model.TagDropdown{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create dropdown", err)
	}

	return dropdown, nil
}

func (d Datasource) GetDropdownByID(ctx context.Context, id string) (*model.TagDropdown, error) {
	ctx, span := tracer.Start(ctx, "GetDropdownByID")
	defer span.End()

	row := d.Conn.QueryRowContext(ctx, `
		SELECT id, dropdown_id, field_id, name, options, created_at, updated_at
		FROM tagrecon.tag_dropdowns
		WHERE dropdown_id = $1
	`, id)

	dropdown, err := scanDropdown(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Dropdown with ID '%s' not found", id), err)
		}
		return nil, err
	}
	return &dropdown, nil
}

func (d Datasource) GetAllDropdowns(ctx context.Context, limit, offset int) ([]model.TagDropdown, error) {
	ctx, span := tracer.Start(ctx, "GetAllDropdowns")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, dropdown_id, field_id, name, options, created_at, updated_at
		FROM tagrecon.tag_dropdowns
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve dropdowns", err)
	}
	defer rows.Close()

	dropdowns := []model.TagDropdown{}
	for rows.Next() {
		dropdown, err := scanDropdown(rows)
		if err != nil {
			return nil, err
		}
		dropdowns = append(dropdowns, dropdown)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over dropdowns", err)
	}
	return dropdowns, nil
}

func (d Datasource) UpdateDropdownOptions(ctx context.Context, id string, options []model.TagOption) error {
	ctx, span := tracer.Start(ctx, "UpdateDropdownOptions")
	defer span.End()

	if options == nil {
		options = []model.TagOption{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal options", err)
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE tagrecon.tag_dropdowns
		SET options = $2, updated_at = $3
		WHERE dropdown_id = $1
	`, id, optionsJSON, time.Now().UTC())
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update dropdown options", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Dropdown with ID '%s' not found", id), nil)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDropdown(row scanner) (model.TagDropdown, error) {
	var dropdown model.TagDropdown
	var optionsJSON []byte
	err := row.Scan(&dropdown.ID, &dropdown.DropdownID, &dropdown.FieldID, &dropdown.Name, &optionsJSON, &dropdown.CreatedAt, &dropdown.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return dropdown, err
		}
		return dropdown, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan dropdown data", err)
	}

	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &dropdown.Options); err != nil {
			return dropdown, apierror.NewAPIError(apierror.ErrMalformedData, "Failed to unmarshal dropdown options", err)
		}
	}
	if dropdown.Options == nil {
		dropdown.Options = []model.TagOption{}
	}
	return dropdown, nil
}
