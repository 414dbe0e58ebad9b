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
	"encoding/json"

	"github.com/blnkfinance/tagrecon/internal/apierror"
	"github.com/blnkfinance/tagrecon/model"
)

func (d Datasource) RecordSyncRun(ctx context.Context, run *model.SyncRun) error {
	ctx, span := tracer.Start(ctx, "RecordSyncRun")
	defer span.End()

	optionsJSON, err := json.Marshal(run.Options)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal sync options", err)
	}

	err = d.Conn.QueryRowContext(ctx, `
		INSERT INTO tagrecon.sync_runs (run_id, dropdown_id, entity_count, updated_count, options, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, run.RunID, run.DropdownID, run.EntityCount, run.UpdatedCount, optionsJSON, run.StartedAt, run.CompletedAt).Scan(&run.ID)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record sync run", err)
	}
	return nil
}

func (d Datasource) GetSyncRuns(ctx context.Context, dropdownID string, limit int) ([]model.SyncRun, error) {
	ctx, span := tracer.Start(ctx, "GetSyncRuns")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, run_id, dropdown_id, entity_count, updated_count, options, started_at, completed_at
		FROM tagrecon.sync_runs
		WHERE dropdown_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, dropdownID, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve sync runs", err)
	}
	defer rows.Close()

	runs := []model.SyncRun{}
	for rows.Next() {
		var run model.SyncRun
		var optionsJSON []byte
		err = rows.Scan(&run.ID, &run.RunID, &run.DropdownID, &run.EntityCount, &run.UpdatedCount, &optionsJSON, &run.StartedAt, &run.CompletedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan sync run", err)
		}
		if err = json.Unmarshal(optionsJSON, &run.Options); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrMalformedData, "Failed to unmarshal sync options", err)
		}
		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over sync runs", err)
	}
	return runs, nil
}
