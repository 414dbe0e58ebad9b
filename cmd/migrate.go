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

package main

import (
	"fmt"
	"log"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/tagrecon"
	"github.com/blnkfinance/tagrecon/database"
)

const migrationSchema = "tagrecon"

func migrationSource() migrate.EmbedFileSystemMigrationSource {
	return migrate.EmbedFileSystemMigrationSource{
		FileSystem: tagrecon.SQLFiles,
		Root:       "sql",
	}
}

func migrateCommands(t *tagreconInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "migrate",
		Short:       "run tagrecon database migrations",
		Annotations: map[string]string{skipSetup: ""},
	}

	cmd.AddCommand(migrateDirectionCommand(t, "up", migrate.Up))
	cmd.AddCommand(migrateDirectionCommand(t, "down", migrate.Down))

	return cmd
}

func migrateDirectionCommand(t *tagreconInstance, use string, direction migrate.MigrationDirection) *cobra.Command {
	return &cobra.Command{
		Use:         use,
		Short:       fmt.Sprintf("apply migrations %s", use),
		Annotations: map[string]string{skipSetup: ""},
		Run: func(cmd *cobra.Command, args []string) {
			db, err := database.ConnectDB(t.cnf.DataSource.Dns)
			if err != nil {
				log.Fatalf("Error connecting to database: %v", err)
			}
			defer db.Close()

			migrate.SetSchema(migrationSchema)

			n, err := migrate.Exec(db, "postgres", migrationSource(), direction)
			if err != nil {
				log.Fatalf("Error migrating %s: %v", use, err)
			}
			fmt.Printf("Applied %d migrations %s!\n", n, use)
		},
	}
}
