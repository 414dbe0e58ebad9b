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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/tagrecon"
	"github.com/blnkfinance/tagrecon/config"
	"github.com/blnkfinance/tagrecon/model"
)

// readJSONFile decodes the JSON document at path into v. "-" reads stdin.
func readJSONFile(path string, v interface{}) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "opening %s", path)
		}
		defer f.Close()
		r = f
	}
	return errors.Wrapf(json.NewDecoder(r).Decode(v), "decoding %s", path)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

type matchOutput struct {
	Matched     bool                   `json:"matched"`
	Entity      *model.MatchableEntity `json:"entity,omitempty"`
	Suggestions []string               `json:"suggestions,omitempty"`
}

func suggestionLimit() int {
	if cfg, err := config.Fetch(); err == nil && cfg.Matcher.SuggestionLimit > 0 {
		return cfg.Matcher.SuggestionLimit
	}
	return config.DEFAULT_MATCH_SUGGESTION_SIZE
}

func runMatch(w io.Writer, entities []model.MatchableEntity, name, delimiter string) error {
	entity, ok := tagrecon.MatchEntityByName(entities, name, tagrecon.MatchDelimiter(delimiter))
	if !ok {
		return printJSON(w, matchOutput{Suggestions: tagrecon.SuggestEntityNames(entities, name, suggestionLimit())})
	}
	return printJSON(w, matchOutput{Matched: true, Entity: &entity})
}

// matchCommands returns `match`, which matches a name against an entity list
// read from a JSON file without touching the database.
func matchCommands() *cobra.Command {
	var entitiesFile, delimiter string

	cmd := &cobra.Command{
		Use:         "match [name]",
		Short:       "match a name against a JSON list of entities",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipSetup: "", offline: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			var entities []model.MatchableEntity
			if err := readJSONFile(entitiesFile, &entities); err != nil {
				return err
			}
			return runMatch(cmd.OutOrStdout(), entities, args[0], delimiter)
		},
	}
	cmd.Flags().StringVar(&entitiesFile, "entities", "-", "JSON file holding the entity list, - for stdin")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "hierarchy delimiter, defaults to the configured one")

	return cmd
}

func runReconcile(w io.Writer, dropdown model.TagDropdown, entities []model.MatchableEntity, opts model.SyncOptions) error {
	result, err := tagrecon.UpsertTagOptions(dropdown, entities, opts)
	if err != nil {
		return err
	}
	return printJSON(w, result)
}

// reconcileCommands returns `reconcile`, a dry run of a dropdown sync over
// local JSON files. Switches left unset follow the configured defaults.
func reconcileCommands() *cobra.Command {
	var dropdownFile, entitiesFile string
	var updateNames, disableDeleted, handleDuplicates bool

	cmd := &cobra.Command{
		Use:         "reconcile",
		Short:       "reconcile a dropdown JSON file against an entity list without saving",
		Annotations: map[string]string{skipSetup: "", offline: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			if dropdownFile == "-" && entitiesFile == "-" {
				return fmt.Errorf("only one of --dropdown and --entities can read stdin")
			}

			opts := tagrecon.DefaultSyncOptions()
			flags := cmd.Flags()
			if flags.Changed("update-names") {
				opts.UpdateNames = updateNames
			}
			if flags.Changed("disable-deleted") {
				opts.DisableDeleted = disableDeleted
			}
			if flags.Changed("handle-duplicates") {
				opts.HandleDuplicates = handleDuplicates
			}

			var dropdown model.TagDropdown
			if err := readJSONFile(dropdownFile, &dropdown); err != nil {
				return err
			}
			var entities []model.MatchableEntity
			if err := readJSONFile(entitiesFile, &entities); err != nil {
				return err
			}
			return runReconcile(cmd.OutOrStdout(), dropdown, entities, opts)
		},
	}
	cmd.Flags().StringVar(&dropdownFile, "dropdown", "", "JSON file holding the dropdown")
	cmd.Flags().StringVar(&entitiesFile, "entities", "-", "JSON file holding the entity list, - for stdin")
	cmd.Flags().BoolVar(&updateNames, "update-names", false, "rename options whose entity was renamed")
	cmd.Flags().BoolVar(&disableDeleted, "disable-deleted", false, "disable options whose entity is gone")
	cmd.Flags().BoolVar(&handleDuplicates, "handle-duplicates", false, "suffix duplicate names instead of failing")
	_ = cmd.MarkFlagRequired("dropdown")

	return cmd
}
