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
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/cases"

	"github.com/blnkfinance/tagrecon/model"
)

// NoDelimiter disables hierarchical matching in MatchEntityByName.
const NoDelimiter rune = 0

// MatchEntityByName finds the entity whose name matches targetName.
//
// Without a delimiter only case-insensitive exact matches count and the first
// one wins. With a delimiter an entity also matches when targetName is the
// last segment of its hierarchical name ("Expense:Travel" matches "Travel"
// for ':'). When several entities match, a single exact match wins; otherwise
// the deepest path wins, ties going to the earliest entity.
//
// Parameters:
// - entities: The candidate entities, in priority order.
// - targetName: The name to look for.
// - delimiter: The hierarchy separator, or NoDelimiter.
//
// Returns:
// - model.MatchableEntity: The matched entity.
// - bool: false when nothing matched.
func MatchEntityByName(entities []model.MatchableEntity, targetName string, delimiter rune) (model.MatchableEntity, bool) {
	if targetName == "" {
		return model.MatchableEntity{}, false
	}

	fold := cases.Fold()
	target := fold.String(targetName)

	if delimiter == NoDelimiter {
		for _, entity := range entities {
			if fold.String(entity.EntityName) == target {
				return entity, true
			}
		}
		return model.MatchableEntity{}, false
	}

	suffix := fold.String(string(delimiter) + targetName)
	var candidates, exact []model.MatchableEntity
	for _, entity := range entities {
		name := fold.String(entity.EntityName)
		switch {
		case name == target:
			candidates = append(candidates, entity)
			exact = append(exact, entity)
		case strings.HasSuffix(name, suffix):
			candidates = append(candidates, entity)
		}
	}

	switch len(candidates) {
	case 0:
		return model.MatchableEntity{}, false
	case 1:
		return candidates[0], true
	}

	if len(exact) == 1 {
		return exact[0], true
	}

	pool := candidates
	if len(exact) > 1 {
		pool = exact
	}
	return deepestEntity(pool, delimiter), true
}

// deepestEntity returns the first entity with the most delimiter occurrences.
func deepestEntity(entities []model.MatchableEntity, delimiter rune) model.MatchableEntity {
	sep := string(delimiter)
	best, bestDepth := entities[0], strings.Count(entities[0].EntityName, sep)
	for _, entity := range entities[1:] {
		if depth := strings.Count(entity.EntityName, sep); depth > bestDepth {
			best, bestDepth = entity, depth
		}
	}
	return best
}

// SuggestEntityNames returns up to limit entity names closest to targetName by
// edit distance. It is used to hint at likely typos when nothing matched.
func SuggestEntityNames(entities []model.MatchableEntity, targetName string, limit int) []string {
	if targetName == "" || limit <= 0 || len(entities) == 0 {
		return nil
	}

	fold := cases.Fold()
	target := []rune(fold.String(targetName))

	type scored struct {
		name     string
		distance int
	}
	scores := make([]scored, 0, len(entities))
	for _, entity := range entities {
		distance := levenshtein.DistanceForStrings(target, []rune(fold.String(entity.EntityName)), levenshtein.DefaultOptions)
		// Scores past the target length are unrelated names, not typos.
		if distance > len(target) {
			continue
		}
		scores = append(scores, scored{name: entity.EntityName, distance: distance})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].distance < scores[j].distance
	})

	if len(scores) > limit {
		scores = scores[:limit]
	}
	names := make([]string, len(scores))
	for i, s := range scores {
		names[i] = s.name
	}
	return names
}
