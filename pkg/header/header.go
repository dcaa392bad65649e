// Copyright 2025 provdata LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package header canonicalizes CSV column names into lowercase snake_case tokens.
package header

import (
	"regexp"
	"strings"
)

var (
	// punctuation removed outright, with no replacement
	punctuation = regexp.MustCompile(`[’'",()\[\]{}]`)

	// every maximal run of non-alphanumerics collapses to one underscore
	separators = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// 🔤 Normalize converts a raw column name into its canonical token form.
// It is pure and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = punctuation.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "_")
	s = strings.ToLower(s)
	return strings.Trim(s, "_")
}

// 🔤 NormalizeRow normalizes every column of a header row independently,
// preserving column order. Duplicate tokens are kept as-is (first-occurrence
// semantics); the second return value lists each token that appeared more
// than once, so callers can surface the collision.
func NormalizeRow(columns []string) ([]string, []string) {
	tokens := make([]string, len(columns))
	seen := make(map[string]int, len(columns))
	var duplicates []string

	for i, col := range columns {
		tok := Normalize(col)
		tokens[i] = tok
		seen[tok]++
		if seen[tok] == 2 {
			duplicates = append(duplicates, tok)
		}
	}

	return tokens, duplicates
}
