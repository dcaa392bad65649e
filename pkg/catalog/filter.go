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

package catalog

import (
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// 🔎 FilterTheme retains descriptors whose theme list contains target as an
// element. Descriptors without a usable theme are skipped, not failed.
func FilterTheme(datasets []Dataset, target string) ([]Dataset, []Skip) {
	var kept []Dataset
	var skips []Skip

	for _, ds := range datasets {
		if len(ds.Theme) == 0 {
			skips = append(skips, Skip{Identifier: ds.Identifier, Reason: SkipNoTheme})
			continue
		}

		found := false
		for _, th := range ds.Theme {
			if th == target {
				found = true
				break
			}
		}
		if !found {
			skips = append(skips, Skip{Identifier: ds.Identifier, Reason: SkipThemeMismatch})
			continue
		}

		kept = append(kept, ds)
	}

	return kept, skips
}

// 🔎 FilterModifiedAfter retains descriptors whose modified timestamp parses
// and is strictly greater than cutoff. Ties are excluded so a file whose date
// exactly matches the last run boundary is never processed twice.
func FilterModifiedAfter(datasets []Dataset, cutoff time.Time) ([]Dataset, []Skip) {
	var kept []Dataset
	var skips []Skip

	for _, ds := range datasets {
		if ds.Modified == "" {
			skips = append(skips, Skip{Identifier: ds.Identifier, Reason: SkipNoModified})
			continue
		}

		mod, err := ParseModified(ds.Modified)
		if err != nil {
			skips = append(skips, Skip{Identifier: ds.Identifier, Reason: SkipBadModified, Detail: ds.Modified})
			continue
		}

		if !mod.After(cutoff) {
			skips = append(skips, Skip{Identifier: ds.Identifier, Reason: SkipNotRecent, Detail: ds.Modified})
			continue
		}

		kept = append(kept, ds)
	}

	return kept, skips
}

// 🔎 FilterIgnored drops descriptors whose identifier matches any of the
// configured glob patterns. Patterns that fail to compile are treated as
// non-matching.
func FilterIgnored(datasets []Dataset, patterns []string) ([]Dataset, []Skip) {
	if len(patterns) == 0 {
		return datasets, nil
	}

	var kept []Dataset
	var skips []Skip

	for _, ds := range datasets {
		ignored := false
		for _, pattern := range patterns {
			matched, err := doublestar.Match(pattern, ds.Identifier)
			if err != nil {
				continue
			}
			if matched {
				ignored = true
				skips = append(skips, Skip{Identifier: ds.Identifier, Reason: SkipIgnored, Detail: pattern})
				break
			}
		}
		if !ignored {
			kept = append(kept, ds)
		}
	}

	return kept, skips
}
