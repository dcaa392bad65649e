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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterTheme(t *testing.T) {
	tests := []struct {
		name      string
		datasets  []Dataset
		target    string
		wantIDs   []string
		wantSkips []SkipReason
	}{
		{
			name:     "empty_input",
			datasets: nil,
			target:   "Hospitals",
		},
		{
			name: "membership_among_several_tags",
			datasets: []Dataset{
				{Identifier: "a", Theme: []string{"Hospitals", "Quality"}},
			},
			target:  "Hospitals",
			wantIDs: []string{"a"},
		},
		{
			name: "theme_absent_is_dropped_without_error",
			datasets: []Dataset{
				{Identifier: "a"},
				{Identifier: "b", Theme: []string{"Hospitals"}},
			},
			target:    "Hospitals",
			wantIDs:   []string{"b"},
			wantSkips: []SkipReason{SkipNoTheme},
		},
		{
			name: "no_partial_string_match",
			datasets: []Dataset{
				{Identifier: "a", Theme: []string{"Hospital Readmissions"}},
			},
			target:    "Hospitals",
			wantSkips: []SkipReason{SkipThemeMismatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, skips := FilterTheme(tt.datasets, tt.target)

			var ids []string
			for _, ds := range kept {
				ids = append(ids, ds.Identifier)
			}
			assert.Equal(t, tt.wantIDs, ids, "kept identifiers should match")

			var reasons []SkipReason
			for _, s := range skips {
				reasons = append(reasons, s.Reason)
			}
			assert.Equal(t, tt.wantSkips, reasons, "skip reasons should match")
		})
	}
}

func TestFilterModifiedAfter(t *testing.T) {
	cutoff := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		modified string
		want     bool
		reason   SkipReason
	}{
		{
			name:     "exactly_cutoff_excluded",
			modified: "2024-06-01T00:00:00Z",
			want:     false,
			reason:   SkipNotRecent,
		},
		{
			name:     "one_microsecond_later_included",
			modified: "2024-06-01T00:00:00.000001Z",
			want:     true,
		},
		{
			name:     "date_only_after",
			modified: "2024-06-02",
			want:     true,
		},
		{
			name:     "date_only_before",
			modified: "2024-05-31",
			want:     false,
			reason:   SkipNotRecent,
		},
		{
			name:     "naive_timestamp_taken_as_utc",
			modified: "2024-06-01T12:00:00",
			want:     true,
		},
		{
			name:     "missing_modified_dropped",
			modified: "",
			want:     false,
			reason:   SkipNoModified,
		},
		{
			name:     "unparsable_modified_dropped",
			modified: "last tuesday",
			want:     false,
			reason:   SkipBadModified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, skips := FilterModifiedAfter([]Dataset{{Identifier: "x", Modified: tt.modified}}, cutoff)

			if tt.want {
				require.Len(t, kept, 1, "descriptor should be retained")
				assert.Empty(t, skips, "no skips expected")
			} else {
				assert.Empty(t, kept, "descriptor should be dropped")
				require.Len(t, skips, 1, "one skip expected")
				assert.Equal(t, tt.reason, skips[0].Reason, "skip reason should match")
			}
		})
	}
}

func TestFilterIgnored(t *testing.T) {
	datasets := []Dataset{
		{Identifier: "hospitals/general-info"},
		{Identifier: "hospitals/legacy-2019"},
		{Identifier: "clinics/locations"},
	}

	kept, skips := FilterIgnored(datasets, []string{"hospitals/legacy-*"})

	require.Len(t, kept, 2, "two descriptors should survive")
	assert.Equal(t, "hospitals/general-info", kept[0].Identifier)
	assert.Equal(t, "clinics/locations", kept[1].Identifier)

	require.Len(t, skips, 1)
	assert.Equal(t, SkipIgnored, skips[0].Reason)
	assert.Equal(t, "hospitals/legacy-*", skips[0].Detail, "skip should record the matching pattern")
}

func TestFilterIgnored_NoPatterns(t *testing.T) {
	datasets := []Dataset{{Identifier: "a"}}
	kept, skips := FilterIgnored(datasets, nil)
	assert.Equal(t, datasets, kept, "no patterns means passthrough")
	assert.Empty(t, skips)
}

func TestFirstDownloadURL(t *testing.T) {
	ds := Dataset{Distribution: []Distribution{
		{DownloadURL: "https://example.com/a.csv"},
		{DownloadURL: "https://example.com/b.csv"},
	}}
	assert.Equal(t, "https://example.com/a.csv", ds.FirstDownloadURL(), "only the first distribution is used")
	assert.Equal(t, "", Dataset{}.FirstDownloadURL(), "no distribution yields empty URL")
}
