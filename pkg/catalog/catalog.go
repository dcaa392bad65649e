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

// Package catalog fetches and filters dataset descriptors from an open-data
// metastore. The catalog is expected to contain noisy records; anything that
// fails shape or field checks becomes an inspectable Skip, never an error.
package catalog

import (
	"time"

	"gitlab.com/tozd/go/errors"
)

// 🚨 Fatal catalog errors. Everything else is a Skip.
var (
	ErrNetwork      = errors.New("catalog network error")
	ErrCatalogParse = errors.New("catalog parse error")
)

// 📦 Distribution is one downloadable representation of a dataset.
type Distribution struct {
	DownloadURL string `json:"downloadURL"`
	MediaType   string `json:"mediaType,omitempty"`
	Title       string `json:"title,omitempty"`
}

// 📦 Dataset is a descriptor from the metastore catalog. Modified is kept in
// its raw string form; parsing happens during recency filtering so that a bad
// value is a per-record skip rather than a decode failure.
type Dataset struct {
	Identifier   string         `json:"identifier"`
	Title        string         `json:"title,omitempty"`
	Theme        []string       `json:"theme,omitempty"`
	Modified     string         `json:"modified,omitempty"`
	Distribution []Distribution `json:"distribution,omitempty"`
}

// FirstDownloadURL returns the first distribution's download URL, or "" when
// the descriptor carries no usable distribution. Only the first entry is
// considered; later distributions are deliberately ignored.
func (d Dataset) FirstDownloadURL() string {
	if len(d.Distribution) == 0 {
		return ""
	}
	return d.Distribution[0].DownloadURL
}

// 🏷️ SkipReason classifies why a descriptor was dropped from consideration.
type SkipReason string

const (
	SkipInvalidShape   SkipReason = "invalid_shape"
	SkipNoTheme        SkipReason = "no_theme"
	SkipThemeMismatch  SkipReason = "theme_mismatch"
	SkipNoModified     SkipReason = "no_modified"
	SkipBadModified    SkipReason = "bad_modified"
	SkipNotRecent      SkipReason = "not_recent"
	SkipNoDistribution SkipReason = "no_distribution"
	SkipIgnored        SkipReason = "ignored"
)

// 🏷️ Skip records one dropped descriptor and why. Skips are tolerated
// data-quality noise, surfaced for observability and tests.
type Skip struct {
	Identifier string
	Reason     SkipReason
	Detail     string
}

// modifiedLayouts are the ISO-8601 shapes the metastore has been seen to emit.
var modifiedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseModified parses a descriptor's modified field. Layouts without a zone
// are taken as UTC.
func ParseModified(raw string) (time.Time, error) {
	for _, layout := range modifiedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized modified timestamp %q", raw)
}
