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
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, 5*time.Second)
	require.NoError(t, err, "client construction should succeed")
	return client
}

func TestFetchAll(t *testing.T) {
	body := `[
		{
			"identifier": "ds-1",
			"title": "General Information",
			"theme": ["Hospitals"],
			"modified": "2024-07-01",
			"distribution": [{"downloadURL": "https://example.com/general.csv"}]
		},
		{
			"identifier": "ds-2",
			"theme": "Hospitals",
			"modified": "2024-07-01"
		},
		{
			"theme": ["Hospitals"]
		},
		{
			"identifier": "ds-4"
		}
	]`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})

	datasets, skips, err := client.FetchAll(context.Background())
	require.NoError(t, err)

	// ds-2 has a scalar theme, the third record has no identifier: both are
	// shape skips. ds-4 is valid shape; its missing fields are filter
	// concerns, not decode concerns.
	require.Len(t, datasets, 2, "two records should decode")
	assert.Equal(t, "ds-1", datasets[0].Identifier)
	assert.Equal(t, []string{"Hospitals"}, datasets[0].Theme)
	assert.Equal(t, "https://example.com/general.csv", datasets[0].FirstDownloadURL())
	assert.Equal(t, "ds-4", datasets[1].Identifier)

	require.Len(t, skips, 2, "two records should be skipped")
	for _, s := range skips {
		assert.Equal(t, SkipInvalidShape, s.Reason, "schema failures should be shape skips")
	}

	// The first skip carries its identifier even though the record is
	// malformed; the second record never had one.
	assert.Equal(t, "ds-2", skips[0].Identifier, "a shape skip should keep the record's identifier when present")
	assert.Empty(t, skips[1].Identifier)
}

func TestFetchAll_NonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, _, err := client.FetchAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork, "non-2xx should be a network error")
}

func TestFetchAll_BodyNotArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	_, _, err := client.FetchAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogParse, "non-array body should be a parse error")
}

func TestFetchAll_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, _, err = client.FetchAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork, "connection failure should be a network error")
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient("", time.Second)
	require.Error(t, err, "empty endpoint should be rejected")
}

func TestParseModified(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{
			name: "rfc3339",
			raw:  "2024-06-01T10:30:00Z",
			want: time.Date(2024, time.June, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "date_only",
			raw:  "2024-06-01",
			want: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "naive_datetime",
			raw:  "2024-06-01T10:30:00",
			want: time.Date(2024, time.June, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			raw:     "06/01/2024",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModified(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "parsed time should match, got %s", got)
		})
	}
}
