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

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Wiring(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "sync", "sync subcommand should be registered")
	assert.Contains(t, names, "status", "status subcommand should be registered")

	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}

func TestSyncCmd_EndToEnd(t *testing.T) {
	dir := t.TempDir()

	fileSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Facility ID,Score\nF1,10\n"))
	}))
	t.Cleanup(fileSrv.Close)

	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{
			"identifier": "fresh",
			"theme": ["Hospitals"],
			"modified": "2024-08-01",
			"distribution": [{"downloadURL": "%s/fresh.csv"}]
		}]`, fileSrv.URL)
	}))
	t.Cleanup(catalogSrv.Close)

	cfgPath := filepath.Join(dir, "metasync.yaml")
	cfg := fmt.Sprintf("endpoint: %s\ntheme: Hospitals\noutput_dir: %s\nledger_path: %s\n",
		catalogSrv.URL,
		filepath.Join(dir, "output"),
		filepath.Join(dir, "run_list.csv"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"sync", "--config", cfgPath})

	require.NoError(t, root.ExecuteContext(context.Background()), "sync command should succeed")

	content, err := os.ReadFile(filepath.Join(dir, "output", "fresh.csv"))
	require.NoError(t, err)
	assert.Equal(t, "facility_id,score\nF1,10\n", string(content))

	ledgerData, err := os.ReadFile(filepath.Join(dir, "run_list.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(ledgerData), ",1\n", "ledger should record one processed file")
}

func TestStatusCmd_EndToEnd(t *testing.T) {
	dir := t.TempDir()

	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"identifier": "fresh",
			"theme": ["Hospitals"],
			"modified": "2024-08-01",
			"distribution": [{"downloadURL": "https://example.com/fresh.csv"}]
		}]`))
	}))
	t.Cleanup(catalogSrv.Close)

	ledgerPath := filepath.Join(dir, "run_list.csv")
	cfgPath := filepath.Join(dir, "metasync.yaml")
	cfg := fmt.Sprintf("endpoint: %s\nledger_path: %s\noutput_dir: %s\n",
		catalogSrv.URL, ledgerPath, filepath.Join(dir, "output"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"status", "--config", cfgPath})

	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "cutoff:          1900-01-01", "fresh ledger should report the sentinel")
	assert.Contains(t, out.String(), "pending:         1", "one dataset should be pending")

	// status must not append to the ledger
	data, err := os.ReadFile(ledgerPath)
	require.NoError(t, err)
	assert.Equal(t, "run_date,processed_count\n", string(data), "status must not record a run")
}

func TestStatusCmd_AppliesIgnoreGlobs(t *testing.T) {
	dir := t.TempDir()

	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{
				"identifier": "fresh",
				"theme": ["Hospitals"],
				"modified": "2024-08-01",
				"distribution": [{"downloadURL": "https://example.com/fresh.csv"}]
			},
			{
				"identifier": "legacy-export",
				"theme": ["Hospitals"],
				"modified": "2024-08-01",
				"distribution": [{"downloadURL": "https://example.com/legacy.csv"}]
			}
		]`))
	}))
	t.Cleanup(catalogSrv.Close)

	cfgPath := filepath.Join(dir, "metasync.yaml")
	cfg := fmt.Sprintf("endpoint: %s\nledger_path: %s\noutput_dir: %s\nignore_datasets:\n  - \"legacy-*\"\n",
		catalogSrv.URL, filepath.Join(dir, "run_list.csv"), filepath.Join(dir, "output"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"status", "--config", cfgPath})

	require.NoError(t, root.ExecuteContext(context.Background()))

	// The pending count must reflect what sync would dispatch, so the
	// ignored identifier is excluded.
	assert.Contains(t, out.String(), "theme \"Hospitals\": 2")
	assert.Contains(t, out.String(), "pending:         1", "ignored datasets must not count as pending")
}
