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
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/provdata/metasync/pkg/catalog"
	"github.com/provdata/metasync/pkg/config"
	"github.com/provdata/metasync/pkg/ledger"
)

// newStatusCmd reports what a sync run would do, without downloading
// anything or touching the ledger.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current cutoff and how many datasets are pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupContext(cmd.Context())
			logger := zerolog.Ctx(ctx)

			cfg, err := config.Load(ctx, configFile)
			if err != nil {
				logger.Error().Err(err).Msg("loading config")
				return err
			}

			cutoff, err := ledger.New(cfg.LedgerPath).ReadCutoff(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("reading ledger")
				return err
			}

			client, err := catalog.NewClient(cfg.Endpoint, time.Duration(cfg.TimeoutSeconds)*time.Second)
			if err != nil {
				return err
			}

			datasets, skips, err := client.FetchAll(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("fetching catalog")
				return err
			}

			// Same three-stage filter the sync run applies.
			themed, _ := catalog.FilterTheme(datasets, cfg.Theme)
			recent, _ := catalog.FilterModifiedAfter(themed, cutoff)
			pending, _ := catalog.FilterIgnored(recent, cfg.IgnoreDatasets)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cutoff:          %s\n", cutoff.Format("2006-01-02"))
			fmt.Fprintf(out, "catalog size:    %d (%d malformed)\n", len(datasets)+len(skips), len(skips))
			fmt.Fprintf(out, "theme %q: %d\n", cfg.Theme, len(themed))
			fmt.Fprintf(out, "pending:         %d\n", len(pending))

			return nil
		},
	}
}
