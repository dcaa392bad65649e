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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/provdata/metasync/pkg/config"
)

// newSyncCmd runs one full synchronization pass.
func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the catalog and process datasets modified since the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupContext(cmd.Context())
			logger := zerolog.Ctx(ctx)

			cfg, err := config.Load(ctx, configFile)
			if err != nil {
				logger.Error().Err(err).Msg("loading config")
				return err
			}
			if cfg.Debug && !debug {
				// The config file can turn on debug logging too.
				debug = true
				ctx = setupContext(cmd.Context())
				logger = zerolog.Ctx(ctx)
			}

			orch, err := buildOrchestrator(ctx, cfg)
			if err != nil {
				logger.Error().Err(err).Msg("building pipeline")
				return err
			}

			report, err := orch.Sync(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("sync run failed")
				return err
			}

			logger.Debug().
				Int("dispatched", report.Dispatched).
				Int("succeeded", report.Succeeded).
				Int("failed", report.Failed).
				Int("skipped", len(report.Skips)).
				Msg("run report")

			return nil
		},
	}
}
