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
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/provdata/metasync/pkg/catalog"
	"github.com/provdata/metasync/pkg/config"
	"github.com/provdata/metasync/pkg/ledger"
	"github.com/provdata/metasync/pkg/log"
	"github.com/provdata/metasync/pkg/status"
	"github.com/provdata/metasync/pkg/sync"
)

var (
	// Flags
	configFile string
	debug      bool
)

// newRootCmd builds the metasync command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "metasync",
		Short:         "Incrementally sync themed open-data catalog files into a local store",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", ".metasync.yaml", "config file path")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	root.AddCommand(newSyncCmd())
	root.AddCommand(newStatusCmd())

	return root
}

// setupContext wires the zerolog logger and the console reporter into ctx.
func setupContext(ctx context.Context) context.Context {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	ctx = logger.WithContext(ctx)

	console := log.New(os.Stdout, level)
	return log.NewContext(ctx, console)
}

// buildOrchestrator assembles the pipeline from the loaded config.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*sync.Orchestrator, error) {
	client, err := catalog.NewClient(cfg.Endpoint, time.Duration(cfg.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	files := status.New(cfg.OutputDir, logger)

	return sync.New(sync.Options{
		Config:  cfg,
		Catalog: client,
		Ledger:  ledger.New(cfg.LedgerPath),
		Files:   files,
	})
}
