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

package config

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Environment variables recognized as overrides.
const (
	EnvEndpoint   = "METASYNC_ENDPOINT"
	EnvTheme      = "METASYNC_THEME"
	EnvOutputDir  = "METASYNC_OUTPUT_DIR"
	EnvLedgerPath = "METASYNC_LEDGER_PATH"
	EnvMaxWorkers = "METASYNC_MAX_WORKERS"
)

// applyEnv loads a .env file if one is present, then applies METASYNC_*
// environment variables on top of the parsed config. Environment always wins
// over file values.
func (cfg *Config) applyEnv(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return errors.Errorf("loading .env file: %w", err)
		}
	} else {
		logger.Debug().Msg("loaded .env file")
	}

	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv(EnvTheme); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv(EnvLedgerPath); v != "" {
		cfg.LedgerPath = v
	}
	if v := os.Getenv(EnvMaxWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Errorf("parsing %s: %w", EnvMaxWorkers, err)
		}
		cfg.MaxWorkers = n
	}

	return nil
}
