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

// Package config loads and validates the sync configuration. Config files may
// be YAML or HCL; a missing file falls back to defaults, and METASYNC_*
// environment variables override either.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultEndpoint is the CMS provider-data metastore items endpoint.
const DefaultEndpoint = "https://data.cms.gov/provider-data/api/1/metastore/schemas/dataset/items"

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete sync configuration.
type Config struct {
	Endpoint       string   `json:"endpoint" yaml:"endpoint"`                                 // Metastore catalog URL
	Theme          string   `json:"theme" yaml:"theme"`                                       // Target theme tag
	OutputDir      string   `json:"output_dir" yaml:"output_dir"`                             // Where normalized files are written
	LedgerPath     string   `json:"ledger_path" yaml:"ledger_path"`                           // Run ledger CSV path
	MaxWorkers     int      `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`       // Concurrent download bound
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"` // Per-request HTTP timeout
	IgnoreDatasets []string `json:"ignore_datasets,omitempty" yaml:"ignore_datasets,omitempty"` // Identifier globs to skip
	Debug          bool     `json:"debug,omitempty" yaml:"debug,omitempty"`                   // Enable debug logging
}

// 🏭 Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// 🎯 Load loads the configuration from a file. A missing file is not an
// error: defaults apply, then any .env file and environment overrides.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Debug().Str("path", path).Msg("config file missing, using defaults")
		cfg := Default()
		if err := cfg.applyEnv(ctx); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, errors.Errorf("validating config: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.applyEnv(ctx); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks the configuration and applies defaults.
func (cfg *Config) Validate() error {
	cfg.applyDefaults()

	if cfg.MaxWorkers < 1 {
		return errors.Errorf("max_workers must be at least 1, got %d", cfg.MaxWorkers)
	}
	if cfg.TimeoutSeconds < 1 {
		return errors.Errorf("timeout_seconds must be at least 1, got %d", cfg.TimeoutSeconds)
	}

	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	cfg.LedgerPath = filepath.Clean(cfg.LedgerPath)

	return nil
}

// applyDefaults fills in zero-valued fields.
func (cfg *Config) applyDefaults() {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Theme == "" {
		cfg.Theme = "Hospitals"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = "run_list.csv"
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 50
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = 30
	}
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s [theme=%s] -> %s (ledger %s)", cfg.Endpoint, cfg.Theme, cfg.OutputDir, cfg.LedgerPath)
}
