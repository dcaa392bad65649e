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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclConfig struct {
		Endpoint       string   `hcl:"endpoint,optional"`
		Theme          string   `hcl:"theme,optional"`
		OutputDir      string   `hcl:"output_dir,optional"`
		LedgerPath     string   `hcl:"ledger_path,optional"`
		MaxWorkers     int      `hcl:"max_workers,optional"`
		TimeoutSeconds int      `hcl:"timeout_seconds,optional"`
		IgnoreDatasets []string `hcl:"ignore_datasets,optional"`
		Debug          bool     `hcl:"debug,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &Config{
		Endpoint:       hclCfg.Endpoint,
		Theme:          hclCfg.Theme,
		OutputDir:      hclCfg.OutputDir,
		LedgerPath:     hclCfg.LedgerPath,
		MaxWorkers:     hclCfg.MaxWorkers,
		TimeoutSeconds: hclCfg.TimeoutSeconds,
		IgnoreDatasets: hclCfg.IgnoreDatasets,
		Debug:          hclCfg.Debug,
	}, nil
}
