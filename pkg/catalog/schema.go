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
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gitlab.com/tozd/go/errors"
)

// datasetSchema shape-checks a single catalog record before it is decoded.
// It is deliberately loose: theme, modified and distribution are optional
// (their absence is a filter-stage skip, not invalid shape), but when present
// they must have the right types. Only identifier is required.
const datasetSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["identifier"],
	"properties": {
		"identifier": {"type": "string", "minLength": 1},
		"title": {"type": "string"},
		"theme": {
			"type": "array",
			"items": {"type": "string"}
		},
		"modified": {"type": "string"},
		"distribution": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"downloadURL": {"type": "string"}
				}
			}
		}
	}
}`

// compileDatasetSchema compiles the embedded dataset record schema.
func compileDatasetSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(datasetSchema))
	if err != nil {
		return nil, errors.Errorf("unmarshaling dataset schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("dataset.schema.json", doc); err != nil {
		return nil, errors.Errorf("adding dataset schema resource: %w", err)
	}

	schema, err := compiler.Compile("dataset.schema.json")
	if err != nil {
		return nil, errors.Errorf("compiling dataset schema: %w", err)
	}
	return schema, nil
}
