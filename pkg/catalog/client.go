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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gitlab.com/tozd/go/errors"
)

// 🌐 Client retrieves the full dataset catalog from a metastore endpoint.
// The endpoint is assumed to return the complete catalog in one response;
// there is no pagination.
type Client struct {
	endpoint string
	http     *http.Client
	schema   *jsonschema.Schema
}

// 🏭 NewClient creates a catalog client for the given endpoint.
func NewClient(endpoint string, timeout time.Duration) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("catalog endpoint is required")
	}

	schema, err := compileDatasetSchema()
	if err != nil {
		return nil, err
	}

	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		schema:   schema,
	}, nil
}

// Endpoint returns the configured metastore URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// 📥 FetchAll issues one GET to the metastore and decodes the response into
// dataset descriptors. Transport failures and non-2xx statuses fail with
// ErrNetwork; a body that is not a JSON array fails with ErrCatalogParse.
// Individual records that fail schema validation are returned as Skips.
func (c *Client) FetchAll(ctx context.Context) ([]Dataset, []Skip, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("endpoint", c.endpoint).Msg("fetching catalog")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, nil, errors.Errorf("creating catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, errors.Errorf("%w: fetching catalog: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, errors.Errorf("%w: catalog returned status %d", ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Errorf("%w: reading catalog body: %v", ErrNetwork, err)
	}

	return c.decode(ctx, body)
}

// decode parses the catalog body into descriptors, schema-validating each
// record so malformed entries become skips instead of decode failures.
func (c *Client) decode(ctx context.Context, body []byte) ([]Dataset, []Skip, error) {
	logger := zerolog.Ctx(ctx)

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, errors.Errorf("%w: body is not a JSON array: %v", ErrCatalogParse, err)
	}

	datasets := make([]Dataset, 0, len(raw))
	var skips []Skip

	for i, item := range raw {
		value, err := jsonschema.UnmarshalJSON(bytes.NewReader(item))
		if err != nil {
			skips = append(skips, Skip{Identifier: rawIdentifier(item), Reason: SkipInvalidShape, Detail: err.Error()})
			continue
		}
		if err := c.schema.Validate(value); err != nil {
			logger.Debug().Int("index", i).Err(err).Msg("catalog record failed schema validation")
			skips = append(skips, Skip{Identifier: rawIdentifier(item), Reason: SkipInvalidShape, Detail: err.Error()})
			continue
		}

		var ds Dataset
		if err := json.Unmarshal(item, &ds); err != nil {
			skips = append(skips, Skip{Identifier: rawIdentifier(item), Reason: SkipInvalidShape, Detail: err.Error()})
			continue
		}
		datasets = append(datasets, ds)
	}

	logger.Debug().
		Int("datasets", len(datasets)).
		Int("skipped", len(skips)).
		Msg("decoded catalog")

	return datasets, skips, nil
}

// rawIdentifier best-effort extracts the identifier from a record that failed
// shape validation, so the skip stays attributable.
func rawIdentifier(item json.RawMessage) string {
	var partial struct {
		Identifier string `json:"identifier"`
	}
	if err := json.Unmarshal(item, &partial); err != nil {
		return ""
	}
	return partial.Identifier
}
