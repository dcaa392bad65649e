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

package sync

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/provdata/metasync/pkg/header"
	"github.com/provdata/metasync/pkg/status"
)

// 🚨 Per-file worker errors. These never abort the run.
var (
	ErrNetwork       = errors.New("download network error")
	ErrMalformedFile = errors.New("malformed dataset file")
)

// 📦 Outcome describes one successfully processed dataset file.
type Outcome struct {
	URL             string
	OutputPath      string            // Relative to the output directory
	Status          status.FileStatus // new / modified / unchanged
	Rows            int               // Data rows written (header excluded)
	DuplicateTokens []string          // Normalized header tokens that collided
}

// 👷 Worker downloads one dataset file, normalizes its header row, and
// writes the result. Each invocation is fully independent: its own request,
// its own buffer, its own output path.
type Worker struct {
	http  *http.Client
	files *status.Manager
}

// 🏭 NewWorker creates a worker writing through the given output manager.
func NewWorker(files *status.Manager, timeout time.Duration) *Worker {
	return &Worker{
		http:  &http.Client{Timeout: timeout},
		files: files,
	}
}

// 🏃 Run fetches the resource at rawURL, rewrites its header row with
// canonical tokens, and writes the output file named after the final path
// segment of the URL. Data rows are preserved verbatim.
func (w *Worker) Run(ctx context.Context, rawURL string) (*Outcome, error) {
	logger := zerolog.Ctx(ctx)

	outName, err := outputName(rawURL)
	if err != nil {
		return nil, err
	}

	body, err := w.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	rows, err := decodeCSV(body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("%w: %s has no header row", ErrMalformedFile, rawURL)
	}

	tokens, duplicates := header.NormalizeRow(rows[0])
	if len(duplicates) > 0 {
		// Kept first-occurrence: columns are written as-is, the collision is
		// only reported.
		logger.Warn().
			Str("url", rawURL).
			Strs("tokens", duplicates).
			Msg("duplicate normalized header tokens")
	}
	rows[0] = tokens

	content, err := encodeCSV(rows)
	if err != nil {
		return nil, err
	}

	fileStatus := w.files.Classify(ctx, outName, content)
	if err := w.files.WriteFileAtomic(ctx, outName, content); err != nil {
		return nil, errors.Errorf("writing output file: %w", err)
	}

	w.files.TrackFile(ctx, outName, status.FileInfo{
		Path:     outName,
		Source:   rawURL,
		Status:   fileStatus,
		Size:     int64(len(content)),
		Checksum: status.Checksum(content),
	})

	return &Outcome{
		URL:             rawURL,
		OutputPath:      outName,
		Status:          fileStatus,
		Rows:            len(rows) - 1,
		DuplicateTokens: duplicates,
	}, nil
}

// download fetches the full response body, classifying transport failures
// and non-2xx statuses as network errors.
func (w *Worker) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Errorf("creating download request: %w", err)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, errors.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("%w: status %d from %s", ErrNetwork, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Errorf("%w: reading body: %v", ErrNetwork, err)
	}
	return body, nil
}

// decodeCSV parses the body as UTF-8 CSV with no fixed column count.
func decodeCSV(body []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Errorf("%w: %v", ErrMalformedFile, err)
	}
	return rows, nil
}

// encodeCSV writes rows back out with standard comma/quote conventions.
func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, errors.Errorf("encoding output CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// outputName derives the output filename from the final /-delimited segment
// of the download URL.
func outputName(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", errors.Errorf("parsing download URL %q: %w", rawURL, err)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", errors.Errorf("download URL %q has no file segment", rawURL)
	}
	return name, nil
}
