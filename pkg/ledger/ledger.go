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

// Package ledger persists the append-only log of sync runs. The ledger is the
// only durable state the pipeline owns: one CSV row per completed run, and the
// maximum recorded run date is the cutoff for the next run.
package ledger

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🚨 ErrCorruptLedger is returned when a stored run_date cannot be parsed.
var ErrCorruptLedger = errors.New("corrupt run ledger")

// sentinelCutoff is the "beginning of time" returned when no runs are recorded.
var sentinelCutoff = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

const dateLayout = "2006-01-02"

// 📅 Date is a calendar date stored as YYYY-MM-DD in the ledger.
type Date time.Time

// MarshalCSV implements csvutil.Marshaler.
func (d Date) MarshalCSV() ([]byte, error) {
	return []byte(time.Time(d).Format(dateLayout)), nil
}

// UnmarshalCSV implements csvutil.Unmarshaler.
func (d *Date) UnmarshalCSV(data []byte) error {
	t, err := time.Parse(dateLayout, string(data))
	if err != nil {
		return errors.Errorf("parsing run date %q: %w", string(data), err)
	}
	*d = Date(t)
	return nil
}

// 📦 RunRecord is one completed run: the date it ran and how many files it processed.
type RunRecord struct {
	RunDate        Date `csv:"run_date"`
	ProcessedCount int  `csv:"processed_count"`
}

// 📒 Ledger reads and appends run records at a fixed path. The path is
// injected at construction; there is no package-level default.
type Ledger struct {
	path string
}

// 🏭 New creates a ledger bound to the given CSV path.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the backing file path.
func (l *Ledger) Path() string {
	return l.path
}

// 🔍 ReadCutoff returns the maximum run date across all recorded runs, or the
// 1900-01-01 sentinel when no runs exist. A missing store is created with its
// header so the first Append has somewhere to land. A store whose run_date
// column cannot be parsed fails with ErrCorruptLedger.
func (l *Ledger) ReadCutoff(ctx context.Context) (time.Time, error) {
	logger := zerolog.Ctx(ctx)

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		logger.Debug().Str("path", l.path).Msg("ledger missing, creating empty store")
		if err := l.create(); err != nil {
			return time.Time{}, err
		}
		return sentinelCutoff, nil
	}
	if err != nil {
		return time.Time{}, errors.Errorf("opening run ledger: %w", err)
	}
	defer f.Close()

	records, err := decodeRecords(f)
	if err != nil {
		return time.Time{}, errors.Errorf("%w: %v", ErrCorruptLedger, err)
	}

	cutoff := sentinelCutoff
	for _, rec := range records {
		if t := time.Time(rec.RunDate); t.After(cutoff) {
			cutoff = t
		}
	}

	logger.Debug().
		Str("path", l.path).
		Int("records", len(records)).
		Time("cutoff", cutoff).
		Msg("read ledger cutoff")

	return cutoff, nil
}

// ✍️ Append adds exactly one run record to the end of the store. Existing
// rows are never rewritten or truncated.
func (l *Ledger) Append(ctx context.Context, date time.Time, count int) error {
	logger := zerolog.Ctx(ctx)

	if count < 0 {
		return errors.Errorf("processed count must be non-negative, got %d", count)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Errorf("opening run ledger for append: %w", err)
	}
	defer f.Close()

	// A freshly created store still needs its header row.
	info, err := f.Stat()
	if err != nil {
		return errors.Errorf("checking run ledger: %w", err)
	}

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	enc.AutoHeader = false

	if info.Size() == 0 {
		if err := enc.EncodeHeader(RunRecord{}); err != nil {
			return errors.Errorf("writing ledger header: %w", err)
		}
	}

	rec := RunRecord{RunDate: Date(date), ProcessedCount: count}
	if err := enc.Encode(rec); err != nil {
		return errors.Errorf("encoding run record: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Errorf("flushing run ledger: %w", err)
	}

	logger.Info().
		Str("path", l.path).
		Str("run_date", date.Format(dateLayout)).
		Int("processed_count", count).
		Msg("appended run record")

	return nil
}

// create writes a new store containing only the header row.
func (l *Ledger) create() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Errorf("creating run ledger: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	if err := enc.EncodeHeader(RunRecord{}); err != nil {
		return errors.Errorf("writing ledger header: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Errorf("flushing ledger header: %w", err)
	}
	return nil
}

// decodeRecords reads all run records from the store. A store with no header
// at all (zero bytes) decodes as zero records rather than an error.
func decodeRecords(r io.Reader) ([]RunRecord, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading ledger header: %w", err)
	}

	var records []RunRecord
	// A header-only store has no data rows; the decoder reports that as EOF,
	// which is zero records, not corruption.
	if err := dec.Decode(&records); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("decoding run records: %w", err)
	}
	return records, nil
}
