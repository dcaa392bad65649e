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

// Package sync orchestrates the incremental catalog synchronization run:
// ledger cutoff, catalog fetch, two-stage filtering, bounded-concurrency
// fetch-and-transform, and the final ledger append.
package sync

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/provdata/metasync/pkg/catalog"
	"github.com/provdata/metasync/pkg/config"
	"github.com/provdata/metasync/pkg/ledger"
	"github.com/provdata/metasync/pkg/log"
	"github.com/provdata/metasync/pkg/status"
)

// 🚦 Phase names the orchestrator's sequential states. Only the worker span
// (dispatching/collecting) is concurrent.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseReadingCutoff   Phase = "reading_cutoff"
	PhaseFetchingCatalog Phase = "fetching_catalog"
	PhaseFiltering       Phase = "filtering"
	PhaseDispatching     Phase = "dispatching"
	PhaseCollecting      Phase = "collecting"
	PhaseUpdatingLedger  Phase = "updating_ledger"
	PhaseDone            Phase = "done"
)

// 📊 Report aggregates the counts of one run. It is produced on every
// non-fatal completion, even when every individual file failed.
type Report struct {
	Cutoff         time.Time
	TotalDatasets  int
	ThemeMatched   int
	RecencyMatched int
	Dispatched     int
	Succeeded      int
	Failed         int
	Skips          []catalog.Skip
}

// 🔧 Options contains the orchestrator's collaborators.
type Options struct {
	Config  *config.Config
	Catalog *catalog.Client
	Ledger  *ledger.Ledger
	Files   *status.Manager
	Now     func() time.Time // Defaults to time.Now
}

// 🎮 Orchestrator wires ledger, catalog, filters and workers into one run.
type Orchestrator struct {
	cfg     *catalogConfig
	catalog *catalog.Client
	ledger  *ledger.Ledger
	files   *status.Manager
	worker  *Worker
	now     func() time.Time
	phase   Phase
}

// catalogConfig is the subset of config the orchestrator consumes.
type catalogConfig struct {
	theme          string
	maxWorkers     int
	ignoreDatasets []string
}

// 🏭 New creates an orchestrator with the given collaborators.
func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("catalog client is required")
	}
	if opts.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if opts.Files == nil {
		return nil, errors.New("output manager is required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		cfg: &catalogConfig{
			theme:          opts.Config.Theme,
			maxWorkers:     opts.Config.MaxWorkers,
			ignoreDatasets: opts.Config.IgnoreDatasets,
		},
		catalog: opts.Catalog,
		ledger:  opts.Ledger,
		files:   opts.Files,
		worker:  NewWorker(opts.Files, time.Duration(opts.Config.TimeoutSeconds)*time.Second),
		now:     now,
		phase:   PhaseIdle,
	}, nil
}

// Phase returns the orchestrator's current phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// enter transitions into a phase and logs it.
func (o *Orchestrator) enter(ctx context.Context, p Phase) {
	o.phase = p
	zerolog.Ctx(ctx).Debug().Str("phase", string(p)).Msg("entering phase")
}

// 🏃 Sync executes one full run. Failures while reading the cutoff, fetching
// the catalog, or appending to the ledger are fatal and leave the ledger
// unmodified for this run; per-file worker failures are logged, counted, and
// never abort the run.
func (o *Orchestrator) Sync(ctx context.Context) (*Report, error) {
	console := log.FromContext(ctx)
	report := &Report{}

	// Reading cutoff
	o.enter(ctx, PhaseReadingCutoff)
	cutoff, err := o.ledger.ReadCutoff(ctx)
	if err != nil {
		return nil, errors.Errorf("reading ledger cutoff: %w", err)
	}
	report.Cutoff = cutoff
	console.Header(o.cfg.theme, cutoff)

	// Fetching catalog
	o.enter(ctx, PhaseFetchingCatalog)
	datasets, shapeSkips, err := o.catalog.FetchAll(ctx)
	if err != nil {
		return nil, errors.Errorf("fetching catalog: %w", err)
	}
	report.TotalDatasets = len(datasets) + len(shapeSkips)
	report.Skips = append(report.Skips, shapeSkips...)

	// Filtering
	o.enter(ctx, PhaseFiltering)
	themed, themeSkips := catalog.FilterTheme(datasets, o.cfg.theme)
	report.ThemeMatched = len(themed)
	report.Skips = append(report.Skips, themeSkips...)

	recent, recencySkips := catalog.FilterModifiedAfter(themed, cutoff)
	report.RecencyMatched = len(recent)
	report.Skips = append(report.Skips, recencySkips...)

	selected, ignoreSkips := catalog.FilterIgnored(recent, o.cfg.ignoreDatasets)
	report.Skips = append(report.Skips, ignoreSkips...)

	urls := make([]string, 0, len(selected))
	for _, ds := range selected {
		u := strings.TrimSpace(ds.FirstDownloadURL())
		if u == "" {
			report.Skips = append(report.Skips, catalog.Skip{
				Identifier: ds.Identifier,
				Reason:     catalog.SkipNoDistribution,
			})
			continue
		}
		urls = append(urls, u)
	}
	report.Dispatched = len(urls)

	// Dispatching / collecting
	if len(urls) > 0 {
		if err := o.files.EnsureDir(ctx); err != nil {
			return nil, err
		}
		o.runWorkers(ctx, urls, report)
	}

	// Updating ledger: happens-after every worker has completed or failed.
	o.enter(ctx, PhaseUpdatingLedger)
	if err := o.ledger.Append(ctx, o.now(), report.Succeeded); err != nil {
		return nil, errors.Errorf("updating run ledger: %w", err)
	}

	o.enter(ctx, PhaseDone)
	console.Summary(report.TotalDatasets, report.ThemeMatched, report.RecencyMatched, report.Succeeded, report.Failed)
	console.Done(report.Succeeded)

	return report, nil
}

// workerResult carries one worker's completion to the collector.
type workerResult struct {
	url     string
	outcome *Outcome
	err     error
}

// runWorkers dispatches one worker per URL under the concurrency bound and
// collects results as they complete. Only the collecting goroutine touches
// the report counters; workers share no mutable state.
func (o *Orchestrator) runWorkers(ctx context.Context, urls []string, report *Report) {
	console := log.FromContext(ctx)

	o.enter(ctx, PhaseDispatching)
	o.files.StartOperation(ctx, len(urls))

	results := make(chan workerResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.maxWorkers)

	for _, u := range urls {
		u := u
		g.Go(func() error {
			outcome, err := o.worker.Run(gctx, u)
			results <- workerResult{url: u, outcome: outcome, err: err}
			// Worker failures are per-file; never fail the group.
			return nil
		})
	}

	go func() {
		_ = g.Wait() // workers never return errors
		close(results)
	}()

	o.enter(ctx, PhaseCollecting)
	collected := 0
	for res := range results {
		collected++
		o.files.UpdateProgress(ctx, collected)

		if res.err != nil {
			report.Failed++
			console.DatasetDone(log.DatasetOperation{URL: res.url, Err: res.err})
			continue
		}

		report.Succeeded++
		console.DatasetDone(log.DatasetOperation{
			URL:        res.outcome.URL,
			OutputPath: res.outcome.OutputPath,
			Status:     res.outcome.Status.String(),
			Rows:       res.outcome.Rows,
		})
		if len(res.outcome.DuplicateTokens) > 0 {
			console.Warningf("%s: duplicate header tokens kept as-is: %s",
				res.outcome.OutputPath, strings.Join(res.outcome.DuplicateTokens, ", "))
		}
	}

	o.files.FinishOperation(ctx)
}
