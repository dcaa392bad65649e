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

// Package log provides the user-facing console reporter for sync runs,
// mirroring every console line into structured zerolog events.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎯 DatasetOperation represents one processed dataset file for logging.
type DatasetOperation struct {
	URL        string // Source download URL
	OutputPath string // Where the file landed
	Status     string // new / modified / unchanged / failed
	Rows       int    // Data rows written
	Err        error  // Set when the worker failed
}

// 🎯 Console handles user-visible progress output with a zerolog mirror.
type Console struct {
	zlog    zerolog.Logger
	out     io.Writer
	mu      sync.Mutex
	success pterm.PrefixPrinter
	failure pterm.PrefixPrinter
}

// 🏭 New creates a console reporter writing human output to out. The zerolog
// mirror goes to stderr so structured lines never interleave with the console.
func New(out io.Writer, level zerolog.Level) *Console {
	return NewWithMirror(out, os.Stderr, level)
}

// 🏭 NewWithMirror creates a console reporter with an explicit mirror writer.
func NewWithMirror(out, mirror io.Writer, level zerolog.Level) *Console {
	zlog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = mirror
	})).With().Timestamp().Logger().Level(level)

	success := pterm.Success.WithWriter(out).WithPrefix(pterm.Prefix{Text: "✓", Style: pterm.Success.Prefix.Style})
	failure := pterm.Error.WithWriter(out).WithPrefix(pterm.Prefix{Text: "✗", Style: pterm.Error.Prefix.Style})

	return &Console{
		zlog:    zlog,
		out:     out,
		success: *success,
		failure: *failure,
	}
}

// 🔑 contextKey is the type for context values.
type contextKey struct{}

// 🎯 FromContext gets the console from context, or a silent fallback.
func FromContext(ctx context.Context) *Console {
	c, ok := ctx.Value(contextKey{}).(*Console)
	if !ok {
		return New(io.Discard, zerolog.Disabled)
	}
	return c
}

// 🎯 NewContext adds the console to context.
func NewContext(ctx context.Context, c *Console) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// 📝 Header prints the run banner with the cutoff in use.
func (c *Console) Header(theme string, cutoff time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := color.New(color.Bold, color.FgCyan).Sprint("metasync")
	fmt.Fprintf(c.out, "\n%s %s\n", name,
		color.New(color.Faint).Sprintf("• syncing %q datasets modified after %s", theme, cutoff.Format("2006-01-02")))

	c.zlog.Info().
		Str("theme", theme).
		Time("cutoff", cutoff).
		Msg("starting sync run")
}

// 📝 DatasetDone prints one per-file completion or failure line.
func (c *Console) DatasetDone(op DatasetOperation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if op.Err != nil {
		c.failure.Printfln("%s: %v", op.URL, op.Err)
		c.zlog.Error().Str("url", op.URL).Err(op.Err).Msg("dataset failed")
		return
	}

	c.success.Printfln("%s %s", op.OutputPath,
		color.New(color.Faint).Sprintf("(%s, %d rows)", op.Status, op.Rows))
	c.zlog.Info().
		Str("url", op.URL).
		Str("output", op.OutputPath).
		Str("status", op.Status).
		Int("rows", op.Rows).
		Msg("dataset complete")
}

// 📝 Warning prints a warning line.
func (c *Console) Warning(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	c.zlog.Warn().Msg(msg)
}

// 📝 Warningf prints a formatted warning line.
func (c *Console) Warningf(format string, args ...interface{}) {
	c.Warning(fmt.Sprintf(format, args...))
}

// 📝 Summary prints the end-of-run count report. It is printed on every
// non-fatal completion, even when every individual file failed.
func (c *Console) Summary(total, themeMatched, recencyMatched, succeeded, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	faint := color.New(color.Faint)
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "%s %d\n", faint.Sprint("datasets in catalog   ="), total)
	fmt.Fprintf(c.out, "%s %d\n", faint.Sprint("matched theme         ="), themeMatched)
	fmt.Fprintf(c.out, "%s %d\n", faint.Sprint("modified since cutoff ="), recencyMatched)
	fmt.Fprintf(c.out, "%s %d\n", faint.Sprint("processed             ="), succeeded)
	if failed > 0 {
		fmt.Fprintf(c.out, "%s %d\n", color.New(color.FgRed).Sprint("failed                ="), failed)
	}

	c.zlog.Info().
		Int("total", total).
		Int("theme_matched", themeMatched).
		Int("recency_matched", recencyMatched).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Msg("sync run complete")
}

// 📝 Done prints the final success line.
func (c *Console) Done(succeeded int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "✅ %s\n",
		color.New(color.FgGreen).Sprintf("DONE! Successfully processed %d files today.", succeeded))
	c.zlog.Info().Int("succeeded", succeeded).Msg("done")
}
