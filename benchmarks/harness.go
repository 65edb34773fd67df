// Package benchmarks runs branch predictors over synthetic workloads and
// compares their accuracy.
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"github.com/samber/lo"

	"github.com/sarchlab/bpsim/config"
	"github.com/sarchlab/bpsim/driver"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// BenchmarkResult holds the results of one scheme on one workload.
type BenchmarkResult struct {
	// Workload identifies the workload
	Workload string `json:"workload"`

	// Description explains what the workload exercises
	Description string `json:"description"`

	// Scheme is the predictor configuration, as accepted by ParseScheme
	Scheme string `json:"scheme"`

	// Branches is the number of conditional branches replayed
	Branches uint64 `json:"branches"`

	// Correct is the number of correct predictions
	Correct uint64 `json:"correct"`

	// Mispredictions is the number of incorrect predictions
	Mispredictions uint64 `json:"mispredictions"`

	// AccuracyPercent is Correct over Branches, in percent
	AccuracyPercent float64 `json:"accuracy_percent"`

	// MispredictionRate is Mispredictions over Branches, in percent
	MispredictionRate float64 `json:"misprediction_rate"`

	// WallTime is the actual time taken to replay the workload
	WallTime time.Duration `json:"wall_time_ns"`
}

// Workload defines a synthetic branch trace.
type Workload struct {
	// Name identifies the workload
	Name string

	// Description explains what the workload exercises
	Description string

	// Generate builds the trace. It must return the same records on every
	// call.
	Generate func() []trace.Record
}

// Dump writes the workload trace to path.
func (w Workload) Dump(path string, compression trace.Compression) error {
	out, err := trace.Create(path, compression)
	if err != nil {
		return err
	}

	if err := out.WriteAll(w.Generate()); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to dump workload %s: %w", w.Name, err)
	}

	return out.Close()
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Schemes are the predictor configurations to compare
	Schemes []predictor.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives per-run progress (default: discard)
	Logger logr.Logger
}

// DefaultConfig returns a harness comparing every scheme with the classic
// sizes.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Schemes: []predictor.Config{
			{Scheme: predictor.Static},
			{Scheme: predictor.Gshare, GHistoryBits: 13},
			{Scheme: predictor.Tournament, GHistoryBits: 9, LHistoryBits: 10, PCIndexBits: 10},
			{Scheme: predictor.Custom},
		},
		Output: os.Stdout,
	}
}

// Harness runs workloads and reports results.
type Harness struct {
	config    HarnessConfig
	workloads []Workload
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:    config,
		workloads: []Workload{},
	}
}

// AddWorkload adds a workload to the harness.
func (h *Harness) AddWorkload(w Workload) {
	h.workloads = append(h.workloads, w)
}

// AddWorkloads adds multiple workloads to the harness.
func (h *Harness) AddWorkloads(workloads []Workload) {
	h.workloads = append(h.workloads, workloads...)
}

// RunAll replays every workload through a fresh predictor of every scheme.
// Results are ordered by workload, then by scheme.
func (h *Harness) RunAll(ctx context.Context) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.workloads)*len(h.config.Schemes))

	for _, w := range h.workloads {
		records := w.Generate()
		for _, scheme := range h.config.Schemes {
			result, err := h.run(ctx, w, scheme, records)
			if err != nil {
				return results, err
			}
			results = append(results, result)
		}
	}

	return results, nil
}

func (h *Harness) run(
	ctx context.Context,
	w Workload,
	scheme predictor.Config,
	records []trace.Record,
) (BenchmarkResult, error) {
	if err := scheme.Validate(); err != nil {
		return BenchmarkResult{}, fmt.Errorf("invalid scheme %s: %w", scheme, err)
	}

	tracker := predictor.NewTracker(predictor.New(scheme))
	log := h.config.Logger.WithValues("workload", w.Name)

	run, err := driver.RunRecords(ctx, tracker, records, driver.Options{Logger: log.V(1)})
	if err != nil {
		return BenchmarkResult{}, fmt.Errorf("workload %s: %w", w.Name, err)
	}

	stats := tracker.Stats()
	return BenchmarkResult{
		Workload:          w.Name,
		Description:       w.Description,
		Scheme:            scheme.String(),
		Branches:          run.Branches,
		Correct:           stats.Correct,
		Mispredictions:    stats.Mispredictions,
		AccuracyPercent:   stats.Accuracy(),
		MispredictionRate: run.MispredictionRate,
		WallTime:          run.Duration,
	}, nil
}

// Best returns, per workload, the result with the highest accuracy. Ties go
// to the scheme listed first.
func Best(results []BenchmarkResult) map[string]BenchmarkResult {
	byWorkload := lo.GroupBy(results, func(r BenchmarkResult) string {
		return r.Workload
	})

	return lo.MapValues(byWorkload, func(group []BenchmarkResult, _ string) BenchmarkResult {
		return lo.MaxBy(group, func(a, b BenchmarkResult) bool {
			return a.AccuracyPercent > b.AccuracyPercent
		})
	})
}

// SchemeSummary aggregates one scheme across all workloads.
type SchemeSummary struct {
	Scheme             string  `json:"scheme"`
	Workloads          int     `json:"workloads"`
	Branches           uint64  `json:"branches"`
	Mispredictions     uint64  `json:"mispredictions"`
	MeanMispredictRate float64 `json:"mean_misprediction_rate"`
	Wins               int     `json:"wins"`
}

// Summarize aggregates results per scheme, in the order schemes first
// appear.
func Summarize(results []BenchmarkResult) []SchemeSummary {
	best := Best(results)
	wins := lo.CountValues(lo.Map(lo.Values(best), func(r BenchmarkResult, _ int) string {
		return r.Scheme
	}))

	byScheme := lo.GroupBy(results, func(r BenchmarkResult) string {
		return r.Scheme
	})

	schemes := lo.Uniq(lo.Map(results, func(r BenchmarkResult, _ int) string {
		return r.Scheme
	}))

	return lo.Map(schemes, func(scheme string, _ int) SchemeSummary {
		group := byScheme[scheme]
		return SchemeSummary{
			Scheme:    scheme,
			Workloads: len(group),
			Branches: lo.SumBy(group, func(r BenchmarkResult) uint64 {
				return r.Branches
			}),
			Mispredictions: lo.SumBy(group, func(r BenchmarkResult) uint64 {
				return r.Mispredictions
			}),
			MeanMispredictRate: lo.SumBy(group, func(r BenchmarkResult) float64 {
				return r.MispredictionRate
			}) / float64(len(group)),
			Wins: wins[scheme],
		}
	})
}

// Print outputs results in the given format.
func (h *Harness) Print(results []BenchmarkResult, format config.Format) error {
	switch format {
	case config.FormatText, "":
		h.PrintResults(results)
		return nil
	case config.FormatCSV:
		h.PrintCSV(results)
		return nil
	case config.FormatJSON:
		return h.PrintJSON(results)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Branch Predictor Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	var current string
	for _, r := range results {
		if r.Workload != current {
			if current != "" {
				_, _ = fmt.Fprintln(h.config.Output, "")
			}
			current = r.Workload
			_, _ = fmt.Fprintf(h.config.Output, "Workload: %s\n", r.Workload)
			_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
			_, _ = fmt.Fprintf(h.config.Output, "  Branches:    %d\n", r.Branches)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  %-22s mispredictions %8d  rate %7.3f%%  accuracy %6.2f%%\n",
			r.Scheme, r.Mispredictions, r.MispredictionRate, r.AccuracyPercent)
	}
	_, _ = fmt.Fprintln(h.config.Output, "")

	best := Best(results)
	if len(best) == 0 {
		return
	}

	_, _ = fmt.Fprintln(h.config.Output, "=== Best Scheme per Workload ===")
	workloads := lo.Keys(best)
	sort.Strings(workloads)
	for _, name := range workloads {
		_, _ = fmt.Fprintf(h.config.Output, "  %-16s %s (%.2f%%)\n",
			name, best[name].Scheme, best[name].AccuracyPercent)
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"workload,scheme,branches,correct,mispredictions,accuracy_percent,misprediction_rate")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%d,%.3f,%.3f\n",
			r.Workload,
			r.Scheme,
			r.Branches,
			r.Correct,
			r.Mispredictions,
			r.AccuracyPercent,
			r.MispredictionRate,
		)
	}
}

// PrintJSON outputs results and per-scheme summaries as one JSON document.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := struct {
		Results []BenchmarkResult `json:"results"`
		Summary []SchemeSummary   `json:"summary"`
	}{
		Results: results,
		Summary: Summarize(results),
	}

	enc := json.NewEncoder(h.config.Output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}
