// Package driver replays branch traces through a predictor and reports the
// misprediction rate.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"
	"github.com/rs/xid"

	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// DefaultProgressInterval is the number of branches between progress logs.
const DefaultProgressInterval = 1_000_000

// Source yields trace records until it returns io.EOF.
type Source interface {
	Next() (trace.Record, error)
}

// Options configures a run.
type Options struct {
	// Logger receives the run start and summary at V(0) and progress at
	// V(1). The zero value discards everything.
	Logger logr.Logger

	// ProgressInterval is the number of branches between progress logs.
	// Zero uses DefaultProgressInterval.
	ProgressInterval uint64

	// MaxBranches stops the run after this many branches. Zero means the
	// whole trace.
	MaxBranches uint64
}

// Result is the outcome of one run.
type Result struct {
	RunID             xid.ID        `json:"run_id"`
	Scheme            string        `json:"scheme"`
	Branches          uint64        `json:"branches"`
	Incorrect         uint64        `json:"incorrect"`
	MispredictionRate float64       `json:"misprediction_rate"`
	Duration          time.Duration `json:"duration"`
}

// Run feeds every record of src to p, predicting before training, and
// counts mispredictions. It stops early when ctx is cancelled and returns
// the partial result along with the context error.
func Run(ctx context.Context, p predictor.Predictor, src Source, opts Options) (*Result, error) {
	log := opts.Logger
	interval := opts.ProgressInterval
	if interval == 0 {
		interval = DefaultProgressInterval
	}

	result := &Result{
		RunID:  xid.New(),
		Scheme: p.Name(),
	}
	log = log.WithValues("run", result.RunID.String(), "scheme", result.Scheme)
	log.Info("run started")

	start := time.Now()
	err := replay(ctx, p, src, opts.MaxBranches, interval, result, log)
	result.Duration = time.Since(start)
	result.MispredictionRate = rate(result.Incorrect, result.Branches)

	if err != nil {
		log.Error(err, "run stopped", "branches", result.Branches)
		return result, err
	}

	log.Info("run finished",
		"branches", result.Branches,
		"incorrect", result.Incorrect,
		"misprediction_rate", result.MispredictionRate,
		"duration", result.Duration)
	return result, nil
}

func replay(
	ctx context.Context,
	p predictor.Predictor,
	src Source,
	limit, interval uint64,
	result *Result,
	log logr.Logger,
) error {
	for limit == 0 || result.Branches < limit {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read trace: %w", err)
		}

		if p.Predict(rec.PC) != rec.Taken {
			result.Incorrect++
		}
		p.Train(rec.PC, rec.Taken)
		result.Branches++

		if result.Branches%interval == 0 {
			log.V(1).Info("progress",
				"branches", result.Branches,
				"incorrect", result.Incorrect)
		}
	}
	return nil
}

// RunRecords replays an in-memory trace.
func RunRecords(ctx context.Context, p predictor.Predictor, records []trace.Record, opts Options) (*Result, error) {
	return Run(ctx, p, &sliceSource{records: records}, opts)
}

type sliceSource struct {
	records []trace.Record
	next    int
}

func (s *sliceSource) Next() (trace.Record, error) {
	if s.next >= len(s.records) {
		return trace.Record{}, io.EOF
	}
	rec := s.records[s.next]
	s.next++
	return rec, nil
}

// rate returns the misprediction percentage, 0 for an empty trace.
func rate(incorrect, branches uint64) float64 {
	if branches == 0 {
		return 0
	}
	return 100 * float64(incorrect) / float64(branches)
}

// Print writes the classic three-line report.
func (r *Result) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Branches:        %10d\n", r.Branches)
	_, _ = fmt.Fprintf(w, "Incorrect:       %10d\n", r.Incorrect)
	_, _ = fmt.Fprintf(w, "Misprediction Rate: %10.3f\n", r.MispredictionRate)
}
