// Command benchmark runs the synthetic workload harness against a set of
// prediction schemes.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-f, --format     Output format: text, csv or json (default: text)
//	-p, --predictor  Scheme to compare, repeatable (default: all schemes)
//	    --core       Run the three core workloads only
//	    --dump       Write each workload trace into this directory
//	-v, --verbose    Log per-run progress to stderr
//
// Example:
//
//	# Compare every scheme on every workload
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -f csv > results.csv
//
//	# Write the workloads as zstd traces for bpsim
//	go run ./cmd/benchmark --dump traces/
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/sarchlab/bpsim/benchmarks"
	"github.com/sarchlab/bpsim/config"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		format    string
		schemes   []string
		core      bool
		dumpDir   string
		verbosity int
	)

	cmd := &cobra.Command{
		Use:           "benchmark",
		Short:         "Compare branch predictors on synthetic workloads",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := config.ParseFormat(format)
			if err != nil {
				return err
			}

			harnessConfig := benchmarks.DefaultConfig()
			harnessConfig.Output = cmd.OutOrStdout()
			harnessConfig.Logger = funcr.New(func(prefix, args string) {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), prefix, args)
			}, funcr.Options{Verbosity: verbosity}).WithName("benchmark")

			if len(schemes) > 0 {
				harnessConfig.Schemes = nil
				for _, s := range schemes {
					scheme, err := predictor.ParseScheme(s)
					if err != nil {
						return err
					}
					harnessConfig.Schemes = append(harnessConfig.Schemes, scheme)
				}
			}

			workloads := benchmarks.GetWorkloads()
			if core {
				workloads = benchmarks.GetCoreWorkloads()
			}

			if dumpDir != "" {
				return dump(cmd.OutOrStdout(), workloads, dumpDir)
			}

			harness := benchmarks.NewHarness(harnessConfig)
			harness.AddWorkloads(workloads)

			results, err := harness.RunAll(cmd.Context())
			if err != nil {
				return err
			}

			return harness.Print(results, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&format, "format", "f", string(config.FormatText), "output format: text, csv or json")
	flags.StringArrayVarP(&schemes, "predictor", "p", nil, "scheme to compare (repeatable)")
	flags.BoolVar(&core, "core", false, "run the core workloads only")
	flags.StringVar(&dumpDir, "dump", "", "write workload traces into this directory instead of running")
	flags.CountVarP(&verbosity, "verbose", "v", "log per-run progress to stderr")

	return cmd
}

func dump(w io.Writer, workloads []benchmarks.Workload, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}

	for _, wl := range workloads {
		path := filepath.Join(dir, wl.Name+".trace.zst")
		if err := wl.Dump(path, trace.CompressionAuto); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "wrote %s\n", path)
	}
	return nil
}
