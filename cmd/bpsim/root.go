package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarchlab/bpsim/config"
	"github.com/sarchlab/bpsim/driver"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

type options struct {
	configPath  string
	scheme      string
	compression string
	format      string
	verbosity   int
	maxBranches uint64
	saveConfig  string
	cpuProfile  string
}

func (o *options) addFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.configPath, "config", "c", "", "run configuration file (JSON or YAML)")
	flags.StringVarP(&o.scheme, "predictor", "p", "",
		"prediction scheme: static, gshare[:G], tournament[:G:L:P] or custom")
	flags.StringVar(&o.compression, "compression", "", "trace compression: auto, none, gzip, zstd or bzip2")
	flags.StringVarP(&o.format, "format", "f", "", "report format: text or json")
	flags.CountVarP(&o.verbosity, "verbose", "v", "log progress to stderr (repeat for more)")
	flags.Uint64Var(&o.maxBranches, "max-branches", 0, "stop after this many branches (0 = whole trace)")
	flags.StringVar(&o.saveConfig, "save-config", "", "write the effective run configuration to this file and exit")
	flags.StringVar(&o.cpuProfile, "cpuprofile", "", "write a CPU profile to this file")
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "bpsim [flags] [trace]",
		Short: "Trace-driven branch direction predictor simulator",
		Long: `bpsim replays a branch trace through a predictor and prints the number of
branches, the number of mispredictions and the misprediction rate.

Each trace line holds a hexadecimal branch PC and its outcome (1 = taken).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runConfig, err := opts.resolve(cmd.Flags(), args)
			if err != nil {
				return err
			}

			if opts.saveConfig != "" {
				return runConfig.Save(opts.saveConfig)
			}

			return run(cmd.Context(), runConfig, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	opts.addFlags(cmd.Flags())
	return cmd
}

// resolve builds the run configuration: defaults, then the run file, then
// flags that were set explicitly.
func (o *options) resolve(flags *pflag.FlagSet, args []string) (*config.RunConfig, error) {
	runConfig := config.DefaultRunConfig()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		runConfig = loaded
	}

	if flags.Changed("predictor") {
		scheme, err := predictor.ParseScheme(o.scheme)
		if err != nil {
			return nil, err
		}
		runConfig.Predictor = scheme
	}
	if flags.Changed("compression") {
		c, err := trace.ParseCompression(o.compression)
		if err != nil {
			return nil, err
		}
		runConfig.Trace.Compression = c
	}
	if flags.Changed("format") {
		f, err := config.ParseFormat(o.format)
		if err != nil {
			return nil, err
		}
		runConfig.Report.Format = f
	}
	if flags.Changed("verbose") {
		runConfig.Verbosity = o.verbosity
	}
	if len(args) == 1 {
		runConfig.Trace.Path = args[0]
	}

	if err := runConfig.Validate(); err != nil {
		return nil, err
	}
	if runConfig.Report.Format == config.FormatCSV {
		return nil, fmt.Errorf("csv reports are only available from the benchmark command")
	}

	return runConfig, nil
}

func run(
	ctx context.Context,
	runConfig *config.RunConfig,
	opts *options,
	stdout, stderr io.Writer,
) error {
	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	reader, err := openTrace(runConfig.Trace)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	p := predictor.New(runConfig.Predictor)
	result, err := driver.Run(ctx, p, reader, driver.Options{
		Logger:      newLogger(stderr, runConfig.Verbosity),
		MaxBranches: opts.maxBranches,
	})
	if err != nil {
		return err
	}

	if runConfig.Report.Format == config.FormatJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	result.Print(stdout)
	return nil
}

func openTrace(tc config.TraceConfig) (*trace.Reader, error) {
	if tc.Path == "" || tc.Path == "-" {
		return trace.NewCompressedReader(os.Stdin, tc.Compression.Resolve(""))
	}
	return trace.Open(tc.Path, tc.Compression)
}

// newLogger logs to w. Verbosity 0 shows the run start and summary only.
func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity}).WithName("bpsim")
}

var classicSchemes = []string{"static", "gshare", "tournament", "custom"}

// classicArgs rewrites scheme arguments of the form --gshare:13 into
// --predictor=gshare:13.
func classicArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, rewriteClassic(arg))
	}
	return out
}

func rewriteClassic(arg string) string {
	if !strings.HasPrefix(arg, "--") {
		return arg
	}
	name := strings.TrimPrefix(arg, "--")
	head, _, _ := strings.Cut(name, ":")
	for _, s := range classicSchemes {
		if strings.EqualFold(head, s) {
			return "--predictor=" + name
		}
	}
	return arg
}
