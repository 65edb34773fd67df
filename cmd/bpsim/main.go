// Command bpsim replays a branch trace through a branch direction predictor
// and reports the misprediction rate.
//
// Usage:
//
//	bpsim [flags] [trace]
//
// The trace is read from standard input when no file is given. Compressed
// traces (.gz, .zst, .bz2) are decoded by extension.
//
// Example:
//
//	# Gshare with 13 bits of global history
//	bzcat traces/int_1.bz2 | bpsim --gshare:13
//
//	# Tournament predictor from a run file, with progress logs
//	bpsim -c run.yaml -v traces/fp_1.bz2
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCommand()
	cmd.SetArgs(classicArgs(os.Args[1:]))

	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
