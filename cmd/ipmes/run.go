package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ipmes-go/ipmes/internal/patternfile"
	"github.com/ipmes-go/ipmes/pkg/engine"
	"github.com/ipmes-go/ipmes/pkg/pattern"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func windowSecondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// run loads the pattern and data-graph files and drives the engine to
// completion, printing the §6 summary lines on a clean end of stream.
// Exit code policy follows §6: 0 on clean end-of-stream, non-zero on
// pattern or input error.
func run(cmd *cobra.Command, patternPath, dataPath string, window time.Duration, silent bool, log *zap.Logger) error {
	pf, err := os.Open(patternPath)
	if err != nil {
		return fmt.Errorf("opening pattern file: %w", err)
	}
	defer pf.Close()

	pat, err := patternfile.Parse(pf)
	if err != nil {
		var invalid *pattern.InvalidPatternError
		if errors.As(err, &invalid) {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		return err
	}

	df, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("opening data graph: %w", err)
	}
	defer df.Close()

	out := cmd.OutOrStdout()
	sink := func(s string) { fmt.Fprintln(out, s) }
	if silent {
		sink = nil
	}

	e := engine.New(pat, engine.WithWindow(window), engine.WithLogger(log), engine.WithSink(sink))

	stats, err := e.Run(context.Background(), df)
	if err != nil {
		return fmt.Errorf("ingesting data graph: %w", err)
	}

	fmt.Fprintf(out, "Total number of matches: %d\n", stats.Matches)
	fmt.Fprintf(out, "CPU time elapsed: %s\n", stats.CPUTime)
	fmt.Fprintf(out, "Peak memory usage: %d kB\n", stats.PeakMemKB)
	return nil
}
