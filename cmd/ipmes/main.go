// Command ipmes is the CLI surface of §6: positional pattern_file and
// data_graph arguments, a -w/--window-size option, and a -s/--silent
// option. It is deliberately thin — a single cobra.Command translating
// flags into engine.Option values, per §10.3 of SPEC_FULL.md: "the engine
// package itself carries zero flag-parsing knowledge."
package main

import (
	"os"

	"github.com/ipmes-go/ipmes/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		windowSeconds float64
		silent        bool
		logFormat     string
	)

	cmd := &cobra.Command{
		Use:   "ipmes <pattern_file> <data_graph>",
		Short: "Incremental pattern matching over a streaming provenance graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := logging.Console
			if logFormat == "json" {
				format = logging.JSON
			}
			log := logging.New(format)
			defer log.Sync()

			return run(cmd, args[0], args[1], windowSecondsToDuration(windowSeconds), silent, log)
		},
	}

	cmd.Flags().Float64VarP(&windowSeconds, "window-size", "w", 1800, "sliding time window, in seconds")
	cmd.Flags().BoolVarP(&silent, "silent", "s", false, "suppress per-match output")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "log output format: console|json")

	return cmd
}
