// Package cli implements the histo command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/histo/internal/logging"
)

var version = "0.1.0"

var logger = logging.New("cli")

// ErrThresholdsFailed is returned when at least one threshold did not pass.
var ErrThresholdsFailed = errors.New("thresholds failed")

// NewRootCmd builds the histo command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "histo",
		Short:   "Record, merge and report HDR latency histograms",
		Version: version,
		Long: `histo records measurements into High Dynamic Range histograms, which keep
a fixed relative precision across a wide value range in fixed memory.

Histograms are stored in the standard compressed HDR encoding, so they can be
merged across hosts and runs before reporting percentiles or checking
latency thresholds.

  histo record -o run.hdr latencies.txt
  histo report --percentiles 50,99,99.9 run.hdr
  histo check --threshold "p99 < 250ms" run.hdr`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("log-level") {
				level, _ := cmd.Flags().GetString("log-level")
				logging.SetAllLevels(level)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("profile", "p", "", "Profile file (YAML or JSON)")
	flags.String("unit", "", "Time unit of one histogram value: ns, us, ms, s or raw")
	flags.Int64("lowest", 0, "Lowest trackable value")
	flags.Int64("highest", 0, "Highest trackable value")
	flags.Int("sig-figs", 0, "Significant figures (1-5)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("log-level", "", "Log level for every package (V, D, I, W, E, F)")

	root.AddCommand(newRecordCmd())
	root.AddCommand(newMergeCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newIterateCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newInfoCmd())
	return root
}

// Execute runs the command line against os.Args and prints any error.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil && !errors.Is(err, ErrThresholdsFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// ExitCode maps an Execute result to a process exit status: 0 on success, 2
// when thresholds failed and 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrThresholdsFailed):
		return 2
	default:
		return 1
	}
}
