package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge -o out files...",
		Short: "Add several histograms into one",
		Long: `Decode every input histogram and add them together. The result takes the
layout of the first input unless a profile or layout flags choose another;
counts the result cannot represent are dropped and reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runMerge,
	}

	cmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
	cmd.Flags().Bool("text", false, "Write the base64 text form instead of binary")
	return cmd
}

func runMerge(cmd *cobra.Command, args []string) error {
	p, err := resolveProfile(cmd)
	if err != nil {
		return err
	}

	merged, dropped, err := mergeSources(cmd, p, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "merged %d histogram(s): %s values, %s dropped\n",
		len(args), humanize.Comma(merged.TotalCount()), humanize.Comma(dropped))

	out, _ := cmd.Flags().GetString("out")
	text, _ := cmd.Flags().GetBool("text")
	return writeHistogram(cmd, merged, out, text)
}
