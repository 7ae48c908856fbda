package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/histo/internal/output"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Evaluate thresholds and fail when any is breached",
		Long: `Merge the input histograms and evaluate every threshold from the profile
and --threshold. The exit status is 0 when all pass, 2 when any fails and 1
on other errors.`,
		RunE: runCheck,
	}
	addReportFlags(cmd)
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, err := resolveProfile(cmd)
	if err != nil {
		return err
	}
	if len(p.Thresholds) == 0 {
		return errors.New("no thresholds given; use --threshold or a profile")
	}

	h, dropped, err := mergeSources(cmd, p, args)
	if err != nil {
		return err
	}
	r, err := buildReport(p, h, args, dropped, output.Options{Scale: 1})
	if err != nil {
		return err
	}
	if err := render(cmd, p, r); err != nil {
		return err
	}

	if !r.Passed() {
		return fmt.Errorf("%d of %d: %w", len(r.Thresholds.Failed()), len(r.Thresholds.Results), ErrThresholdsFailed)
	}
	return nil
}
