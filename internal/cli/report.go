package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/histo/internal/config"
	"github.com/wesleyorama2/histo/internal/output"
	"github.com/wesleyorama2/histo/internal/slo"
	"github.com/wesleyorama2/histo/pkg/hdr"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [files...]",
		Short: "Print statistics and the percentile distribution",
		Long: `Merge the input histograms and print a summary, the requested percentiles
and the percentile distribution. Thresholds from the profile or --threshold
are evaluated and shown but do not change the exit status; use check for
that.`,
		RunE: runReport,
	}
	addReportFlags(cmd)
	cmd.Flags().Int("ticks", 0, "Distribution rows per half distance to 100%")
	cmd.Flags().Float64Slice("percentiles", nil, "Percentiles to list, e.g. 50,99,99.9")
	cmd.Flags().Float64("scale", 0, "Divide every value by this before printing")
	return cmd
}

func addReportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("format", "f", "", "Output format: text, json, yaml or html")
	flags.String("name", "", "Report title")
	flags.StringArray("threshold", nil, `Threshold such as "p99 < 250ms" (repeatable)`)
}

func runReport(cmd *cobra.Command, args []string) error {
	p, err := resolveProfile(cmd)
	if err != nil {
		return err
	}
	h, dropped, err := mergeSources(cmd, p, args)
	if err != nil {
		return err
	}

	r, err := buildReport(p, h, args, dropped, output.Options{
		Ticks:       p.Report.Ticks,
		Percentiles: p.Report.Percentiles,
		Scale:       p.Report.Scale,
	})
	if err != nil {
		return err
	}
	return render(cmd, p, r)
}

// buildReport fills the profile-derived options and evaluates thresholds.
func buildReport(p *config.Profile, h *hdr.Histogram, sources []string, dropped int64, opts output.Options) (*output.Report, error) {
	unit, err := p.ValueUnit()
	if err != nil {
		return nil, err
	}
	opts.Name = p.Name
	opts.Unit = unit
	opts.Sources = sources
	opts.Dropped = dropped
	if len(p.Thresholds) > 0 {
		opts.Thresholds = slo.Evaluate(h, p.Thresholds, unit.Duration())
	}
	return output.NewReport(h, opts)
}

func render(cmd *cobra.Command, p *config.Profile, r *output.Report) error {
	format, err := output.ParseFormat(p.Report.Format)
	if err != nil {
		return err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	w := cmd.OutOrStdout()
	return output.GetRenderer(format, output.UseColor(w, noColor)).Render(w, r)
}
