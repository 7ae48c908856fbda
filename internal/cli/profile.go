package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/histo/internal/config"
)

// resolveProfile loads --profile, or the default profile, and applies every
// flag the user set on top of it.
func resolveProfile(cmd *cobra.Command) (*config.Profile, error) {
	flags := cmd.Flags()

	p := config.Default()
	if path, _ := flags.GetString("profile"); path != "" {
		loaded, err := config.LoadProfile(path)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded profile")
		p = loaded
	}

	if flags.Changed("name") {
		p.Name, _ = flags.GetString("name")
	}
	if flags.Changed("unit") {
		p.Unit, _ = flags.GetString("unit")
	}
	if flags.Changed("lowest") {
		p.Histogram.LowestTrackableValue, _ = flags.GetInt64("lowest")
	}
	if flags.Changed("highest") {
		p.Histogram.HighestTrackableValue, _ = flags.GetInt64("highest")
	}
	if flags.Changed("sig-figs") {
		p.Histogram.SignificantFigures, _ = flags.GetInt("sig-figs")
	}
	if flags.Changed("input-format") {
		p.Input.Format, _ = flags.GetString("input-format")
	}
	if flags.Changed("field") {
		p.Input.Field, _ = flags.GetString("field")
	}
	if flags.Changed("expected-interval") {
		s, _ := flags.GetString("expected-interval")
		p.Input.ExpectedInterval = config.Quantity(s)
	}
	if flags.Changed("clamp") {
		p.Clamp, _ = flags.GetBool("clamp")
	}
	if flags.Changed("interval") {
		d, _ := flags.GetDuration("interval")
		p.Interval = config.Duration(d)
	}
	if flags.Changed("format") {
		p.Report.Format, _ = flags.GetString("format")
	}
	if flags.Changed("ticks") {
		p.Report.Ticks, _ = flags.GetInt("ticks")
	}
	if flags.Changed("percentiles") {
		p.Report.Percentiles, _ = flags.GetFloat64Slice("percentiles")
	}
	if flags.Changed("scale") {
		p.Report.Scale, _ = flags.GetFloat64("scale")
	}
	if flags.Changed("threshold") {
		extra, _ := flags.GetStringArray("threshold")
		p.Thresholds = append(p.Thresholds, extra...)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// layoutChosen reports whether the user picked the histogram layout, as
// opposed to inheriting it from the first input file.
func layoutChosen(cmd *cobra.Command) bool {
	for _, name := range []string{"profile", "lowest", "highest", "sig-figs"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}
