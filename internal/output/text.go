package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const ruleWidth = 56

// TextRenderer renders reports for humans: a summary, the requested
// percentiles, the classic percentile distribution and threshold results.
type TextRenderer struct {
	NoColor bool
	colors  *ColorScheme
}

// NewTextRenderer creates a text renderer.
func NewTextRenderer(noColor bool) *TextRenderer {
	colors := ForcedColorScheme()
	if noColor {
		colors = NoColorScheme()
	}
	return &TextRenderer{NoColor: noColor, colors: colors}
}

// Render implements Renderer.
func (f *TextRenderer) Render(w io.Writer, r *Report) error {
	var buf strings.Builder
	c := f.colors
	if c == nil {
		c = NoColorScheme()
	}

	title := r.Name
	if title == "" {
		title = "histogram"
	}
	rule := c.Rule.Sprint(strings.Repeat("━", ruleWidth))
	buf.WriteString(rule + "\n")
	fmt.Fprintf(&buf, "%s - %s values\n", c.Title.Sprint(title), humanize.Comma(r.Summary.Count))
	buf.WriteString(rule + "\n\n")

	field := func(label, value string) {
		fmt.Fprintf(&buf, "%s %s\n", c.Label.Sprintf("%-13s", label+":"), c.Value.Sprint(value))
	}
	field("Count", humanize.Comma(r.Summary.Count))
	field("Min", r.formatValue(r.Summary.Min))
	field("Mean", r.formatValue(r.Summary.Mean))
	field("StdDev", r.formatValue(r.Summary.StdDev))
	field("Max", r.formatValue(r.Summary.Max))
	field("Unit", r.Unit)
	field("Memory", humanize.IBytes(uint64(r.Summary.MemorySize)))
	if r.Dropped > 0 {
		field("Dropped", c.Fail.Sprint(humanize.Comma(r.Dropped)))
	}
	if len(r.Sources) > 0 {
		field("Sources", strings.Join(r.Sources, ", "))
	}

	if len(r.Percentiles) > 0 {
		buf.WriteString("\n" + c.Title.Sprint("Percentiles:") + "\n")
		for _, p := range r.Percentiles {
			label := "p" + strconv.FormatFloat(p.Percentile, 'f', -1, 64)
			fmt.Fprintf(&buf, "  %s %s\n", c.Label.Sprintf("%-10s", label+":"), r.formatValue(p.Value))
		}
	}

	if len(r.Distribution) > 0 {
		buf.WriteString("\n")
		writeDistribution(&buf, r)
	}

	if r.Thresholds != nil && len(r.Thresholds.Results) > 0 {
		buf.WriteString("\n" + c.Title.Sprint("Thresholds:") + "\n")
		for _, res := range r.Thresholds.Results {
			if res.Passed {
				fmt.Fprintf(&buf, "  %s %s\n", PassIcon(f.NoColor), res.Expression)
				continue
			}
			fmt.Fprintf(&buf, "  %s %s", FailIcon(f.NoColor), res.Expression)
			if res.Message != "" {
				fmt.Fprintf(&buf, " %s", c.Dim.Sprintf("(%s)", res.Message))
			}
			buf.WriteString("\n")
		}
		if r.Thresholds.Passed {
			buf.WriteString(c.Pass.Sprint("PASSED") + "\n")
		} else {
			buf.WriteString(c.Fail.Sprint("FAILED") + "\n")
		}
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

// writeDistribution prints the percentile distribution in the layout HDR
// histogram tools exchange and plot.
func writeDistribution(buf *strings.Builder, r *Report) {
	fmt.Fprintf(buf, "%12s %14s %10s %14s\n\n", "Value", "Percentile", "TotalCount", "1/(1-Percentile)")
	for _, row := range r.Distribution {
		if row.Percentile < 1 {
			fmt.Fprintf(buf, "%12.3f %2.12f %10d %14.2f\n", row.Value, row.Percentile, row.TotalCount, row.InverseTail)
		} else {
			fmt.Fprintf(buf, "%12.3f %2.12f %10d\n", row.Value, row.Percentile, row.TotalCount)
		}
	}
	fmt.Fprintf(buf, "#[Mean    = %12.3f, StdDeviation   = %12.3f]\n", r.Summary.Mean, r.Summary.StdDev)
	fmt.Fprintf(buf, "#[Max     = %12.3f, Total count    = %12d]\n", r.Summary.Max, r.Summary.Count)
	fmt.Fprintf(buf, "#[Buckets = %12d, SubBuckets     = %12d]\n", r.layout.BucketCount, r.layout.SubBucketCount)
}

// formatValue renders v with its time unit when it still has one.
func (r *Report) formatValue(v float64) string {
	if r.Scale != 1 {
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
	return r.unit.Format(v)
}
