package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/histo/internal/output"
	"github.com/wesleyorama2/histo/pkg/hdr"
)

// histogramInfo describes a histogram layout and, for stored histograms,
// its contents.
type histogramInfo struct {
	Source     string     `json:"source,omitempty" yaml:"source,omitempty"`
	Config     hdr.Config `json:"config" yaml:"config"`
	Layout     hdr.Layout `json:"layout" yaml:"layout"`
	MemorySize int        `json:"memorySize" yaml:"memorySize"`
	TotalCount int64      `json:"totalCount" yaml:"totalCount"`
	Min        int64      `json:"min" yaml:"min"`
	Max        int64      `json:"max" yaml:"max"`
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [files...]",
		Short: "Show histogram layout and memory size",
		Long: `Without arguments, print the derived layout and memory footprint of the
histogram configuration from the profile and flags. With files, describe each
stored histogram.`,
		RunE: runInfo,
	}
	cmd.Flags().StringP("format", "f", "", "Output format: text, json or yaml")
	return cmd
}

func describe(source string, h *hdr.Histogram) histogramInfo {
	info := histogramInfo{
		Source:     source,
		Config:     h.Config(),
		Layout:     h.Layout(),
		MemorySize: h.MemorySize(),
		TotalCount: h.TotalCount(),
		Max:        h.Max(),
	}
	if h.TotalCount() > 0 {
		info.Min = h.Min()
	}
	return info
}

func runInfo(cmd *cobra.Command, args []string) error {
	p, err := resolveProfile(cmd)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(p.Report.Format)
	if err != nil {
		return err
	}

	var infos []histogramInfo
	if len(args) == 0 {
		h, err := hdr.NewWithConfig(p.Histogram)
		if err != nil {
			return err
		}
		infos = append(infos, describe("", h))
	}
	for _, path := range args {
		h, err := readHistogram(cmd, path)
		if err != nil {
			return err
		}
		infos = append(infos, describe(path, h))
	}

	w := cmd.OutOrStdout()
	switch format {
	case output.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case output.FormatYAML:
		return yaml.NewEncoder(w).Encode(infos)
	default:
		return writeInfo(w, infos)
	}
}

func writeInfo(w io.Writer, infos []histogramInfo) error {
	var buf strings.Builder
	for i, info := range infos {
		if i > 0 {
			buf.WriteString("\n")
		}
		field := func(label string, value interface{}) {
			fmt.Fprintf(&buf, "%-18s %v\n", label+":", value)
		}
		if info.Source != "" {
			field("Source", info.Source)
		}
		field("Lowest", humanize.Comma(info.Config.LowestTrackableValue))
		field("Highest", humanize.Comma(info.Config.HighestTrackableValue))
		field("Significant figs", info.Config.SignificantFigures)
		field("Unit magnitude", info.Layout.UnitMagnitude)
		field("Sub-buckets", fmt.Sprintf("%d (half %d, magnitude %d)",
			info.Layout.SubBucketCount, info.Layout.SubBucketHalfCount, info.Layout.SubBucketHalfCountMagnitude))
		field("Buckets", info.Layout.BucketCount)
		field("Counts", humanize.Comma(int64(info.Layout.CountsLen)))
		field("Memory", humanize.IBytes(uint64(info.MemorySize)))
		if info.Source != "" {
			field("Total count", humanize.Comma(info.TotalCount))
			field("Min", info.Min)
			field("Max", info.Max)
		}
	}
	_, err := io.WriteString(w, buf.String())
	return err
}
