// Package output builds reports from histograms and renders them as text,
// JSON or YAML.
package output

import (
	"fmt"
	"math"
	"slices"

	"github.com/wesleyorama2/histo/internal/input"
	"github.com/wesleyorama2/histo/internal/slo"
	"github.com/wesleyorama2/histo/pkg/hdr"
)

// Report is the rendered view of one histogram. Values are in histogram
// units divided by Scale.
type Report struct {
	Name         string            `json:"name,omitempty" yaml:"name,omitempty"`
	Unit         string            `json:"unit" yaml:"unit"`
	Scale        float64           `json:"scale" yaml:"scale"`
	Histogram    hdr.Config        `json:"histogram" yaml:"histogram"`
	Summary      Summary           `json:"summary" yaml:"summary"`
	Percentiles  []PercentileRow   `json:"percentiles" yaml:"percentiles"`
	Distribution []DistributionRow `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	Thresholds   *slo.Report       `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	Sources      []string          `json:"sources,omitempty" yaml:"sources,omitempty"`
	Dropped      int64             `json:"dropped,omitempty" yaml:"dropped,omitempty"`

	layout hdr.Layout
	unit   input.Unit
}

// Summary holds the scalar statistics.
type Summary struct {
	Count      int64   `json:"count" yaml:"count"`
	Min        float64 `json:"min" yaml:"min"`
	Max        float64 `json:"max" yaml:"max"`
	Mean       float64 `json:"mean" yaml:"mean"`
	StdDev     float64 `json:"stdDev" yaml:"stdDev"`
	MemorySize int     `json:"memorySize" yaml:"memorySize"`
}

// PercentileRow is one requested percentile.
type PercentileRow struct {
	Percentile float64 `json:"percentile" yaml:"percentile"`
	Value      float64 `json:"value" yaml:"value"`
}

// DistributionRow is one line of the percentile distribution. Percentile is
// a fraction in [0, 1]; InverseTail is 1/(1-Percentile) and is omitted on
// the final row.
type DistributionRow struct {
	Value       float64 `json:"value" yaml:"value"`
	Percentile  float64 `json:"percentile" yaml:"percentile"`
	TotalCount  int64   `json:"totalCount" yaml:"totalCount"`
	InverseTail float64 `json:"inverseTail,omitempty" yaml:"inverseTail,omitempty"`
}

// Options controls report construction.
type Options struct {
	// Name labels the report
	Name string

	// Unit describes histogram values
	Unit input.Unit

	// Ticks per half distance in the distribution; 0 leaves it out
	Ticks int

	// Percentiles to list; empty means none
	Percentiles []float64

	// Scale divides every value; 0 means 1
	Scale float64

	// Thresholds is attached as-is
	Thresholds *slo.Report

	// Sources names the inputs the histogram came from
	Sources []string

	// Dropped counts values lost while merging sources
	Dropped int64
}

// NewReport summarises h.
func NewReport(h *hdr.Histogram, opts Options) (*Report, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	if scale < 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("invalid scale %v", opts.Scale)
	}

	r := &Report{
		Name:       opts.Name,
		Unit:       opts.Unit.String(),
		Scale:      scale,
		Histogram:  h.Config(),
		Thresholds: opts.Thresholds,
		Sources:    opts.Sources,
		Dropped:    opts.Dropped,
		layout:     h.Layout(),
		unit:       opts.Unit,
	}

	r.Summary = Summary{
		Count:      h.TotalCount(),
		Max:        float64(h.Max()) / scale,
		Mean:       h.Mean() / scale,
		StdDev:     h.StdDev() / scale,
		MemorySize: h.MemorySize(),
	}
	if h.TotalCount() > 0 {
		r.Summary.Min = float64(h.Min()) / scale
	}

	if len(opts.Percentiles) > 0 {
		values, err := h.ValuesAtPercentiles(opts.Percentiles...)
		if err != nil {
			return nil, err
		}
		ps := slices.Clone(opts.Percentiles)
		slices.Sort(ps)
		for _, p := range slices.Compact(ps) {
			r.Percentiles = append(r.Percentiles, PercentileRow{Percentile: p, Value: float64(values[p]) / scale})
		}
	}

	if opts.Ticks > 0 {
		it, err := h.PercentileValues(opts.Ticks)
		if err != nil {
			return nil, err
		}
		for it.Next() {
			v := it.Value()
			row := DistributionRow{
				Value:      float64(v.ValueIteratedTo) / scale,
				Percentile: v.PercentileLevelIteratedTo / 100,
				TotalCount: v.CumulativeCount,
			}
			if row.Percentile < 1 {
				row.InverseTail = 1 / (1 - row.Percentile)
			}
			r.Distribution = append(r.Distribution, row)
		}
	}

	return r, nil
}

// Passed reports whether every threshold passed. A report without
// thresholds passes.
func (r *Report) Passed() bool {
	return r.Thresholds == nil || r.Thresholds.Passed
}
