// Package config loads histo profiles: the histogram layout, value unit,
// input format, report options and thresholds a recording or report uses.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/histo/internal/input"
	"github.com/wesleyorama2/histo/pkg/hdr"
)

// DefaultPercentiles are reported when a profile lists none.
var DefaultPercentiles = []float64{50, 90, 99, 99.9, 99.99}

// Profile is the top-level configuration document.
type Profile struct {
	// Name identifies the profile in reports
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Histogram is the layout every recorded histogram uses
	Histogram hdr.Config `json:"histogram" yaml:"histogram"`

	// Unit is the time unit of one histogram value: ns, us, ms, s or raw
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// Input describes how measurements are read
	Input InputConfig `json:"input,omitempty" yaml:"input,omitempty"`

	// Clamp records out-of-range values at the nearest bound instead of
	// rejecting them
	Clamp bool `json:"clamp,omitempty" yaml:"clamp,omitempty"`

	// Interval is the time-series bucket interval while recording
	Interval Duration `json:"interval,omitempty" yaml:"interval,omitempty"`

	// Report configures rendering
	Report ReportConfig `json:"report,omitempty" yaml:"report,omitempty"`

	// Thresholds are expressions such as "p99 < 250ms"
	Thresholds []string `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// InputConfig describes the measurement stream.
type InputConfig struct {
	// Format is "lines" or "jsonl"
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Field is the gjson path of the value in jsonl input
	Field string `json:"field,omitempty" yaml:"field,omitempty"`

	// ExpectedInterval enables coordinated omission correction
	ExpectedInterval Quantity `json:"expectedInterval,omitempty" yaml:"expectedInterval,omitempty"`
}

// ReportConfig configures rendering.
type ReportConfig struct {
	// Format is "text", "json" or "yaml"
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Ticks is the number of distribution rows per half distance
	Ticks int `json:"ticks,omitempty" yaml:"ticks,omitempty"`

	// Percentiles are listed in the summary table
	Percentiles []float64 `json:"percentiles,omitempty" yaml:"percentiles,omitempty"`

	// Scale divides every value before display
	Scale float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Default returns the profile used when no file is given: microsecond
// values from 1us to one hour at three significant figures.
func Default() *Profile {
	return &Profile{
		Histogram: hdr.Config{
			LowestTrackableValue:  1,
			HighestTrackableValue: 3600 * 1000 * 1000,
			SignificantFigures:    hdr.DefaultSignificantFigures,
		},
		Unit:     "us",
		Input:    InputConfig{Format: string(input.FormatLines)},
		Interval: Duration(time.Second),
		Report: ReportConfig{
			Format:      "text",
			Ticks:       5,
			Percentiles: append([]float64(nil), DefaultPercentiles...),
			Scale:       1,
		},
	}
}

// ValueUnit parses Unit.
func (p *Profile) ValueUnit() (input.Unit, error) {
	return input.ParseUnit(p.Unit)
}

// ReaderOptions returns the input options for this profile.
func (p *Profile) ReaderOptions() (input.Options, error) {
	unit, err := p.ValueUnit()
	if err != nil {
		return input.Options{}, err
	}
	format, err := input.ParseFormat(p.Input.Format)
	if err != nil {
		return input.Options{}, err
	}
	return input.Options{Format: format, Field: p.Input.Field, Unit: unit}, nil
}

// ExpectedInterval returns the correction interval in histogram units, 0
// when correction is off.
func (p *Profile) ExpectedInterval() (int64, error) {
	unit, err := p.ValueUnit()
	if err != nil {
		return 0, err
	}
	return p.Input.ExpectedInterval.Value(unit)
}

// Duration is a time.Duration that can be unmarshaled from JSON/YAML strings.
type Duration time.Duration

// GetDuration returns the duration or a default if empty.
func (d Duration) GetDuration(defaultValue time.Duration) time.Duration {
	if d == 0 {
		return defaultValue
	}
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.set(s)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Quantity is a measurement written either as a number of histogram units
// or as a duration string such as "10ms".
type Quantity string

// UnmarshalJSON accepts both JSON strings and numbers.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("quantity must be a number or a string: %w", err)
	}
	*q = Quantity(n.String())
	return nil
}

// UnmarshalYAML accepts any scalar.
func (q *Quantity) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: quantity must be a scalar", value.Line)
	}
	*q = Quantity(value.Value)
	return nil
}

// Value converts q to histogram units. The empty quantity is 0.
func (q Quantity) Value(unit input.Unit) (int64, error) {
	if q == "" {
		return 0, nil
	}
	return unit.Convert(string(q))
}
