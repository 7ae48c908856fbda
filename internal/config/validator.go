package config

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/wesleyorama2/histo/internal/input"
	"github.com/wesleyorama2/histo/internal/slo"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidationErrors returns the individual problems inside an error returned
// by Validate or LoadProfile, looking through any wrapping.
func ValidationErrors(err error) []*ValidationError {
	for err != nil {
		if ve, ok := err.(*ValidationError); ok {
			return []*ValidationError{ve}
		}
		if _, ok := err.(interface{ Unwrap() []error }); ok {
			var out []*ValidationError
			for _, e := range multierr.Errors(err) {
				out = append(out, ValidationErrors(e)...)
			}
			return out
		}
		err = errors.Unwrap(err)
	}
	return nil
}

// Validate checks the profile semantically. Every problem is reported; the
// result combines them with multierr.
func (p *Profile) Validate() error {
	var errs error

	if err := p.Histogram.Validate(); err != nil {
		errs = multierr.Append(errs, invalid("histogram", "%v", err))
	}

	unit, err := input.ParseUnit(p.Unit)
	if err != nil {
		errs = multierr.Append(errs, invalid("unit", "%v", err))
	}

	errs = multierr.Append(errs, p.validateInput(unit, err == nil))
	errs = multierr.Append(errs, p.validateReport())

	if p.Interval < 0 {
		errs = multierr.Append(errs, invalid("interval", "must not be negative"))
	}

	if err == nil {
		for i, expr := range p.Thresholds {
			if _, perr := slo.Parse(expr, unit.Duration()); perr != nil {
				errs = multierr.Append(errs, invalid(fmt.Sprintf("thresholds[%d]", i), "%v", perr))
			}
		}
	}

	return errs
}

func (p *Profile) validateInput(unit input.Unit, unitOK bool) error {
	var errs error

	format, err := input.ParseFormat(p.Input.Format)
	if err != nil {
		errs = multierr.Append(errs, invalid("input.format", "%v", err))
	}
	if format == input.FormatLines && p.Input.Field != "" {
		errs = multierr.Append(errs, invalid("input.field", "only applies to jsonl input"))
	}

	if unitOK {
		v, err := p.Input.ExpectedInterval.Value(unit)
		switch {
		case err != nil:
			errs = multierr.Append(errs, invalid("input.expectedInterval", "%v", err))
		case v < 0:
			errs = multierr.Append(errs, invalid("input.expectedInterval", "must not be negative"))
		}
	}

	return errs
}

func (p *Profile) validateReport() error {
	var errs error

	switch p.Report.Format {
	case "", "text", "json", "yaml", "html":
	default:
		errs = multierr.Append(errs, invalid("report.format", "unknown format %q", p.Report.Format))
	}

	if p.Report.Ticks < 0 {
		errs = multierr.Append(errs, invalid("report.ticks", "must be positive"))
	}

	for i, pct := range p.Report.Percentiles {
		if math.IsNaN(pct) || pct <= 0 || pct > 100 {
			errs = multierr.Append(errs, invalid(fmt.Sprintf("report.percentiles[%d]", i), "%v is outside (0, 100]", pct))
		}
	}

	if p.Report.Scale < 0 || math.IsNaN(p.Report.Scale) || math.IsInf(p.Report.Scale, 0) {
		errs = multierr.Append(errs, invalid("report.scale", "must be a positive number"))
	}

	return errs
}
