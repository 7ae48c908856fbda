// Package slo evaluates threshold expressions such as "p99 < 250ms" against
// a histogram.
package slo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wesleyorama2/histo/pkg/hdr"
)

// expressionPattern matches "<metric> <op> <value>".
var expressionPattern = regexp.MustCompile(`^([A-Za-z][\w.]*)\s*([<>=!]+)\s*(.+)$`)

// Threshold is a parsed threshold expression.
type Threshold struct {
	// Expression is the text as given
	Expression string `json:"expression" yaml:"expression"`

	// Metric is the normalised metric name
	Metric string `json:"metric" yaml:"metric"`

	// Percentile is set for percentile metrics
	Percentile float64 `json:"percentile,omitempty" yaml:"percentile,omitempty"`

	// Op is the comparison operator
	Op string `json:"op" yaml:"op"`

	// Limit is the threshold in histogram units
	Limit float64 `json:"limit" yaml:"limit"`
}

// Result contains the result of one threshold evaluation.
type Result struct {
	Metric     string  `json:"metric" yaml:"metric"`
	Expression string  `json:"expression" yaml:"expression"`
	Passed     bool    `json:"passed" yaml:"passed"`
	Value      string  `json:"value" yaml:"value"`
	Actual     float64 `json:"actual" yaml:"actual"`
	Message    string  `json:"message,omitempty" yaml:"message,omitempty"`
}

// Report aggregates the results of several thresholds.
type Report struct {
	Passed  bool     `json:"passed" yaml:"passed"`
	Results []Result `json:"results" yaml:"results"`
}

// Failed returns the results that did not pass.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Parse parses an expression like "p95 < 500ms". Durations are converted to
// histogram units through unit; a zero unit means values are unitless and
// durations are rejected. Plain numbers may carry an SI suffix ("10k").
func Parse(expr string, unit time.Duration) (Threshold, error) {
	expr = strings.TrimSpace(expr)

	matches := expressionPattern.FindStringSubmatch(expr)
	if len(matches) != 4 {
		return Threshold{}, fmt.Errorf("invalid expression format: %s", expr)
	}

	t := Threshold{Expression: expr, Op: matches[2]}
	if !validOp(t.Op) {
		return Threshold{}, fmt.Errorf("unknown operator %q in %s", t.Op, expr)
	}

	metric := strings.ToLower(matches[1])
	switch metric {
	case "min", "max", "stddev", "count":
		t.Metric = metric
	case "mean", "avg":
		t.Metric = "mean"
	case "med", "median":
		t.Metric = "p50"
		t.Percentile = 50
	default:
		p, err := parsePercentileMetric(metric)
		if err != nil {
			return Threshold{}, err
		}
		t.Metric = metric
		t.Percentile = p
	}

	limit, err := parseLimit(strings.TrimSpace(matches[3]), unit)
	if err != nil {
		return Threshold{}, fmt.Errorf("failed to parse threshold value in %s: %w", expr, err)
	}
	t.Limit = limit
	return t, nil
}

func parsePercentileMetric(metric string) (float64, error) {
	if !strings.HasPrefix(metric, "p") {
		return 0, fmt.Errorf("unknown metric: %s", metric)
	}
	p, err := strconv.ParseFloat(metric[1:], 64)
	if err != nil || math.IsNaN(p) || p <= 0 || p > 100 {
		return 0, fmt.Errorf("unknown metric: %s", metric)
	}
	return p, nil
}

func parseLimit(s string, unit time.Duration) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		if unit <= 0 {
			return 0, fmt.Errorf("duration %s given but values have no time unit", s)
		}
		return float64(d) / float64(unit), nil
	}
	v, suffix, err := humanize.ParseSI(s)
	if err != nil || suffix != "" {
		return 0, fmt.Errorf("%q is neither a number nor a duration", s)
	}
	return v, nil
}

func validOp(op string) bool {
	switch op {
	case "<", "<=", ">", ">=", "==", "=", "!=", "<>":
		return true
	}
	return false
}

// compareValues compares two values using the given operator.
func compareValues(actual float64, op string, threshold float64) bool {
	switch op {
	case "<":
		return actual < threshold
	case "<=":
		return actual <= threshold
	case ">":
		return actual > threshold
	case ">=":
		return actual >= threshold
	case "==", "=":
		return actual == threshold
	case "!=", "<>":
		return actual != threshold
	default:
		return false
	}
}

// Check evaluates t against h.
func (t Threshold) Check(h *hdr.Histogram) Result {
	result := Result{Metric: t.Metric, Expression: t.Expression}

	actual, err := t.measure(h)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	result.Actual = actual
	result.Value = formatValue(t.Metric, actual)
	result.Passed = compareValues(actual, t.Op, t.Limit)
	if !result.Passed {
		result.Message = fmt.Sprintf("%s is %s, threshold: %s %s",
			t.Metric, result.Value, t.Op, formatValue(t.Metric, t.Limit))
	}
	return result
}

func (t Threshold) measure(h *hdr.Histogram) (float64, error) {
	switch t.Metric {
	case "min":
		if h.TotalCount() == 0 {
			return 0, nil
		}
		return float64(h.Min()), nil
	case "max":
		return float64(h.Max()), nil
	case "mean":
		return h.Mean(), nil
	case "stddev":
		return h.StdDev(), nil
	case "count":
		return float64(h.TotalCount()), nil
	default:
		v, err := h.Percentile(t.Percentile)
		return float64(v), err
	}
}

func formatValue(metric string, v float64) string {
	switch metric {
	case "mean", "stddev":
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// Evaluate parses and checks every expression against h. Expressions that do
// not parse fail with a message.
func Evaluate(h *hdr.Histogram, exprs []string, unit time.Duration) *Report {
	report := &Report{Passed: true}

	for _, expr := range exprs {
		t, err := Parse(expr, unit)
		var result Result
		if err != nil {
			result = Result{Expression: expr, Message: err.Error()}
		} else {
			result = t.Check(h)
		}
		report.Passed = report.Passed && result.Passed
		report.Results = append(report.Results, result)
	}
	return report
}
