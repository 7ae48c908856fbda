package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/histo/internal/input"
	"github.com/wesleyorama2/histo/internal/slo"
)

func sampleReport(t *testing.T) *Report {
	t.Helper()
	h := newHistogram(t, 42, 42, 45)
	r, err := NewReport(h, Options{
		Name:        "api",
		Unit:        input.MustParseUnit("us"),
		Ticks:       1,
		Percentiles: []float64{50, 99.9},
		Thresholds:  slo.Evaluate(h, []string{"p50 <= 42", "max < 40"}, 0),
	})
	require.NoError(t, err)
	return r
}

func TestParseFormat(t *testing.T) {
	tests := map[string]OutputFormat{
		"":      FormatText,
		"text":  FormatText,
		"JSON":  FormatJSON,
		" yaml": FormatYAML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	got, err := ParseFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, got)

	_, err = ParseFormat("junit")
	assert.Error(t, err)
}

func TestGetRenderer(t *testing.T) {
	assert.IsType(t, &JSONRenderer{}, GetRenderer(FormatJSON, false))
	assert.IsType(t, &YAMLRenderer{}, GetRenderer(FormatYAML, false))
	assert.IsType(t, &HTMLRenderer{}, GetRenderer(FormatHTML, false))

	text, ok := GetRenderer(FormatText, false).(*TextRenderer)
	require.True(t, ok)
	assert.True(t, text.NoColor)
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONRenderer{Pretty: true}).Render(&buf, sampleReport(t)))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "api", decoded["name"])
	assert.Equal(t, "us", decoded["unit"])

	summary := decoded["summary"].(map[string]interface{})
	assert.Equal(t, 3.0, summary["count"])

	dist := decoded["distribution"].([]interface{})
	require.Len(t, dist, 4)
	last := dist[3].(map[string]interface{})
	assert.NotContains(t, last, "inverseTail")

	thresholds := decoded["thresholds"].(map[string]interface{})
	assert.Equal(t, false, thresholds["passed"])
}

func TestYAMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLRenderer{}).Render(&buf, sampleReport(t)))

	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "api", decoded.Name)
	assert.Equal(t, int64(3), decoded.Summary.Count)
	assert.Equal(t, []PercentileRow{{50, 42}, {99.9, 45}}, decoded.Percentiles)
	require.NotNil(t, decoded.Thresholds)
	assert.Len(t, decoded.Thresholds.Results, 2)
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextRenderer(true).Render(&buf, sampleReport(t)))
	out := buf.String()

	assert.Contains(t, out, "api - 3 values")
	assert.Contains(t, out, "Min:          42µs")
	assert.Contains(t, out, "Max:          45µs")
	assert.Contains(t, out, "  p99.9:     45µs")

	wantTable := strings.Join([]string{
		"       Value     Percentile TotalCount 1/(1-Percentile)",
		"",
		"      42.000 0.000000000000          2           1.00",
		"      42.000 0.500000000000          2           2.00",
		"      45.000 0.750000000000          3           4.00",
		"      45.000 1.000000000000          3",
		"#[Mean    =       43.000, StdDeviation   =        1.414]",
		"#[Max     =       45.000, Total count    =            3]",
		"#[Buckets =           22, SubBuckets     =         2048]",
	}, "\n")
	assert.Contains(t, out, wantTable)

	assert.Contains(t, out, "✓ p50 <= 42")
	assert.Contains(t, out, "✗ max < 40 (max is 45, threshold: < 40)")
	assert.True(t, strings.HasSuffix(out, "FAILED\n"))
	assert.NotContains(t, out, "\x1b[")
}

func TestTextRendererColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextRenderer(false).Render(&buf, sampleReport(t)))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "")
	assert.False(t, UseColor(&buf, false), "a buffer is not a terminal")
	assert.False(t, UseColor(&buf, true))
	assert.False(t, IsTerminal(&buf))

	t.Setenv("FORCE_COLOR", "1")
	assert.True(t, UseColor(&buf, false))
	assert.False(t, UseColor(&buf, true))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, UseColor(&buf, false))
}
