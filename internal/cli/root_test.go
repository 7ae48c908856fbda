package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/histo/internal/output"
	"github.com/wesleyorama2/histo/pkg/hdr"
)

// runCLI executes a fresh command tree and captures its output.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeHistogramFile(t *testing.T, dir, name string, values ...int64) string {
	t.Helper()
	h, err := hdr.New(1, 3600*1000*1000, 3)
	require.NoError(t, err)
	for _, v := range values {
		require.True(t, h.Record(v))
	}
	data, err := h.EncodeCompressed()
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func readHistogramFile(t *testing.T, path string) *hdr.Histogram {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	h, err := hdr.Decode(data)
	require.NoError(t, err)
	return h
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 2, ExitCode(ErrThresholdsFailed))
}

func TestRootHelp(t *testing.T) {
	stdout, _, err := runCLI(t, "")
	require.NoError(t, err)
	assert.Contains(t, stdout, "histo record")

	stdout, _, err = runCLI(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, version)
}

func TestRecordFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "# latencies\n100\n200\n\n")
	b := writeFile(t, dir, "b.txt", "300\n1.5ms\n")
	out := filepath.Join(dir, "run.hdr")

	_, stderr, err := runCLI(t, "", "record", "-o", out, a, b)
	require.NoError(t, err)
	assert.Contains(t, stderr, "recorded 4 values from 2 source(s), 0 rejected")

	h := readHistogramFile(t, out)
	assert.Equal(t, int64(4), h.TotalCount())
	assert.Equal(t, int64(100), h.Min())
	assert.Equal(t, int64(1500), h.Max())
}

func TestRecordStdinText(t *testing.T) {
	stdout, _, err := runCLI(t, "5\n6\n7000000000\n", "record", "--unit", "raw", "--highest", "1000", "--text")
	require.NoError(t, err)

	var h hdr.Histogram
	require.NoError(t, h.UnmarshalText([]byte(strings.TrimSpace(stdout))))
	assert.Equal(t, int64(2), h.TotalCount())
	assert.Equal(t, int64(1000), h.HighestTrackableValue())
}

func TestRecordClamp(t *testing.T) {
	stdout, stderr, err := runCLI(t, "5\n5000\n", "record", "--unit", "raw", "--highest", "1000", "--clamp", "--text")
	require.NoError(t, err)
	assert.Contains(t, stderr, "0 rejected")

	var h hdr.Histogram
	require.NoError(t, h.UnmarshalText([]byte(strings.TrimSpace(stdout))))
	assert.Equal(t, int64(1000), h.Max())
}

func TestRecordJSONLCorrected(t *testing.T) {
	stdin := `{"t":{"total":"2.5ms"}}` + "\n"
	stdout, _, err := runCLI(t, stdin, "record", "--text",
		"--input-format", "jsonl", "--field", "t.total", "--expected-interval", "1ms")
	require.NoError(t, err)

	var h hdr.Histogram
	require.NoError(t, h.UnmarshalText([]byte(strings.TrimSpace(stdout))))
	assert.Equal(t, int64(3), h.TotalCount())
	assert.Equal(t, int64(1), h.CountAtValue(500))
	assert.Equal(t, int64(1), h.CountAtValue(1500))
}

func TestRecordSeries(t *testing.T) {
	dir := t.TempDir()
	series := filepath.Join(dir, "series.json")

	_, _, err := runCLI(t, "1\n2\n3\n", "record", "--series", series, "-o", filepath.Join(dir, "out.hdr"))
	require.NoError(t, err)

	data, err := os.ReadFile(series)
	require.NoError(t, err)
	var buckets []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &buckets))
	require.NotEmpty(t, buckets)
	assert.Equal(t, 3.0, buckets[len(buckets)-1]["totalCount"])
}

func TestRecordErrors(t *testing.T) {
	_, _, err := runCLI(t, "1\nfast\n", "record")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, _, err = runCLI(t, "", "record", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "failed to open input")

	_, _, err = runCLI(t, "", "record", "--sig-figs", "9")
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := writeHistogramFile(t, dir, "a.hdr", 10, 20)
	b := writeHistogramFile(t, dir, "b.hdr", 30)
	out := filepath.Join(dir, "merged.hdr")

	_, stderr, err := runCLI(t, "", "merge", "-o", out, a, b)
	require.NoError(t, err)
	assert.Contains(t, stderr, "merged 2 histogram(s): 3 values, 0 dropped")

	h := readHistogramFile(t, out)
	assert.Equal(t, int64(3), h.TotalCount())
	assert.Equal(t, int64(30), h.Max())
}

func TestMergeIntoNarrowerLayout(t *testing.T) {
	dir := t.TempDir()
	a := writeHistogramFile(t, dir, "a.hdr", 10, 20)
	b := writeHistogramFile(t, dir, "b.hdr", 30)
	out := filepath.Join(dir, "merged.hdr")

	_, stderr, err := runCLI(t, "", "merge", "--highest", "15", "-o", out, a, b)
	require.NoError(t, err)
	assert.Contains(t, stderr, "1 values, 2 dropped")
	assert.Equal(t, int64(15), readHistogramFile(t, out).HighestTrackableValue())
}

func TestMergeReadsTextForm(t *testing.T) {
	dir := t.TempDir()
	h, err := hdr.New(1, 1000, 2)
	require.NoError(t, err)
	h.Record(7)
	text, err := h.MarshalText()
	require.NoError(t, err)
	a := writeFile(t, dir, "a.txt", string(text)+"\n")

	stdout, _, err := runCLI(t, "", "merge", "--text", a)
	require.NoError(t, err)

	var merged hdr.Histogram
	require.NoError(t, merged.UnmarshalText([]byte(strings.TrimSpace(stdout))))
	eq, err := merged.Equals(h)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestMergeErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := writeFile(t, dir, "bad.hdr", "not a histogram")

	_, _, err := runCLI(t, "", "merge", garbage)
	assert.ErrorIs(t, err, hdr.ErrDecode)

	_, _, err = runCLI(t, "", "merge")
	assert.Error(t, err)
}

func TestReportText(t *testing.T) {
	dir := t.TempDir()
	path := writeHistogramFile(t, dir, "run.hdr", 42, 42, 45)

	stdout, _, err := runCLI(t, "", "report", "--no-color", "--name", "api",
		"--percentiles", "50,99", "--ticks", "1", path)
	require.NoError(t, err)

	assert.Contains(t, stdout, "api - 3 values")
	assert.Contains(t, stdout, "p99:")
	assert.Contains(t, stdout, "      45.000 1.000000000000          3")
	assert.Contains(t, stdout, "#[Mean    =       43.000, StdDeviation   =        1.414]")
	assert.NotContains(t, stdout, "\x1b[")
}

func TestReportJSON(t *testing.T) {
	dir := t.TempDir()
	a := writeHistogramFile(t, dir, "a.hdr", 1000)
	b := writeHistogramFile(t, dir, "b.hdr", 2000)

	stdout, _, err := runCLI(t, "", "report", "-f", "json", "--percentiles", "100",
		"--scale", "1000", "--threshold", "max < 1ms", a, b)
	require.NoError(t, err, "report does not fail on thresholds")

	var r output.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &r))
	assert.Equal(t, int64(2), r.Summary.Count)
	assert.Equal(t, 2.0, r.Summary.Max)
	assert.Equal(t, []string{a, b}, r.Sources)
	require.NotNil(t, r.Thresholds)
	assert.False(t, r.Thresholds.Passed)
}

func TestReportHTML(t *testing.T) {
	dir := t.TempDir()
	path := writeHistogramFile(t, dir, "run.hdr", 42, 42, 45)

	stdout, _, err := runCLI(t, "", "report", "-f", "html", "--name", "api",
		"--threshold", "p99 < 50us", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "<!DOCTYPE html>"))
	assert.Contains(t, stdout, "<h1>api</h1>")
	assert.Contains(t, stdout, "&#10003; PASSED")
}

func TestReportWithProfile(t *testing.T) {
	dir := t.TempDir()
	profile := writeFile(t, dir, "profile.yaml", `
name: from-profile
unit: ms
report:
  format: yaml
  percentiles: [50]
thresholds:
  - p50 < 1s
`)
	path := writeHistogramFile(t, dir, "run.hdr", 250)

	stdout, _, err := runCLI(t, "", "report", "-p", profile, path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: from-profile")
	assert.Contains(t, stdout, "unit: ms")
	assert.Contains(t, stdout, "passed: true")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	path := writeHistogramFile(t, dir, "run.hdr", 100, 200, 300)

	stdout, _, err := runCLI(t, "", "check", "--no-color", "--threshold", "p99 < 1ms", "--threshold", "count >= 3", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ p99 < 1ms")
	assert.Contains(t, stdout, "PASSED")

	stdout, _, err = runCLI(t, "", "check", "--no-color", "--threshold", "p50 > 1s", "--threshold", "max < 1ms", path)
	require.ErrorIs(t, err, ErrThresholdsFailed)
	assert.Equal(t, 2, ExitCode(err))
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, stdout, "✗ p50 > 1s")
	assert.Contains(t, stdout, "FAILED")
}

func TestCheckErrors(t *testing.T) {
	path := writeHistogramFile(t, t.TempDir(), "run.hdr", 1)

	_, _, err := runCLI(t, "", "check", path)
	assert.ErrorContains(t, err, "no thresholds")
	assert.Equal(t, 1, ExitCode(err))

	_, _, err = runCLI(t, "", "check", "--threshold", "p99 is fast", path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrThresholdsFailed)
}

func TestIterate(t *testing.T) {
	dir := t.TempDir()
	path := writeHistogramFile(t, dir, "run.hdr", 42, 42, 45)

	stdout, _, err := runCLI(t, "", "iterate", "-f", "json", path)
	require.NoError(t, err)
	var values []hdr.IterationValue
	require.NoError(t, json.Unmarshal([]byte(stdout), &values))
	require.Len(t, values, 2)
	assert.Equal(t, int64(45), values[1].ValueIteratedTo)

	stdout, _, err = runCLI(t, "", "iterate", "--mode", "percentile", "--ticks", "1", "-f", "json", path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &values))
	assert.Len(t, values, 4)

	stdout, _, err = runCLI(t, "", "iterate", "--mode", "linear", "--units", "10", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "TotalCount")
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Len(t, lines, 6, "header plus steps up to 49")
}

func TestIterateErrors(t *testing.T) {
	path := writeHistogramFile(t, t.TempDir(), "run.hdr", 1)

	_, _, err := runCLI(t, "", "iterate", "--mode", "spiral", path)
	assert.ErrorContains(t, err, "unknown iteration mode")

	_, _, err = runCLI(t, "", "iterate", "--mode", "log", "--base", "1", path)
	assert.ErrorIs(t, err, hdr.ErrArgument)
}

func TestInfo(t *testing.T) {
	stdout, _, err := runCLI(t, "", "info", "-f", "json")
	require.NoError(t, err)

	var infos []histogramInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, 22, infos[0].Layout.BucketCount)
	assert.Equal(t, 23552, infos[0].Layout.CountsLen)
	assert.Greater(t, infos[0].MemorySize, 23552*8-1)

	stdout, _, err = runCLI(t, "", "info", "--highest", "1000", "--sig-figs", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Highest:")
	assert.Contains(t, stdout, "1,000")
}

func TestInfoFiles(t *testing.T) {
	path := writeHistogramFile(t, t.TempDir(), "run.hdr", 5, 9)

	stdout, _, err := runCLI(t, "", "info", "-f", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "totalCount: 2")
	assert.Contains(t, stdout, "min: 5")
	assert.Contains(t, stdout, "max: 9")
}
