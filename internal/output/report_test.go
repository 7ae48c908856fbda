package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/histo/internal/input"
	"github.com/wesleyorama2/histo/internal/slo"
	"github.com/wesleyorama2/histo/pkg/hdr"
)

func newHistogram(t *testing.T, values ...int64) *hdr.Histogram {
	t.Helper()
	h, err := hdr.New(1, 3600*1000*1000, 3)
	require.NoError(t, err)
	for _, v := range values {
		require.True(t, h.Record(v))
	}
	return h
}

func TestNewReport(t *testing.T) {
	h := newHistogram(t, 42, 42, 45)

	r, err := NewReport(h, Options{
		Name:        "api",
		Unit:        input.MustParseUnit("us"),
		Ticks:       1,
		Percentiles: []float64{99, 50, 50},
	})
	require.NoError(t, err)

	assert.Equal(t, "api", r.Name)
	assert.Equal(t, "us", r.Unit)
	assert.Equal(t, 1.0, r.Scale)
	assert.Equal(t, int64(3), r.Summary.Count)
	assert.Equal(t, 42.0, r.Summary.Min)
	assert.Equal(t, 45.0, r.Summary.Max)
	assert.Equal(t, 43.0, r.Summary.Mean)
	assert.Equal(t, h.MemorySize(), r.Summary.MemorySize)

	assert.Equal(t, []PercentileRow{{50, 42}, {99, 45}}, r.Percentiles)

	require.Len(t, r.Distribution, 4)
	assert.Equal(t, DistributionRow{Value: 42, Percentile: 0, TotalCount: 2, InverseTail: 1}, r.Distribution[0])
	assert.Equal(t, DistributionRow{Value: 42, Percentile: 0.5, TotalCount: 2, InverseTail: 2}, r.Distribution[1])
	assert.Equal(t, DistributionRow{Value: 45, Percentile: 0.75, TotalCount: 3, InverseTail: 4}, r.Distribution[2])
	assert.Equal(t, DistributionRow{Value: 45, Percentile: 1, TotalCount: 3}, r.Distribution[3])
	assert.True(t, r.Passed())
}

func TestNewReportScale(t *testing.T) {
	h := newHistogram(t, 1000, 2000)

	r, err := NewReport(h, Options{Scale: 1000, Percentiles: []float64{100}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Summary.Min)
	assert.Equal(t, 2.0, r.Summary.Max)
	assert.Equal(t, 1.5, r.Summary.Mean)
	assert.Equal(t, []PercentileRow{{100, 2}}, r.Percentiles)
	assert.Empty(t, r.Distribution)

	_, err = NewReport(h, Options{Scale: -1})
	assert.Error(t, err)
}

func TestNewReportEmpty(t *testing.T) {
	r, err := NewReport(newHistogram(t), Options{Ticks: 5, Percentiles: []float64{50}})
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.Summary.Min)
	assert.Equal(t, 0.0, r.Summary.Max)
	assert.Equal(t, []PercentileRow{{50, 0}}, r.Percentiles)
	require.Len(t, r.Distribution, 1)
	assert.Equal(t, 1.0, r.Distribution[0].Percentile)
}

func TestNewReportInvalidPercentile(t *testing.T) {
	_, err := NewReport(newHistogram(t, 1), Options{Percentiles: []float64{0}})
	assert.ErrorIs(t, err, hdr.ErrArgument)
}

func TestReportPassed(t *testing.T) {
	h := newHistogram(t, 42, 42, 45)

	r, err := NewReport(h, Options{Thresholds: slo.Evaluate(h, []string{"max < 40"}, 0)})
	require.NoError(t, err)
	assert.False(t, r.Passed())
}
