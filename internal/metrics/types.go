package metrics

import (
	"time"

	"github.com/wesleyorama2/histo/pkg/hdr"
)

// Stats summarises one histogram.
type Stats struct {
	// Count is the number of recorded values
	Count int64 `json:"count" yaml:"count"`

	// Min is the smallest recorded value, 0 when empty
	Min int64 `json:"min" yaml:"min"`

	// Max is the largest recorded value
	Max int64 `json:"max" yaml:"max"`

	// Mean is the average of recorded values
	Mean float64 `json:"mean" yaml:"mean"`

	// StdDev is the standard deviation of recorded values
	StdDev float64 `json:"stdDev" yaml:"stdDev"`

	P50  int64 `json:"p50" yaml:"p50"`
	P90  int64 `json:"p90" yaml:"p90"`
	P95  int64 `json:"p95" yaml:"p95"`
	P99  int64 `json:"p99" yaml:"p99"`
	P999 int64 `json:"p999" yaml:"p999"`
}

// StatsOf computes Stats from h.
func StatsOf(h *hdr.Histogram) Stats {
	s := Stats{
		Count:  h.TotalCount(),
		Max:    h.Max(),
		Mean:   h.Mean(),
		StdDev: h.StdDev(),
	}
	if s.Count > 0 {
		s.Min = h.Min()
	}

	// The percentiles are constants in (0, 100], so this cannot fail.
	values, _ := h.ValuesAtPercentiles(50, 90, 95, 99, 99.9)
	s.P50 = values[50]
	s.P90 = values[90]
	s.P95 = values[95]
	s.P99 = values[99]
	s.P999 = values[99.9]
	return s
}

// Snapshot contains a point-in-time view of the engine.
type Snapshot struct {
	// Stats summarises every value accepted since start or reset
	Stats Stats `json:"stats" yaml:"stats"`

	// Rejected is the number of values outside the trackable range
	Rejected int64 `json:"rejected" yaml:"rejected"`

	// Writers is the number of open writers
	Writers int `json:"writers" yaml:"writers"`

	// Elapsed is the time since start or reset
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// StartTime is when recording started
	StartTime time.Time `json:"startTime" yaml:"startTime"`

	// Timestamp is when this snapshot was taken
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// TimeBucket holds the values collected during one interval.
//
// Cumulative counters cover everything since start, interval fields cover
// only this bucket.
type TimeBucket struct {
	// Timestamp when this bucket was closed
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Cumulative counters
	TotalCount    int64 `json:"totalCount" yaml:"totalCount"`
	TotalRejected int64 `json:"totalRejected" yaml:"totalRejected"`

	// Interval counters
	IntervalCount    int64   `json:"intervalCount" yaml:"intervalCount"`
	IntervalRejected int64   `json:"intervalRejected" yaml:"intervalRejected"`
	IntervalRate     float64 `json:"intervalRate" yaml:"intervalRate"`

	// Interval distribution
	Stats Stats `json:"stats" yaml:"stats"`

	// Histogram is the compressed encoding of the interval histogram, kept
	// only when EngineConfig.KeepIntervalHistograms is set.
	Histogram []byte `json:"histogram,omitempty" yaml:"histogram,omitempty"`
}

// DecodeHistogram returns the interval histogram carried by the bucket.
func (b *TimeBucket) DecodeHistogram() (*hdr.Histogram, error) {
	if len(b.Histogram) == 0 {
		return nil, ErrNoHistogram
	}
	return hdr.Decode(b.Histogram)
}

// EngineConfig contains configuration for the metrics engine.
type EngineConfig struct {
	// Histogram is the layout of every histogram the engine creates
	Histogram hdr.Config

	// BucketInterval is the interval of the background emitter (default: 1s)
	BucketInterval time.Duration

	// MaxBuckets is the maximum number of buckets to retain (default: 3600)
	MaxBuckets int

	// Unit converts durations passed to RecordDuration (default: 1µs)
	Unit time.Duration

	// Clamp pins out-of-range values to the trackable range instead of
	// rejecting them
	Clamp bool

	// KeepIntervalHistograms stores the encoded interval histogram in
	// every TimeBucket
	KeepIntervalHistograms bool

	// OnBucket, when set, is called with every bucket after it is stored
	OnBucket func(*TimeBucket)
}

// DefaultEngineConfig returns the default configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Histogram: hdr.Config{
			LowestTrackableValue:  1,
			HighestTrackableValue: 3600000000, // 1 hour in microseconds
			SignificantFigures:    hdr.DefaultSignificantFigures,
		},
		BucketInterval: time.Second,
		MaxBuckets:     3600,
		Unit:           time.Microsecond,
	}
}
