package hdr

import (
	"fmt"
	"math"
	"math/bits"
)

// DefaultSignificantFigures is the precision used when none is configured.
const DefaultSignificantFigures = 3

// Config is the immutable configuration of a histogram.
type Config struct {
	// LowestTrackableValue is the smallest value distinguishable from 0.
	// Values below it share the lowest-resolution slots. Must be >= 1.
	LowestTrackableValue int64 `json:"lowestTrackableValue" yaml:"lowestTrackableValue"`

	// HighestTrackableValue is the largest value that can be recorded.
	// Must be >= 2 * LowestTrackableValue.
	HighestTrackableValue int64 `json:"highestTrackableValue" yaml:"highestTrackableValue"`

	// SignificantFigures is the number of decimal digits of precision kept
	// across the whole range, between 1 and 5 inclusive.
	SignificantFigures int `json:"significantFigures" yaml:"significantFigures"`
}

// Validate reports whether the configuration can back a histogram.
func (c Config) Validate() error {
	if c.LowestTrackableValue < 1 {
		return fmt.Errorf("%w: lowest trackable value must be >= 1, got %d",
			ErrConfiguration, c.LowestTrackableValue)
	}
	if c.SignificantFigures < 1 || c.SignificantFigures > 5 {
		return fmt.Errorf("%w: significant figures must be between 1 and 5, got %d",
			ErrConfiguration, c.SignificantFigures)
	}
	if c.LowestTrackableValue > math.MaxInt64/2 || c.HighestTrackableValue < 2*c.LowestTrackableValue {
		return fmt.Errorf("%w: highest trackable value %d must be >= 2 * lowest trackable value %d",
			ErrConfiguration, c.HighestTrackableValue, c.LowestTrackableValue)
	}
	if unitMagnitudeFor(c.LowestTrackableValue)+subBucketHalfCountMagnitudeFor(c.SignificantFigures) > 61 {
		return fmt.Errorf("%w: lowest trackable value %d is too large for %d significant figures",
			ErrConfiguration, c.LowestTrackableValue, c.SignificantFigures)
	}
	return nil
}

// Layout exposes the counts array geometry derived from a Config.
type Layout struct {
	UnitMagnitude               int `json:"unitMagnitude" yaml:"unitMagnitude"`
	SubBucketCount              int `json:"subBucketCount" yaml:"subBucketCount"`
	SubBucketHalfCount          int `json:"subBucketHalfCount" yaml:"subBucketHalfCount"`
	SubBucketHalfCountMagnitude int `json:"subBucketHalfCountMagnitude" yaml:"subBucketHalfCountMagnitude"`
	BucketCount                 int `json:"bucketCount" yaml:"bucketCount"`
	CountsLen                   int `json:"countsLen" yaml:"countsLen"`
}

// layout holds the derived constants every index computation depends on.
// All value arithmetic is done on uint64 so that shifts near the top of the
// int64 range cannot overflow.
type layout struct {
	cfg Config

	unitMagnitude               uint
	subBucketHalfCountMagnitude uint
	subBucketCount              int
	subBucketHalfCount          int
	subBucketMask               uint64
	bucketCount                 int
	countsLen                   int

	// maxIndex is the slot of HighestTrackableValue; no recordable value
	// lands beyond it.
	maxIndex int
}

func unitMagnitudeFor(lowest int64) uint {
	return uint(bits.Len64(uint64(lowest)) - 1)
}

// subBucketHalfCountMagnitudeFor keeps single unit resolution up to
// 2 * 10^sf, rounded up to a power of two.
func subBucketHalfCountMagnitudeFor(sf int) uint {
	largest := uint64(2)
	for i := 0; i < sf; i++ {
		largest *= 10
	}
	return uint(bits.Len64(largest-1)) - 1
}

func newLayout(cfg Config) (layout, error) {
	if err := cfg.Validate(); err != nil {
		return layout{}, err
	}

	l := layout{
		cfg:                         cfg,
		unitMagnitude:               unitMagnitudeFor(cfg.LowestTrackableValue),
		subBucketHalfCountMagnitude: subBucketHalfCountMagnitudeFor(cfg.SignificantFigures),
	}
	l.subBucketCount = 1 << (l.subBucketHalfCountMagnitude + 1)
	l.subBucketHalfCount = l.subBucketCount / 2
	l.subBucketMask = uint64(l.subBucketCount-1) << l.unitMagnitude

	smallestUntrackable := uint64(l.subBucketCount) << l.unitMagnitude
	l.bucketCount = bucketsNeeded(smallestUntrackable, uint64(cfg.HighestTrackableValue))
	l.countsLen = (l.bucketCount + 1) * l.subBucketHalfCount
	l.maxIndex = l.indexFor(uint64(cfg.HighestTrackableValue))
	return l, nil
}

// bucketsNeeded counts the doublings of smallestUntrackable required to
// cover highest, always at least one.
func bucketsNeeded(smallestUntrackable, highest uint64) int {
	n := 1
	for smallestUntrackable <= highest {
		if smallestUntrackable > math.MaxInt64/2 {
			return n + 1
		}
		smallestUntrackable <<= 1
		n++
	}
	return n
}

func (l *layout) bucketIndex(v uint64) int {
	return bits.Len64(v|l.subBucketMask) - int(l.unitMagnitude) - int(l.subBucketHalfCountMagnitude+1)
}

func (l *layout) subBucketIndex(v uint64, bucketIdx int) int {
	return int(v >> (uint(bucketIdx) + l.unitMagnitude))
}

// indexFor maps a value to its counts slot. The result may be past the end
// of the counts array for values above the trackable range.
func (l *layout) indexFor(v uint64) int {
	bucketIdx := l.bucketIndex(v)
	subBucketIdx := l.subBucketIndex(v, bucketIdx)
	return (bucketIdx << l.subBucketHalfCountMagnitude) + subBucketIdx
}

// valueFor returns the lowest value that maps to index.
func (l *layout) valueFor(index int) uint64 {
	bucketIdx := (index >> l.subBucketHalfCountMagnitude) - 1
	subBucketIdx := (index & (l.subBucketHalfCount - 1)) + l.subBucketHalfCount
	if bucketIdx < 0 {
		subBucketIdx -= l.subBucketHalfCount
		bucketIdx = 0
	}
	return uint64(subBucketIdx) << (uint(bucketIdx) + l.unitMagnitude)
}

func (l *layout) sizeOfEquivalentRange(v uint64) uint64 {
	bucketIdx := l.bucketIndex(v)
	if l.subBucketIndex(v, bucketIdx) >= l.subBucketCount {
		bucketIdx++
	}
	return 1 << (l.unitMagnitude + uint(bucketIdx))
}

func (l *layout) lowestEquivalent(v uint64) uint64 {
	bucketIdx := l.bucketIndex(v)
	return uint64(l.subBucketIndex(v, bucketIdx)) << (uint(bucketIdx) + l.unitMagnitude)
}

func (l *layout) nextNonEquivalent(v uint64) uint64 {
	return l.lowestEquivalent(v) + l.sizeOfEquivalentRange(v)
}

func (l *layout) highestEquivalent(v uint64) uint64 {
	return l.nextNonEquivalent(v) - 1
}

func (l *layout) medianEquivalent(v uint64) uint64 {
	return l.lowestEquivalent(v) + l.sizeOfEquivalentRange(v)>>1
}

func (l *layout) exported() Layout {
	return Layout{
		UnitMagnitude:               int(l.unitMagnitude),
		SubBucketCount:              l.subBucketCount,
		SubBucketHalfCount:          l.subBucketHalfCount,
		SubBucketHalfCountMagnitude: int(l.subBucketHalfCountMagnitude),
		BucketCount:                 l.bucketCount,
		CountsLen:                   l.countsLen,
	}
}

// saturate converts an unsigned value back to int64, pinning anything above
// the int64 range to math.MaxInt64.
func saturate(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func nonNegative(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}
