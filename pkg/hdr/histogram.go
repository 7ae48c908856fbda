package hdr

import (
	"fmt"
	"math"
	"slices"
	"unsafe"
)

// EmptyMin is what Min reports for a histogram holding no values. It is
// larger than any value a histogram can record.
const EmptyMin int64 = math.MaxInt64

// Histogram is a dynamic range histogram of int64 values.
//
// A Histogram is not safe for concurrent use. Callers either serialise
// access behind a lock or give every writer its own histogram and merge
// them with Add.
type Histogram struct {
	layout

	counts     []int64
	totalCount int64
	minValue   int64
	maxValue   int64
}

// New creates a histogram tracking values in [lowest, highest] with the
// given number of significant decimal figures.
func New(lowest, highest int64, significantFigures int) (*Histogram, error) {
	return NewWithConfig(Config{
		LowestTrackableValue:  lowest,
		HighestTrackableValue: highest,
		SignificantFigures:    significantFigures,
	})
}

// NewWithConfig creates a histogram from a Config.
func NewWithConfig(cfg Config) (*Histogram, error) {
	l, err := newLayout(cfg)
	if err != nil {
		return nil, err
	}
	return &Histogram{
		layout:   l,
		counts:   make([]int64, l.countsLen),
		minValue: EmptyMin,
	}, nil
}

// Record adds one occurrence of v. It reports false, leaving the histogram
// untouched, when v is outside [1, HighestTrackableValue].
func (h *Histogram) Record(v int64) bool {
	return h.RecordValues(v, 1)
}

// RecordValues adds n occurrences of v. It reports false, leaving the
// histogram untouched, when v is out of range, n < 1 or the total count
// would overflow.
func (h *Histogram) RecordValues(v, n int64) bool {
	if n < 1 || !h.recordable(v) {
		return false
	}
	if _, ok := addCount(h.totalCount, n); !ok {
		return false
	}
	h.deposit(h.indexFor(uint64(v)), v, v, n)
	return true
}

// RecordCorrectedValue records v and, when v exceeds expectedInterval,
// back-fills the samples a stalled producer would have taken at that
// interval.
func (h *Histogram) RecordCorrectedValue(v, expectedInterval int64) bool {
	return h.RecordCorrectedValues(v, expectedInterval, 1)
}

// RecordCorrectedValues records n occurrences of v, then one occurrence of
// each of v-expectedInterval, v-2*expectedInterval, ... while positive.
// Nothing is recorded when the total count would overflow.
func (h *Histogram) RecordCorrectedValues(v, expectedInterval, n int64) bool {
	if n < 1 || !h.recordable(v) {
		return false
	}
	added, ok := addCount(n, backfillCount(v, expectedInterval))
	if ok {
		_, ok = addCount(h.totalCount, added)
	}
	if !ok {
		return false
	}

	h.deposit(h.indexFor(uint64(v)), v, v, n)
	if expectedInterval <= 0 {
		return true
	}
	for missing := v - expectedInterval; missing > 0; missing -= expectedInterval {
		h.deposit(h.indexFor(uint64(missing)), missing, missing, 1)
	}
	return true
}

func (h *Histogram) recordable(v int64) bool {
	return v >= 1 && v <= h.cfg.HighestTrackableValue
}

// backfillCount is the number of samples RecordCorrectedValues adds below v.
func backfillCount(v, expectedInterval int64) int64 {
	if expectedInterval <= 0 || v <= expectedInterval {
		return 0
	}
	return (v - 1) / expectedInterval
}

// addCount adds two non-negative counts, reporting false on overflow.
func addCount(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}

// deposit adds n to slot idx and widens min/max to cover [lo, hi]. Callers
// check with addCount that totalCount cannot overflow.
func (h *Histogram) deposit(idx int, lo, hi, n int64) {
	h.counts[idx] += n
	h.totalCount += n
	if lo < h.minValue {
		h.minValue = lo
	}
	if hi > h.maxValue {
		h.maxValue = hi
	}
}

// Reset clears all recorded values in place and returns h.
func (h *Histogram) Reset() *Histogram {
	clear(h.counts)
	h.totalCount = 0
	h.minValue = EmptyMin
	h.maxValue = 0
	return h
}

// Copy returns an independent deep copy of h.
func (h *Histogram) Copy() *Histogram {
	c := *h
	c.counts = slices.Clone(h.counts)
	return &c
}

// Config returns the configuration h was built with.
func (h *Histogram) Config() Config { return h.cfg }

// LowestTrackableValue returns the configured lowest trackable value.
func (h *Histogram) LowestTrackableValue() int64 { return h.cfg.LowestTrackableValue }

// HighestTrackableValue returns the configured highest trackable value.
func (h *Histogram) HighestTrackableValue() int64 { return h.cfg.HighestTrackableValue }

// SignificantFigures returns the configured precision.
func (h *Histogram) SignificantFigures() int { return h.cfg.SignificantFigures }

// Layout returns the counts array geometry.
func (h *Histogram) Layout() Layout { return h.exported() }

// TotalCount returns the number of recorded values.
func (h *Histogram) TotalCount() int64 { return h.totalCount }

// Min returns the smallest recorded value, or EmptyMin.
func (h *Histogram) Min() int64 { return h.minValue }

// Max returns the largest recorded value, or 0.
func (h *Histogram) Max() int64 { return h.maxValue }

// CountsLen returns the number of slots in the counts array.
func (h *Histogram) CountsLen() int { return len(h.counts) }

// CountAtIndex returns the count stored at slot i, 0 when i is out of range.
func (h *Histogram) CountAtIndex(i int) int64 {
	if i < 0 || i >= len(h.counts) {
		return 0
	}
	return h.counts[i]
}

// MemorySize approximates the bytes held by h.
func (h *Histogram) MemorySize() int {
	return int(unsafe.Sizeof(*h)) + len(h.counts)*int(unsafe.Sizeof(int64(0)))
}

// LowestEquivalentValue returns the smallest value sharing v's slot.
func (h *Histogram) LowestEquivalentValue(v int64) int64 {
	return saturate(h.lowestEquivalent(nonNegative(v)))
}

// HighestEquivalentValue returns the largest value sharing v's slot.
func (h *Histogram) HighestEquivalentValue(v int64) int64 {
	return saturate(h.highestEquivalent(nonNegative(v)))
}

// NextNonEquivalentValue returns the first value past v's slot.
func (h *Histogram) NextNonEquivalentValue(v int64) int64 {
	return saturate(h.nextNonEquivalent(nonNegative(v)))
}

// MedianEquivalentValue returns the midpoint of v's slot.
func (h *Histogram) MedianEquivalentValue(v int64) int64 {
	return saturate(h.medianEquivalent(nonNegative(v)))
}

// SizeOfEquivalentValueRange returns the width of v's slot.
func (h *Histogram) SizeOfEquivalentValueRange(v int64) int64 {
	return saturate(h.sizeOfEquivalentRange(nonNegative(v)))
}

// ValuesAreEquivalent reports whether a and b land in the same slot.
func (h *Histogram) ValuesAreEquivalent(a, b int64) (bool, error) {
	if a < 0 || b < 0 {
		return false, fmt.Errorf("%w: values must be non-negative, got %d and %d", ErrArgument, a, b)
	}
	return h.indexFor(uint64(a)) == h.indexFor(uint64(b)), nil
}

// String summarises h for debugging.
func (h *Histogram) String() string {
	return fmt.Sprintf("Histogram{lowest=%d highest=%d sigfigs=%d total=%d}",
		h.cfg.LowestTrackableValue, h.cfg.HighestTrackableValue, h.cfg.SignificantFigures, h.totalCount)
}
