package hdr

import (
	"fmt"
	"math"
)

// IterationValue is the record an Iterator produces at each step.
type IterationValue struct {
	// Value is the lowest value of the slot the iterator stopped at.
	Value int64 `json:"value" yaml:"value"`
	// ValueIteratedFrom is the ValueIteratedTo of the previous step.
	ValueIteratedFrom int64 `json:"valueIteratedFrom" yaml:"valueIteratedFrom"`
	// ValueIteratedTo is the upper edge this step covers.
	ValueIteratedTo int64 `json:"valueIteratedTo" yaml:"valueIteratedTo"`
	// Count is the count held by the slot the iterator stopped at.
	Count int64 `json:"count" yaml:"count"`
	// CountAddedThisIteration is the count covered since the previous step.
	CountAddedThisIteration int64 `json:"countAddedThisIteration" yaml:"countAddedThisIteration"`
	// CumulativeCount is the count covered from the start of the traversal.
	CumulativeCount int64 `json:"cumulativeCount" yaml:"cumulativeCount"`
	// Percentile is CumulativeCount as a percentage of the total.
	Percentile float64 `json:"percentile" yaml:"percentile"`
	// PercentileLevelIteratedTo is the target level for percentile
	// iteration and equals Percentile for every other mode.
	PercentileLevelIteratedTo float64 `json:"percentileLevelIteratedTo" yaml:"percentileLevelIteratedTo"`

	LowestEquivalentValue  int64 `json:"lowestEquivalentValue" yaml:"lowestEquivalentValue"`
	HighestEquivalentValue int64 `json:"highestEquivalentValue" yaml:"highestEquivalentValue"`
	MedianEquivalentValue  int64 `json:"medianEquivalentValue" yaml:"medianEquivalentValue"`
}

type iterationMode int

const (
	modeAll iterationMode = iota
	modeRecorded
	modeLinear
	modeLogarithmic
	modePercentile
)

// Iterator walks a histogram in one of several step modes:
//
//	it := h.RecordedValues()
//	for it.Next() {
//		v := it.Value()
//		...
//	}
//
// An Iterator reads the histogram's counts directly; recording into the
// histogram during a traversal gives unspecified results. Iterators are not
// restartable.
type Iterator struct {
	h    *Histogram
	mode iterationMode

	total     int64
	lastIndex int

	index               int
	valueAtIndex        uint64
	nextValueAtIndex    uint64
	countToPrevIndex    int64
	countToIndex        int64
	prevValueIteratedTo int64
	freshIndex          bool
	visitedIndex        int

	// linear and logarithmic steps
	unitsPerBucket     int64
	logBase            float64
	nextReportingLevel float64
	stepHighest        uint64
	stepLowest         uint64

	// percentile steps
	ticksPerHalfDistance int
	percentileTo         float64
	reachedLast          bool
	finalStep            bool

	done bool
	cur  IterationValue
}

func newIterator(h *Histogram, mode iterationMode) *Iterator {
	return &Iterator{
		h:                h,
		mode:             mode,
		total:            h.totalCount,
		lastIndex:        h.maxIndex,
		valueAtIndex:     h.valueFor(0),
		nextValueAtIndex: h.valueFor(1),
		freshIndex:       true,
		visitedIndex:     -1,
	}
}

// AllValues iterates every slot from 0 through the slot of
// HighestTrackableValue, including empty ones.
func (h *Histogram) AllValues() *Iterator {
	return newIterator(h, modeAll)
}

// RecordedValues iterates only slots with a non-zero count.
func (h *Histogram) RecordedValues() *Iterator {
	return newIterator(h, modeRecorded)
}

// LinearValues iterates fixed-width steps of unitsPerBucket.
func (h *Histogram) LinearValues(unitsPerBucket int64) (*Iterator, error) {
	if unitsPerBucket < 1 {
		return nil, fmt.Errorf("%w: units per bucket must be >= 1, got %d", ErrArgument, unitsPerBucket)
	}
	it := newIterator(h, modeLinear)
	it.unitsPerBucket = unitsPerBucket
	it.setStepHighest(uint64(unitsPerBucket) - 1)
	return it, nil
}

// LogarithmicValues iterates steps whose width starts at firstBucketUnits and
// grows by logBase each step.
func (h *Histogram) LogarithmicValues(firstBucketUnits int64, logBase float64) (*Iterator, error) {
	if firstBucketUnits < 1 {
		return nil, fmt.Errorf("%w: first bucket units must be >= 1, got %d", ErrArgument, firstBucketUnits)
	}
	if math.IsNaN(logBase) || math.IsInf(logBase, 0) || logBase <= 1 {
		return nil, fmt.Errorf("%w: log base must be a finite number > 1, got %v", ErrArgument, logBase)
	}
	it := newIterator(h, modeLogarithmic)
	it.logBase = logBase
	it.nextReportingLevel = float64(firstBucketUnits)
	it.setStepHighest(uint64(firstBucketUnits) - 1)
	return it, nil
}

// PercentileValues iterates percentile levels that get denser towards 100,
// with ticksPerHalfDistance steps for each halving of the distance to 100.
// The last record is always at 100.
func (h *Histogram) PercentileValues(ticksPerHalfDistance int) (*Iterator, error) {
	if ticksPerHalfDistance < 1 {
		return nil, fmt.Errorf("%w: ticks per half distance must be >= 1, got %d", ErrArgument, ticksPerHalfDistance)
	}
	return newPercentileIterator(h, ticksPerHalfDistance), nil
}

func newPercentileIterator(h *Histogram, ticksPerHalfDistance int) *Iterator {
	it := newIterator(h, modePercentile)
	it.ticksPerHalfDistance = ticksPerHalfDistance
	return it
}

// Value returns the record produced by the last successful Next.
func (it *Iterator) Value() IterationValue {
	return it.cur
}

// Next advances to the next step and reports whether there was one.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if !it.hasNext() {
		it.done = true
		return false
	}
	if it.mode == modePercentile && it.total == 0 {
		it.cur = IterationValue{Percentile: 100, PercentileLevelIteratedTo: 100}
		it.finalStep = true
		return true
	}

	for it.index <= it.lastIndex {
		count := it.h.counts[it.index]
		if it.freshIndex {
			it.countToIndex += count
			it.freshIndex = false
		}
		if it.reachedIterationLevel(count) {
			it.emit(count)
			if it.stepSaturated() {
				// No later step can cover a larger value.
				it.done = true
			} else {
				it.incrementIterationLevel()
			}
			return true
		}
		it.incrementIndex()
	}
	it.done = true
	return false
}

func (it *Iterator) hasNext() bool {
	switch it.mode {
	case modeAll:
		return it.index < it.lastIndex || it.visitedIndex != it.index
	case modeLinear, modeLogarithmic:
		if it.countToIndex < it.total {
			return true
		}
		return it.pendingStepValue() < it.nextValueAtIndex
	case modePercentile:
		if it.countToIndex < it.total {
			return true
		}
		if !it.reachedLast {
			it.percentileTo = 100
			it.reachedLast = true
			return true
		}
		return false
	default:
		return it.countToIndex < it.total
	}
}

// pendingStepValue is the value whose slot must still be reached for a pending
// linear or logarithmic step to be emitted once all counts are consumed.
func (it *Iterator) pendingStepValue() uint64 {
	if it.mode == modeLinear {
		return it.stepHighest + 1
	}
	return it.h.lowestEquivalent(floatToUint64(it.nextReportingLevel))
}

// stepSaturated reports whether a linear or logarithmic step already reaches
// the largest representable value.
func (it *Iterator) stepSaturated() bool {
	switch it.mode {
	case modeLinear:
		return it.stepHighest >= math.MaxInt64
	case modeLogarithmic:
		return it.nextReportingLevel >= math.MaxInt64
	default:
		return false
	}
}

func (it *Iterator) reachedIterationLevel(count int64) bool {
	switch it.mode {
	case modeRecorded:
		return count != 0 && it.visitedIndex != it.index
	case modeLinear, modeLogarithmic:
		return it.valueAtIndex >= it.stepLowest || it.index >= it.lastIndex
	case modePercentile:
		return count != 0 && it.currentPercentile() >= it.percentileTo
	default:
		return it.visitedIndex != it.index
	}
}

func (it *Iterator) currentPercentile() float64 {
	if it.total == 0 {
		return 0
	}
	return 100 * float64(it.countToIndex) / float64(it.total)
}

func (it *Iterator) valueIteratedTo() int64 {
	switch it.mode {
	case modeLinear, modeLogarithmic:
		return saturate(it.stepHighest)
	default:
		return saturate(it.h.highestEquivalent(it.valueAtIndex))
	}
}

func (it *Iterator) emit(count int64) {
	to := it.valueIteratedTo()
	pct := it.currentPercentile()
	level := pct
	if it.mode == modePercentile {
		level = min(it.percentileTo, 100)
		it.finalStep = it.reachedLast
	}
	it.cur = IterationValue{
		Value:                     saturate(it.valueAtIndex),
		ValueIteratedFrom:         it.prevValueIteratedTo,
		ValueIteratedTo:           to,
		Count:                     count,
		CountAddedThisIteration:   it.countToIndex - it.countToPrevIndex,
		CumulativeCount:           it.countToIndex,
		Percentile:                pct,
		PercentileLevelIteratedTo: level,
		LowestEquivalentValue:     saturate(it.h.lowestEquivalent(it.valueAtIndex)),
		HighestEquivalentValue:    saturate(it.h.highestEquivalent(it.valueAtIndex)),
		MedianEquivalentValue:     saturate(it.h.medianEquivalent(it.valueAtIndex)),
	}
	it.prevValueIteratedTo = to
	it.countToPrevIndex = it.countToIndex
}

func (it *Iterator) incrementIterationLevel() {
	switch it.mode {
	case modeLinear:
		it.setStepHighest(saturatingAdd(it.stepHighest, uint64(it.unitsPerBucket)))
	case modeLogarithmic:
		it.nextReportingLevel *= it.logBase
		it.setStepHighest(floatToUint64(it.nextReportingLevel) - 1)
	case modePercentile:
		if it.percentileTo >= 100 {
			return
		}
		halvings := math.Floor(math.Log2(100/(100-it.percentileTo))) + 1
		ticks := float64(it.ticksPerHalfDistance) * math.Pow(2, halvings)
		it.percentileTo += 100 / ticks
	default:
		it.visitedIndex = it.index
	}
}

func (it *Iterator) incrementIndex() {
	it.index++
	it.freshIndex = true
	it.valueAtIndex = it.h.valueFor(it.index)
	it.nextValueAtIndex = it.h.valueFor(it.index + 1)
}

func (it *Iterator) setStepHighest(v uint64) {
	it.stepHighest = min(v, math.MaxInt64)
	it.stepLowest = it.h.lowestEquivalent(it.stepHighest)
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func floatToUint64(f float64) uint64 {
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f < 1 {
		return 1
	}
	return uint64(f)
}
