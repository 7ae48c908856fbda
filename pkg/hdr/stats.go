package hdr

import (
	"fmt"
	"math"
	"slices"
)

// PercentileValue is one breakpoint of the percentile distribution.
type PercentileValue struct {
	Percentile float64 `json:"percentile" yaml:"percentile"`
	Value      int64   `json:"value" yaml:"value"`
}

// Mean returns the count-weighted mean of slot midpoints, 0 when empty.
func (h *Histogram) Mean() float64 {
	if h.totalCount == 0 {
		return 0
	}
	var sum float64
	for i, c := range h.counts {
		if c != 0 {
			sum += float64(c) * float64(h.medianEquivalent(h.valueFor(i)))
		}
	}
	return sum / float64(h.totalCount)
}

// StdDev returns the population standard deviation of slot midpoints, 0 when
// empty.
func (h *Histogram) StdDev() float64 {
	if h.totalCount == 0 {
		return 0
	}
	mean := h.Mean()
	var geometricDevTotal float64
	for i, c := range h.counts {
		if c != 0 {
			dev := float64(h.medianEquivalent(h.valueFor(i))) - mean
			geometricDevTotal += dev * dev * float64(c)
		}
	}
	return math.Sqrt(geometricDevTotal / float64(h.totalCount))
}

func validPercentile(p float64) error {
	if math.IsNaN(p) || p <= 0 || p > 100 {
		return fmt.Errorf("%w: percentile must be in (0, 100], got %v", ErrArgument, p)
	}
	return nil
}

// countAtPercentile is the running count that satisfies percentile p.
func (h *Histogram) countAtPercentile(p float64) int64 {
	target := int64(math.Ceil(p * float64(h.totalCount) / 100))
	return max(1, min(target, h.totalCount))
}

// Percentile returns the value at or below which p percent of recorded
// values fall, reported as the highest value equivalent to that slot. It
// returns 0 for an empty histogram.
func (h *Histogram) Percentile(p float64) (int64, error) {
	if err := validPercentile(p); err != nil {
		return 0, err
	}
	if h.totalCount == 0 {
		return 0, nil
	}
	target := h.countAtPercentile(p)
	var running int64
	for i, c := range h.counts {
		running += c
		if running >= target {
			return saturate(h.highestEquivalent(h.valueFor(i))), nil
		}
	}
	return h.maxValue, nil
}

// ValuesAtPercentiles resolves several percentiles in one pass over the
// counts.
func (h *Histogram) ValuesAtPercentiles(ps ...float64) (map[float64]int64, error) {
	for _, p := range ps {
		if err := validPercentile(p); err != nil {
			return nil, err
		}
	}
	out := make(map[float64]int64, len(ps))
	if h.totalCount == 0 {
		for _, p := range ps {
			out[p] = 0
		}
		return out, nil
	}

	sorted := slices.Clone(ps)
	slices.Sort(sorted)
	next := 0
	var running int64
	for i := 0; i < len(h.counts) && next < len(sorted); i++ {
		running += h.counts[i]
		for next < len(sorted) && running >= h.countAtPercentile(sorted[next]) {
			out[sorted[next]] = saturate(h.highestEquivalent(h.valueFor(i)))
			next++
		}
	}
	for ; next < len(sorted); next++ {
		out[sorted[next]] = h.maxValue
	}
	return out, nil
}

// Percentiles returns the breakpoints of the distribution at one tick per
// half distance, always ending with {100, Max()}.
func (h *Histogram) Percentiles() []PercentileValue {
	it := newPercentileIterator(h, 1)
	var out []PercentileValue
	for it.Next() {
		if it.finalStep {
			break
		}
		v := it.Value()
		out = append(out, PercentileValue{
			Percentile: v.PercentileLevelIteratedTo,
			Value:      v.LowestEquivalentValue,
		})
	}
	return append(out, PercentileValue{Percentile: 100, Value: h.maxValue})
}

// CountAtValue returns the count in v's slot.
func (h *Histogram) CountAtValue(v int64) int64 {
	return h.CountAtIndex(h.indexFor(nonNegative(v)))
}

// CountBetweenValues returns the total count in slots covering [low, high].
func (h *Histogram) CountBetweenValues(low, high int64) int64 {
	if high < 0 || high < low {
		return 0
	}
	lo := h.indexFor(nonNegative(low))
	hi := min(h.indexFor(uint64(high)), len(h.counts)-1)
	var total int64
	for i := lo; i <= hi; i++ {
		total += h.counts[i]
	}
	return total
}
