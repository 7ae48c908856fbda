package hdr

import (
	"fmt"
	"reflect"
)

// Source is the read-only view of a histogram that Add and Equals consume.
// *Histogram implements it, and so does any type embedding *Histogram.
type Source interface {
	Config() Config
	TotalCount() int64
	Min() int64
	Max() int64
	CountsLen() int
	CountAtIndex(i int) int64
}

var _ Source = (*Histogram)(nil)

func isNilSource(s Source) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// sourceLayout rebuilds the geometry other was recorded with.
func sourceLayout(other Source) (layout, error) {
	if isNilSource(other) {
		return layout{}, fmt.Errorf("%w: got nil", ErrTypeMismatch)
	}
	l, err := newLayout(other.Config())
	if err != nil {
		return layout{}, fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	}
	return l, nil
}

// Add merges every count of other into h and returns how many counts were
// dropped because their values lie above h's trackable range. other may use
// a different configuration; its counts are re-indexed by value. Nothing is
// merged, and ErrArgument returned, when the total count would overflow.
func (h *Histogram) Add(other Source) (int64, error) {
	src, err := sourceLayout(other)
	if err != nil {
		return 0, err
	}
	n := min(other.CountsLen(), src.countsLen)
	if err := h.checkMergeTotal(other, src, n, 0); err != nil {
		return 0, err
	}

	if src.cfg == h.cfg {
		var added int64
		for i := 0; i < n; i++ {
			if c := other.CountAtIndex(i); c > 0 {
				h.counts[i] += c
				added += c
			}
		}
		if added > 0 {
			h.totalCount += added
			h.minValue = min(h.minValue, other.Min())
			h.maxValue = max(h.maxValue, other.Max())
		}
		return 0, nil
	}

	otherMin, otherMax := other.Min(), other.Max()
	var dropped int64
	for i := 0; i < n; i++ {
		c := other.CountAtIndex(i)
		if c <= 0 {
			continue
		}
		v := max(saturate(src.valueFor(i)), 1)
		if v > h.cfg.HighestTrackableValue {
			dropped += c
			continue
		}
		top := min(saturate(src.highestEquivalent(src.valueFor(i))), h.cfg.HighestTrackableValue)
		lo, hi := v, top
		if otherMin > lo && otherMin <= top {
			lo = otherMin
		}
		if otherMax >= v && otherMax < hi {
			hi = otherMax
		}
		h.deposit(h.indexFor(uint64(v)), lo, hi, c)
	}
	return dropped, nil
}

// AddCorrected merges other into h, re-applying coordinated omission
// correction at expectedInterval to every recorded value of other. It
// returns the number of counts dropped as unrepresentable.
func (h *Histogram) AddCorrected(other Source, expectedInterval int64) (int64, error) {
	src, err := sourceLayout(other)
	if err != nil {
		return 0, err
	}
	n := min(other.CountsLen(), src.countsLen)
	if err := h.checkMergeTotal(other, src, n, expectedInterval); err != nil {
		return 0, err
	}

	var dropped int64
	for i := 0; i < n; i++ {
		c := other.CountAtIndex(i)
		if c <= 0 {
			continue
		}
		v := max(saturate(src.valueFor(i)), 1)
		if !h.RecordCorrectedValues(v, expectedInterval, c) {
			dropped += c
		}
	}
	return dropped, nil
}

// checkMergeTotal fails when merging the first n slots of other, backfill
// included, would overflow h's total count. Slots that a re-indexing merge
// drops are not counted.
func (h *Histogram) checkMergeTotal(other Source, src layout, n int, expectedInterval int64) error {
	copyAll := src.cfg == h.cfg && expectedInterval <= 0
	total, ok := h.totalCount, true
	for i := 0; i < n && ok; i++ {
		c := other.CountAtIndex(i)
		if c <= 0 {
			continue
		}
		v := max(saturate(src.valueFor(i)), 1)
		if !copyAll && v > h.cfg.HighestTrackableValue {
			continue
		}
		total, ok = addCount(total, c)
		if ok {
			total, ok = addCount(total, backfillCount(v, expectedInterval))
		}
	}
	if !ok {
		return fmt.Errorf("%w: merged total count overflows int64", ErrArgument)
	}
	return nil
}

// Equals reports whether other has the same configuration and the same count
// in every slot.
func (h *Histogram) Equals(other Source) (bool, error) {
	if isNilSource(other) {
		return false, fmt.Errorf("%w: got nil", ErrTypeMismatch)
	}
	if o, ok := other.(*Histogram); ok && o == h {
		return true, nil
	}
	if other.Config() != h.cfg || other.CountsLen() != len(h.counts) || other.TotalCount() != h.totalCount {
		return false, nil
	}
	for i, c := range h.counts {
		if other.CountAtIndex(i) != c {
			return false, nil
		}
	}
	return true, nil
}
