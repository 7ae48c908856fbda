package hdr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// taggedHistogram is a caller-defined type that embeds *Histogram.
type taggedHistogram struct {
	*Histogram
	tag string
}

func TestAddSameConfig(t *testing.T) {
	a := newRecorded(t, 10, 20)
	b := newRecorded(t, 5, 30, 30)

	dropped, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(0), dropped)
	assert.Equal(t, int64(5), a.TotalCount())
	assert.Equal(t, int64(5), a.Min())
	assert.Equal(t, int64(30), a.Max())
	assert.Equal(t, int64(2), a.CountAtValue(30))

	// Adding an empty histogram leaves min and max alone.
	_, err = a.Add(newRecorded(t))
	require.NoError(t, err)
	assert.Equal(t, int64(5), a.Min())
	assert.Equal(t, int64(30), a.Max())
}

func TestAddDropsUnrepresentable(t *testing.T) {
	small, err := New(1, 100, 3)
	require.NoError(t, err)
	wide, err := New(1, 1000, 3)
	require.NoError(t, err)
	wide.Record(50)
	wide.Record(500)

	dropped, err := small.Add(wide)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dropped)
	assert.Equal(t, int64(1), small.TotalCount())
	assert.Equal(t, int64(50), small.Max())
}

func TestAddDifferentPrecision(t *testing.T) {
	coarse, err := New(1, hourInMicros, 2)
	require.NoError(t, err)
	coarse.Record(1000000)

	fine := newRecorded(t)
	dropped, err := fine.Add(coarse)
	require.NoError(t, err)
	assert.Equal(t, int64(0), dropped)
	assert.Equal(t, int64(1), fine.TotalCount())
	assert.Equal(t, int64(1000000), fine.Min())
	assert.Equal(t, int64(1000000), fine.Max())
}

func TestAddEmbedded(t *testing.T) {
	dst := newRecorded(t, 1)
	src := taggedHistogram{Histogram: newRecorded(t, 2, 3), tag: "east"}

	_, err := dst.Add(src)
	require.NoError(t, err)
	assert.Equal(t, int64(3), dst.TotalCount())

	eq, err := src.Equals(newRecorded(t, 2, 3))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestAddNil(t *testing.T) {
	h := newRecorded(t, 1)

	_, err := h.Add(nil)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	var typed *Histogram
	_, err = h.Add(typed)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = h.AddCorrected(nil, 10)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = h.Equals(typed)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	assert.Equal(t, int64(1), h.TotalCount())
}

func TestAddCorrected(t *testing.T) {
	src := newRecorded(t, 207)
	dst := newRecorded(t)

	dropped, err := dst.AddCorrected(src, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), dropped)
	assert.Equal(t, int64(3), dst.TotalCount())
	assert.Equal(t, int64(1), dst.CountAtValue(7))

	small, err := New(1, 100, 3)
	require.NoError(t, err)
	dropped, err = small.AddCorrected(src, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dropped)
	assert.Equal(t, int64(0), small.TotalCount())
}

func TestAddRejectsCountOverflow(t *testing.T) {
	full := newRecorded(t)
	require.True(t, full.RecordValues(5, math.MaxInt64-1))

	sameConfig := newRecorded(t, 7, 9)
	_, err := full.Add(sameConfig)
	assert.ErrorIs(t, err, ErrArgument)

	otherConfig, err := New(1, 1000, 2)
	require.NoError(t, err)
	otherConfig.Record(7)
	otherConfig.Record(9)
	_, err = full.Add(otherConfig)
	assert.ErrorIs(t, err, ErrArgument)

	_, err = full.AddCorrected(newRecorded(t, 207), 100)
	assert.ErrorIs(t, err, ErrArgument)

	assert.Equal(t, int64(math.MaxInt64-1), full.TotalCount())
	assert.Equal(t, int64(0), full.CountAtValue(7))
	assert.Equal(t, int64(5), full.Max())

	// Counts the merge would drop leave room for the rest.
	narrow, err := New(1, 100, 3)
	require.NoError(t, err)
	require.True(t, narrow.RecordValues(5, math.MaxInt64-1))
	wide, err := New(1, 1000, 3)
	require.NoError(t, err)
	wide.Record(50)
	wide.RecordValues(500, 10)
	dropped, err := narrow.Add(wide)
	require.NoError(t, err)
	assert.Equal(t, int64(10), dropped)
	assert.Equal(t, int64(math.MaxInt64), narrow.TotalCount())
}

func TestEquals(t *testing.T) {
	a := newRecorded(t, 1, 2, 3)
	b := newRecorded(t, 3, 2, 1)

	eq, err := a.Equals(b)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = a.Equals(a)
	require.NoError(t, err)
	assert.True(t, eq)

	b.Record(4)
	eq, err = a.Equals(b)
	require.NoError(t, err)
	assert.False(t, eq)

	other, err := New(1, 1000, 3)
	require.NoError(t, err)
	eq, err = newRecorded(t).Equals(other)
	require.NoError(t, err)
	assert.False(t, eq)
}
