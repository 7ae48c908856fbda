package hdr

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertRoundTrip(t *testing.T, h *Histogram, blob []byte) *Histogram {
	t.Helper()
	d, err := Decode(blob)
	require.NoError(t, err)
	eq, err := h.Equals(d)
	require.NoError(t, err)
	assert.True(t, eq, "decoded histogram differs")
	assert.Equal(t, h.TotalCount(), d.TotalCount())
	return d
}

func TestEncodeHeader(t *testing.T) {
	h, err := New(1, 100, 3)
	require.NoError(t, err)
	h.Record(1)
	h.Record(3)

	blob := h.Encode()
	require.Len(t, blob, encodingHeaderSize+4)

	assert.Equal(t, uint32(0x68697301), binary.BigEndian.Uint32(blob[0:]))
	assert.Equal(t, uint32(4), binary.BigEndian.Uint32(blob[4:]))
	assert.Equal(t, uint32(3), binary.BigEndian.Uint32(blob[8:]))
	assert.Equal(t, uint64(1), binary.BigEndian.Uint64(blob[12:]))
	assert.Equal(t, uint64(100), binary.BigEndian.Uint64(blob[20:]))
	assert.Equal(t, uint64(2), binary.BigEndian.Uint64(blob[28:]))
	// zero run of one, count one, zero run of one, count one
	assert.Equal(t, []byte{0x01, 0x02, 0x01, 0x02}, blob[encodingHeaderSize:])
}

func TestEncodeRoundTrip(t *testing.T) {
	empty := newRecorded(t)
	blob := empty.Encode()
	assert.Len(t, blob, encodingHeaderSize)
	d := assertRoundTrip(t, empty, blob)
	assert.Equal(t, EmptyMin, d.Min())
	assert.Equal(t, int64(0), d.Max())

	small := newRecorded(t, 42, 45)
	d = assertRoundTrip(t, small, small.Encode())
	assert.Equal(t, int64(42), d.Min())
	assert.Equal(t, int64(45), d.Max())
	assert.Equal(t, 43.5, d.Mean())

	large := newRecorded(t)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50000; i++ {
		large.RecordValues(1+rng.Int63n(hourInMicros), 1+rng.Int63n(3))
	}
	d = assertRoundTrip(t, large, large.Encode())
	p99, err := large.Percentile(99)
	require.NoError(t, err)
	dp99, err := d.Percentile(99)
	require.NoError(t, err)
	assert.Equal(t, p99, dp99)
}

func TestEncodeCompressed(t *testing.T) {
	h := newRecorded(t, 1, 10, 100, 1000, 10000)

	blob, err := h.EncodeCompressed()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x68697381), binary.BigEndian.Uint32(blob[0:]))
	assert.Equal(t, uint32(len(blob)-compressedHeaderSize), binary.BigEndian.Uint32(blob[4:]))
	assertRoundTrip(t, h, blob)
}

func TestTextAndBinaryMarshalling(t *testing.T) {
	h := newRecorded(t, 42, 45)

	text, err := h.MarshalText()
	require.NoError(t, err)
	var fromText Histogram
	require.NoError(t, fromText.UnmarshalText(text))
	eq, err := h.Equals(&fromText)
	require.NoError(t, err)
	assert.True(t, eq)

	bin, err := h.MarshalBinary()
	require.NoError(t, err)
	var fromBinary Histogram
	require.NoError(t, fromBinary.UnmarshalBinary(bin))
	eq, err = h.Equals(&fromBinary)
	require.NoError(t, err)
	assert.True(t, eq)

	assert.ErrorIs(t, fromText.UnmarshalText([]byte("not base64!")), ErrDecode)
}

func TestDecodeFailures(t *testing.T) {
	h := newRecorded(t, 1, 3, 1000)
	valid := h.Encode()

	withHeader := func(mutate func(b []byte)) []byte {
		b := append([]byte(nil), valid...)
		mutate(b)
		return b
	}

	// A payload slot past the top of a (1, 100) histogram.
	overflow := func() []byte {
		tiny, err := New(1, 100, 3)
		require.NoError(t, err)
		b := tiny.Encode()
		payload := binary.AppendVarint(nil, -101)
		payload = binary.AppendVarint(payload, 1)
		binary.BigEndian.PutUint32(b[4:], uint32(len(payload)))
		binary.BigEndian.PutUint64(b[28:], 1)
		return append(b, payload...)
	}()

	tests := []struct {
		name string
		blob []byte
	}{
		{"nil", nil},
		{"short", valid[:4]},
		{"header only prefix", valid[:20]},
		{"unknown cookie", withHeader(func(b []byte) { binary.BigEndian.PutUint32(b, 0xdeadbeef) })},
		{"truncated payload", valid[:len(valid)-1]},
		{"trailing bytes", append(append([]byte(nil), valid...), 0x00)},
		{"invalid significant figures", withHeader(func(b []byte) { binary.BigEndian.PutUint32(b[8:], 9) })},
		{"invalid lowest", withHeader(func(b []byte) { binary.BigEndian.PutUint64(b[12:], 0) })},
		{"total mismatch", withHeader(func(b []byte) { binary.BigEndian.PutUint64(b[28:], 4) })},
		{"malformed varint", withHeader(func(b []byte) { b[len(b)-1] |= 0x80 })},
		{"counts past range", overflow},
		{"hdrhistogram v2 cookie", withHeader(func(b []byte) { binary.BigEndian.PutUint32(b, 0x1c849303) })},
		{"hdrhistogram compressed cookie", withHeader(func(b []byte) { binary.BigEndian.PutUint32(b, 0x1c849304) })},
		{"compressed garbage", []byte{0x68, 0x69, 0x73, 0x81, 0, 0, 0, 2, 0xff, 0xff}},
		{"compressed length mismatch", []byte{0x68, 0x69, 0x73, 0x81, 0, 0, 0, 9, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decode(tt.blob)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestUnmarshalBinaryKeepsStateOnError(t *testing.T) {
	h := newRecorded(t, 5)
	require.Error(t, h.UnmarshalBinary([]byte{1, 2, 3}))
	assert.Equal(t, int64(1), h.TotalCount())
	assert.Equal(t, int64(5), h.Max())
}
