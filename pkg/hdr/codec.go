package hdr

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
)

// Cookies are "his" followed by a format version byte. The compressed form
// sets the high bit of the version. They differ from HdrHistogram's own
// cookies because the header layout differs.
const (
	encodingCookie           uint32 = 0x68697301
	compressedEncodingCookie uint32 = 0x68697381

	encodingHeaderSize   = 36
	compressedHeaderSize = 8

	// maxDecompressedSize bounds inflation of untrusted compressed input.
	maxDecompressedSize = 256 << 20
)

// Encode serialises h into the plain container: a 36 byte big-endian
// header followed by ZigZag LEB128 counts where a negative value -n stands
// for n consecutive empty slots. Trailing empty slots are not written.
func (h *Histogram) Encode() []byte {
	payload := h.encodeCounts()

	buf := make([]byte, encodingHeaderSize, encodingHeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:], encodingCookie)
	binary.BigEndian.PutUint32(buf[4:], uint32(len(payload)))
	binary.BigEndian.PutUint32(buf[8:], uint32(int32(h.cfg.SignificantFigures)))
	binary.BigEndian.PutUint64(buf[12:], uint64(h.cfg.LowestTrackableValue))
	binary.BigEndian.PutUint64(buf[20:], uint64(h.cfg.HighestTrackableValue))
	binary.BigEndian.PutUint64(buf[28:], uint64(h.totalCount))
	return append(buf, payload...)
}

func (h *Histogram) encodeCounts() []byte {
	last := -1
	for i := len(h.counts) - 1; i >= 0; i-- {
		if h.counts[i] != 0 {
			last = i
			break
		}
	}

	var buf []byte
	for i := 0; i <= last; {
		if h.counts[i] != 0 {
			buf = binary.AppendVarint(buf, h.counts[i])
			i++
			continue
		}
		var zeros int64
		for i <= last && h.counts[i] == 0 {
			zeros++
			i++
		}
		buf = binary.AppendVarint(buf, -zeros)
	}
	return buf
}

// EncodeCompressed wraps the plain encoding in a zlib stream behind an 8 byte
// header carrying its own cookie and the compressed length.
func (h *Histogram) EncodeCompressed() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(make([]byte, compressedHeaderSize))

	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}
	if _, err := zw.Write(h.Encode()); err != nil {
		return nil, fmt.Errorf("failed to compress histogram: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress histogram: %w", err)
	}

	out := buf.Bytes()
	binary.BigEndian.PutUint32(out[0:], compressedEncodingCookie)
	binary.BigEndian.PutUint32(out[4:], uint32(len(out)-compressedHeaderSize))
	return out, nil
}

// Decode reconstructs a histogram from either the plain or the compressed
// container. Every failure wraps ErrDecode and no partially filled histogram
// is ever returned.
func Decode(blob []byte) (*Histogram, error) {
	if len(blob) < compressedHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is too short for a header", ErrDecode, len(blob))
	}
	switch cookie := binary.BigEndian.Uint32(blob); cookie {
	case encodingCookie:
		return decodePlain(blob)
	case compressedEncodingCookie:
		return decodeCompressed(blob)
	default:
		return nil, fmt.Errorf("%w: unknown cookie 0x%08x", ErrDecode, cookie)
	}
}

func decodeCompressed(blob []byte) (*Histogram, error) {
	length := int32(binary.BigEndian.Uint32(blob[4:]))
	if length < 0 || int(length) != len(blob)-compressedHeaderSize {
		return nil, fmt.Errorf("%w: compressed length %d does not match %d available bytes",
			ErrDecode, length, len(blob)-compressedHeaderSize)
	}

	zr, err := zlib.NewReader(bytes.NewReader(blob[compressedHeaderSize:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer zr.Close()

	plain, err := io.ReadAll(io.LimitReader(zr, maxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(plain) > maxDecompressedSize {
		return nil, fmt.Errorf("%w: decompressed size exceeds %d bytes", ErrDecode, maxDecompressedSize)
	}
	if len(plain) < compressedHeaderSize || binary.BigEndian.Uint32(plain) != encodingCookie {
		return nil, fmt.Errorf("%w: compressed stream does not hold a plain encoding", ErrDecode)
	}
	return decodePlain(plain)
}

func decodePlain(blob []byte) (*Histogram, error) {
	if len(blob) < encodingHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is too short for a header", ErrDecode, len(blob))
	}
	payloadLen := int32(binary.BigEndian.Uint32(blob[4:]))
	if payloadLen < 0 || int(payloadLen) != len(blob)-encodingHeaderSize {
		return nil, fmt.Errorf("%w: payload length %d does not match %d available bytes",
			ErrDecode, payloadLen, len(blob)-encodingHeaderSize)
	}

	cfg := Config{
		SignificantFigures:    int(int32(binary.BigEndian.Uint32(blob[8:]))),
		LowestTrackableValue:  int64(binary.BigEndian.Uint64(blob[12:])),
		HighestTrackableValue: int64(binary.BigEndian.Uint64(blob[20:])),
	}
	totalCount := int64(binary.BigEndian.Uint64(blob[28:]))
	if totalCount < 0 {
		return nil, fmt.Errorf("%w: negative total count %d", ErrDecode, totalCount)
	}

	h, err := NewWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := h.decodeCounts(blob[encodingHeaderSize:]); err != nil {
		return nil, err
	}
	if h.totalCount != totalCount {
		return nil, fmt.Errorf("%w: header total count %d does not match decoded counts %d",
			ErrDecode, totalCount, h.totalCount)
	}
	h.restoreMinMax()
	return h, nil
}

func (h *Histogram) decodeCounts(payload []byte) error {
	idx := 0
	for pos := 0; pos < len(payload); {
		v, n := binary.Varint(payload[pos:])
		if n <= 0 {
			return fmt.Errorf("%w: malformed varint at payload offset %d", ErrDecode, pos)
		}
		pos += n

		if v < 0 {
			if v == math.MinInt64 || -v > int64(h.maxIndex+1-idx) {
				return fmt.Errorf("%w: zero run of %d slots at index %d overruns the trackable range",
					ErrDecode, -v, idx)
			}
			idx += int(-v)
			continue
		}
		if idx > h.maxIndex {
			return fmt.Errorf("%w: count at index %d is past the trackable range", ErrDecode, idx)
		}
		if h.totalCount > math.MaxInt64-v {
			return fmt.Errorf("%w: total count overflows", ErrDecode)
		}
		h.counts[idx] = v
		h.totalCount += v
		idx++
	}
	return nil
}

// restoreMinMax derives min and max from the first and last occupied slots,
// since the encoding does not carry them.
func (h *Histogram) restoreMinMax() {
	h.minValue, h.maxValue = EmptyMin, 0
	first, last := -1, -1
	for i, c := range h.counts {
		if c != 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return
	}
	h.minValue = max(saturate(h.valueFor(first)), 1)
	h.maxValue = max(min(saturate(h.highestEquivalent(h.valueFor(last))), h.cfg.HighestTrackableValue), h.minValue)
}

// MarshalBinary implements encoding.BinaryMarshaler with the plain encoding.
func (h *Histogram) MarshalBinary() ([]byte, error) {
	return h.Encode(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. It accepts both
// containers and replaces the receiver's state only on success.
func (h *Histogram) UnmarshalBinary(data []byte) error {
	d, err := Decode(data)
	if err != nil {
		return err
	}
	*h = *d
	return nil
}

// MarshalText implements encoding.TextMarshaler as base64 of the compressed
// encoding.
func (h *Histogram) MarshalText() ([]byte, error) {
	compressed, err := h.EncodeCompressed()
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(compressed)))
	base64.StdEncoding.Encode(out, compressed)
	return out, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Histogram) UnmarshalText(text []byte) error {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(raw, bytes.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return h.UnmarshalBinary(raw[:n])
}
