// Package hdr provides a dynamic-range histogram for recording integer
// measurements such as latencies.
//
// A Histogram trades exact values for a fixed memory footprint. Values are
// mapped into a flat counts array through two-level logarithmic bucketing, so
// every recorded value is held to a relative error no worse than
// 10^(1-SignificantFigures) across the whole trackable range, regardless of
// how many samples are recorded.
//
// # Basic Usage
//
//	h, err := hdr.New(1, 3_600_000_000, 3) // 1µs to 1h, 3 significant figures
//	if err != nil {
//	    return err
//	}
//	h.Record(1250)
//	h.RecordValues(980, 10)
//
//	p99, _ := h.Percentile(99)
//	fmt.Println(h.Min(), h.Max(), h.Mean(), p99)
//
// # Iteration
//
// Five traversal strategies are available: AllValues, RecordedValues,
// LinearValues, LogarithmicValues and PercentileValues.
//
//	it := h.RecordedValues()
//	for it.Next() {
//	    v := it.Value()
//	    fmt.Println(v.ValueIteratedTo, v.CountAddedThisIteration)
//	}
//
// # Encoding
//
// Encode and Decode convert a histogram to and from a compact, versioned
// binary form. EncodeCompressed wraps the same payload in a zlib stream, and
// MarshalText produces the base64 text form used in histogram logs.
//
// # Thread Safety
//
// A Histogram is a plain value with no internal synchronization. Concurrent
// writers must either serialize access or record into private histograms and
// merge them with Add.
package hdr
