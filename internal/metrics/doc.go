// Package metrics provides concurrent ingestion of values into HDR
// histograms.
//
// An hdr.Histogram is not safe for concurrent use. The Engine wraps it in
// the two ways concurrent producers are expected to use it:
//
//   - shared recording, where every Record call takes the engine lock
//   - per-writer recording, where each producer owns a Writer with a private
//     histogram that the engine swaps out and merges on Collect
//
// # Basic Usage
//
//	engine, err := metrics.NewEngine(metrics.DefaultEngineConfig())
//	if err != nil {
//	    return err
//	}
//	engine.Start(ctx)
//	defer engine.Stop()
//
//	engine.RecordDuration("GET /users", 150*time.Millisecond)
//
//	w := engine.NewWriter("worker-1")
//	w.Record(1250)
//	w.Close()
//
//	snapshot := engine.Snapshot()
//	fmt.Printf("p99: %d\n", snapshot.Stats.P99)
//
// # Time-Series Data
//
// Every Collect, whether called directly or by the background emitter
// started with Start, closes the current interval into a TimeBucket:
//
//	for _, bucket := range engine.TimeSeries() {
//	    fmt.Printf("[%s] rate: %.2f/s, p99: %d\n",
//	        bucket.Timestamp.Format(time.RFC3339),
//	        bucket.IntervalRate,
//	        bucket.P99)
//	}
package metrics

import "github.com/wesleyorama2/histo/internal/logging"

var logger = logging.New("metrics")
