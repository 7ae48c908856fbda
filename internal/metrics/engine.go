package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/histo/pkg/hdr"
)

// ErrNoHistogram is returned when a bucket was stored without its interval
// histogram.
var ErrNoHistogram = errors.New("bucket carries no histogram")

// Engine aggregates values into HDR histograms.
//
// Key features:
//   - cumulative, per-interval and per-name histograms
//   - per-writer histograms merged on Collect
//   - interval buckets emitted on a ticker, even when no values arrive
//
// # Thread Safety
//
// Engine is safe for concurrent use. Counters use atomic operations,
// histograms use mutex protection, and the background emitter runs in its
// own goroutine.
type Engine struct {
	config EngineConfig

	// cumulative and current-interval histograms; histMu also guards startTime
	total     *hdr.Histogram
	interval  *hdr.Histogram
	startTime time.Time
	histMu    sync.Mutex

	// per-name histograms
	named   map[string]*hdr.Histogram
	namedMu sync.RWMutex

	writers   map[*Writer]struct{}
	writersMu sync.Mutex

	rejected         atomic.Int64
	intervalRejected atomic.Int64

	bucketStore *TimeBucketStore

	emitterMu     sync.Mutex
	emitterCancel context.CancelFunc
	emitterWg     sync.WaitGroup
}

// NewEngine creates an engine. The background emitter is not running until
// Start is called.
func NewEngine(config EngineConfig) (*Engine, error) {
	defaults := DefaultEngineConfig()
	if config.BucketInterval <= 0 {
		config.BucketInterval = defaults.BucketInterval
	}
	if config.MaxBuckets <= 0 {
		config.MaxBuckets = defaults.MaxBuckets
	}
	if config.Unit <= 0 {
		config.Unit = defaults.Unit
	}

	total, err := hdr.NewWithConfig(config.Histogram)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}

	return &Engine{
		config:      config,
		total:       total,
		interval:    total.Copy(),
		named:       make(map[string]*hdr.Histogram),
		writers:     make(map[*Writer]struct{}),
		bucketStore: NewTimeBucketStore(config.MaxBuckets),
		startTime:   time.Now(),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// clamp applies the configured out-of-range policy.
func (e *Engine) clamp(v int64) int64 {
	if !e.config.Clamp {
		return v
	}
	return max(1, min(v, e.config.Histogram.HighestTrackableValue))
}

// Record records one value. name selects an additional per-name histogram
// and may be empty. It reports false when the value was rejected.
func (e *Engine) Record(name string, v int64) bool {
	return e.RecordCorrected(name, v, 0)
}

// RecordCorrected records one value with coordinated omission correction at
// expectedInterval. A non-positive interval disables the correction.
func (e *Engine) RecordCorrected(name string, v, expectedInterval int64) bool {
	v = e.clamp(v)

	e.histMu.Lock()
	ok := e.total.RecordCorrectedValue(v, expectedInterval)
	if ok {
		e.interval.RecordCorrectedValue(v, expectedInterval)
	}
	e.histMu.Unlock()

	if !ok {
		e.reject(1)
		return false
	}

	if name != "" {
		e.recordNamed(name, v, expectedInterval)
	}
	return true
}

// RecordDuration records d converted to the configured unit.
func (e *Engine) RecordDuration(name string, d time.Duration) bool {
	return e.Record(name, int64(d/e.config.Unit))
}

func (e *Engine) reject(n int64) {
	e.rejected.Add(n)
	e.intervalRejected.Add(n)
}

// recordNamed records into a per-name histogram.
// NOTE: hdr.Histogram is NOT thread-safe, so we must hold a lock.
func (e *Engine) recordNamed(name string, v, expectedInterval int64) {
	e.namedMu.Lock()
	defer e.namedMu.Unlock()

	e.namedHistogram(name).RecordCorrectedValue(v, expectedInterval)
}

// namedHistogram returns the histogram for name, creating it. Callers hold
// namedMu for writing.
func (e *Engine) namedHistogram(name string) *hdr.Histogram {
	h, exists := e.named[name]
	if !exists {
		h = e.newHistogram()
		e.named[name] = h
	}
	return h
}

func (e *Engine) newHistogram() *hdr.Histogram {
	// The configuration was validated by NewEngine.
	h, _ := hdr.NewWithConfig(e.config.Histogram)
	return h
}

// Start launches the background emitter, which calls Collect every
// BucketInterval until ctx is done or Stop is called. Start on a running
// engine does nothing.
func (e *Engine) Start(ctx context.Context) {
	e.emitterMu.Lock()
	defer e.emitterMu.Unlock()

	if e.emitterCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	e.emitterCancel = cancel

	e.emitterWg.Add(1)
	go e.runEmitter(ctx)
}

// runEmitter runs the background time-bucket emitter.
func (e *Engine) runEmitter(ctx context.Context) {
	defer e.emitterWg.Done()

	ticker := time.NewTicker(e.config.BucketInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Collect()
		}
	}
}

// Stop stops the background emitter, if running, and collects a final
// bucket.
func (e *Engine) Stop() *TimeBucket {
	e.emitterMu.Lock()
	cancel := e.emitterCancel
	e.emitterCancel = nil
	e.emitterMu.Unlock()

	if cancel != nil {
		cancel()
		e.emitterWg.Wait()
	}
	return e.Collect()
}

// Collect merges every writer's pending values, closes the current interval
// into a TimeBucket and returns it.
func (e *Engine) Collect() *TimeBucket {
	e.collectWriters()

	e.histMu.Lock()
	interval := e.interval
	e.interval = e.newHistogram()
	totalCount := e.total.TotalCount()
	e.histMu.Unlock()

	var encoded []byte
	if e.config.KeepIntervalHistograms {
		var err error
		if encoded, err = interval.EncodeCompressed(); err != nil {
			logger.Warn("failed to encode interval histogram", zap.Error(err))
		}
	}

	bucket := e.bucketStore.CreateBucket(interval, encoded,
		totalCount, e.rejected.Load(), e.intervalRejected.Swap(0))

	logger.Debug("collected interval",
		zap.Int64("count", bucket.IntervalCount),
		zap.Int64("rejected", bucket.IntervalRejected),
		zap.Int64("p99", bucket.Stats.P99),
		zap.Int64("total", bucket.TotalCount),
	)

	if e.config.OnBucket != nil {
		e.config.OnBucket(bucket)
	}
	return bucket
}

// Snapshot returns a point-in-time view of the cumulative histogram.
func (e *Engine) Snapshot() *Snapshot {
	e.histMu.Lock()
	stats := StatsOf(e.total)
	startTime := e.startTime
	e.histMu.Unlock()

	e.writersMu.Lock()
	writers := len(e.writers)
	e.writersMu.Unlock()

	return &Snapshot{
		Stats:     stats,
		Rejected:  e.rejected.Load(),
		Writers:   writers,
		Elapsed:   time.Since(startTime),
		StartTime: startTime,
		Timestamp: time.Now(),
	}
}

// Histogram returns a copy of the cumulative histogram.
func (e *Engine) Histogram() *hdr.Histogram {
	e.histMu.Lock()
	defer e.histMu.Unlock()
	return e.total.Copy()
}

// NamedHistogram returns a copy of the histogram recorded under name.
func (e *Engine) NamedHistogram(name string) (*hdr.Histogram, bool) {
	e.namedMu.RLock()
	defer e.namedMu.RUnlock()

	h, ok := e.named[name]
	if !ok {
		return nil, false
	}
	return h.Copy(), true
}

// NamedStats returns per-name statistics.
func (e *Engine) NamedStats() map[string]Stats {
	e.namedMu.RLock()
	defer e.namedMu.RUnlock()

	result := make(map[string]Stats, len(e.named))
	for name, h := range e.named {
		result[name] = StatsOf(h)
	}
	return result
}

// TimeSeries returns all retained buckets.
func (e *Engine) TimeSeries() []*TimeBucket {
	return e.bucketStore.GetBuckets()
}

// Buckets returns the underlying bucket store.
func (e *Engine) Buckets() *TimeBucketStore {
	return e.bucketStore
}

// Rejected returns the number of values rejected since start or reset.
func (e *Engine) Rejected() int64 {
	return e.rejected.Load()
}

// Reset clears all histograms, counters and buckets. Open writers stay
// registered with their pending values discarded.
func (e *Engine) Reset() {
	e.writersMu.Lock()
	for w := range e.writers {
		w.mu.Lock()
		w.active.Reset()
		w.mu.Unlock()
	}
	e.writersMu.Unlock()

	e.histMu.Lock()
	e.total.Reset()
	e.interval.Reset()
	e.startTime = time.Now()
	e.histMu.Unlock()

	e.namedMu.Lock()
	e.named = make(map[string]*hdr.Histogram)
	e.namedMu.Unlock()

	e.rejected.Store(0)
	e.intervalRejected.Store(0)

	e.bucketStore.Reset()
}
