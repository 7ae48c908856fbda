package metrics

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/histo/pkg/hdr"
)

// Writer records into a private histogram that the engine drains on every
// Collect. Each producer goroutine should own its Writer; the writer lock is
// only contended while the engine swaps histograms.
type Writer struct {
	engine *Engine
	name   string

	// drainMu serialises collectors so the spare is never swapped back in
	// while it is being merged.
	drainMu sync.Mutex

	mu       sync.Mutex
	active   *hdr.Histogram
	spare    *hdr.Histogram
	rejected int64
	closed   bool
}

// NewWriter registers a writer whose values are also recorded under name,
// unless name is empty.
func (e *Engine) NewWriter(name string) *Writer {
	w := &Writer{
		engine: e,
		name:   name,
		active: e.newHistogram(),
		spare:  e.newHistogram(),
	}

	e.writersMu.Lock()
	e.writers[w] = struct{}{}
	e.writersMu.Unlock()

	logger.Debug("writer opened", zap.String("name", name))
	return w
}

// Name returns the per-name histogram key of the writer.
func (w *Writer) Name() string {
	return w.name
}

// Record records one value. It reports false when the value was rejected or
// the writer is closed.
func (w *Writer) Record(v int64) bool {
	return w.RecordCorrected(v, 0)
}

// RecordCorrected records one value with coordinated omission correction.
func (w *Writer) RecordCorrected(v, expectedInterval int64) bool {
	v = w.engine.clamp(v)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}
	if !w.active.RecordCorrectedValue(v, expectedInterval) {
		w.rejected++
		return false
	}
	return true
}

// RecordDuration records d converted to the engine unit.
func (w *Writer) RecordDuration(d time.Duration) bool {
	return w.Record(int64(d / w.engine.config.Unit))
}

// Close merges the pending values into the engine and unregisters the
// writer. Closing twice is a no-op.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.engine.writersMu.Lock()
	delete(w.engine.writers, w)
	w.engine.writersMu.Unlock()

	w.engine.drain(w)
	logger.Debug("writer closed", zap.String("name", w.name))
}

// swap exchanges the active histogram for the empty spare and returns the
// filled one with its rejected count.
func (w *Writer) swap() (*hdr.Histogram, int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	filled := w.active
	w.active = w.spare
	w.spare = filled
	rejected := w.rejected
	w.rejected = 0
	return filled, rejected
}

// collectWriters drains every registered writer.
func (e *Engine) collectWriters() {
	e.writersMu.Lock()
	writers := make([]*Writer, 0, len(e.writers))
	for w := range e.writers {
		writers = append(writers, w)
	}
	e.writersMu.Unlock()

	for _, w := range writers {
		e.drain(w)
	}
}

// drain merges a writer's pending values into the engine histograms.
func (e *Engine) drain(w *Writer) {
	w.drainMu.Lock()
	defer w.drainMu.Unlock()

	filled, rejected := w.swap()
	if rejected > 0 {
		e.reject(rejected)
	}
	if filled.TotalCount() == 0 {
		return
	}

	e.histMu.Lock()
	dropped, err := e.total.Add(filled)
	if err == nil {
		_, err = e.interval.Add(filled)
	}
	e.histMu.Unlock()

	if err == nil && w.name != "" {
		e.namedMu.Lock()
		_, err = e.namedHistogram(w.name).Add(filled)
		e.namedMu.Unlock()
	}
	if err != nil {
		logger.Error("failed to merge writer histogram", zap.String("name", w.name), zap.Error(err))
	}
	if dropped > 0 {
		e.reject(dropped)
	}

	filled.Reset()
}
