package metrics

import (
	"math/rand"
	"testing"
	"time"
)

// BenchmarkEngine_Record measures shared recording behind the engine lock.
func BenchmarkEngine_Record(b *testing.B) {
	engine, err := NewEngine(DefaultEngineConfig())
	if err != nil {
		b.Fatal(err)
	}

	values := []int64{1000, 5000, 10000, 50000, 100000}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.Record("", values[i%len(values)])
	}
}

// BenchmarkEngine_Record_Parallel measures contention on the shared lock.
func BenchmarkEngine_Record_Parallel(b *testing.B) {
	engine, err := NewEngine(DefaultEngineConfig())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			engine.Record("", 1+rng.Int63n(1000000))
		}
	})
}

// BenchmarkWriter_Record_Parallel measures per-writer recording, which only
// contends with the collector.
func BenchmarkWriter_Record_Parallel(b *testing.B) {
	engine, err := NewEngine(DefaultEngineConfig())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		w := engine.NewWriter("")
		defer w.Close()
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			w.Record(1 + rng.Int63n(1000000))
		}
	})
}

// BenchmarkEngine_Collect measures closing an interval with pending writers.
func BenchmarkEngine_Collect(b *testing.B) {
	engine, err := NewEngine(DefaultEngineConfig())
	if err != nil {
		b.Fatal(err)
	}
	writers := make([]*Writer, 8)
	for i := range writers {
		writers[i] = engine.NewWriter("")
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		for j, w := range writers {
			w.Record(int64(1000 * (j + 1)))
		}
		engine.Collect()
	}
}
