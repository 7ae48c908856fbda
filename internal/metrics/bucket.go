package metrics

import (
	"sync"
	"time"

	"github.com/wesleyorama2/histo/pkg/hdr"
)

// TimeBucketStore stores interval buckets in a ring buffer.
//
// The store keeps at most maxBuckets buckets, discarding the oldest when the
// buffer is full. It is safe for concurrent use.
type TimeBucketStore struct {
	buckets    []*TimeBucket
	head       int // Next write position
	count      int // Current number of buckets
	maxBuckets int
	mu         sync.RWMutex

	lastBucketTime time.Time
}

// NewTimeBucketStore creates a store retaining up to maxBuckets buckets.
func NewTimeBucketStore(maxBuckets int) *TimeBucketStore {
	if maxBuckets <= 0 {
		maxBuckets = 3600
	}

	return &TimeBucketStore{
		buckets:        make([]*TimeBucket, maxBuckets),
		maxBuckets:     maxBuckets,
		lastBucketTime: time.Now(),
	}
}

// CreateBucket closes an interval into a bucket and stores it.
//
// interval holds the values recorded since the previous bucket; encoded, if
// non-nil, is its compressed encoding.
func (tbs *TimeBucketStore) CreateBucket(
	interval *hdr.Histogram,
	encoded []byte,
	totalCount, totalRejected, intervalRejected int64,
) *TimeBucket {
	tbs.mu.Lock()
	defer tbs.mu.Unlock()

	now := time.Now()

	intervalSeconds := now.Sub(tbs.lastBucketTime).Seconds()
	if intervalSeconds <= 0 {
		intervalSeconds = 1.0
	}

	bucket := &TimeBucket{
		Timestamp:        now,
		TotalCount:       totalCount,
		TotalRejected:    totalRejected,
		IntervalCount:    interval.TotalCount(),
		IntervalRejected: intervalRejected,
		IntervalRate:     float64(interval.TotalCount()) / intervalSeconds,
		Stats:            StatsOf(interval),
		Histogram:        encoded,
	}

	tbs.buckets[tbs.head] = bucket
	tbs.head = (tbs.head + 1) % tbs.maxBuckets
	if tbs.count < tbs.maxBuckets {
		tbs.count++
	}
	tbs.lastBucketTime = now

	return bucket
}

// GetBuckets returns all buckets in chronological order.
func (tbs *TimeBucketStore) GetBuckets() []*TimeBucket {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()

	if tbs.count == 0 {
		return nil
	}

	result := make([]*TimeBucket, tbs.count)
	start := 0
	if tbs.count == tbs.maxBuckets {
		start = tbs.head
	}
	for i := 0; i < tbs.count; i++ {
		result[i] = tbs.buckets[(start+i)%tbs.maxBuckets]
	}
	return result
}

// GetRecentBuckets returns the n most recent buckets in chronological order.
func (tbs *TimeBucketStore) GetRecentBuckets(n int) []*TimeBucket {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()

	n = min(n, tbs.count)
	if n <= 0 {
		return nil
	}

	result := make([]*TimeBucket, n)
	for i := 0; i < n; i++ {
		// head-1 is the most recent
		idx := (tbs.head - 1 - i + tbs.maxBuckets) % tbs.maxBuckets
		result[n-1-i] = tbs.buckets[idx]
	}
	return result
}

// GetLatestBucket returns the most recent bucket, or nil if none.
func (tbs *TimeBucketStore) GetLatestBucket() *TimeBucket {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()

	if tbs.count == 0 {
		return nil
	}
	return tbs.buckets[(tbs.head-1+tbs.maxBuckets)%tbs.maxBuckets]
}

// Count returns the current number of buckets stored.
func (tbs *TimeBucketStore) Count() int {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()
	return tbs.count
}

// Merged decodes the interval histograms of the n most recent buckets and
// adds them into one histogram built from cfg. Buckets without a stored
// histogram are skipped.
func (tbs *TimeBucketStore) Merged(cfg hdr.Config, n int) (*hdr.Histogram, error) {
	merged, err := hdr.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	for _, b := range tbs.GetRecentBuckets(n) {
		if len(b.Histogram) == 0 {
			continue
		}
		h, err := b.DecodeHistogram()
		if err != nil {
			return nil, err
		}
		if _, err := merged.Add(h); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// Reset clears all buckets.
func (tbs *TimeBucketStore) Reset() {
	tbs.mu.Lock()
	defer tbs.mu.Unlock()

	tbs.buckets = make([]*TimeBucket, tbs.maxBuckets)
	tbs.head = 0
	tbs.count = 0
	tbs.lastBucketTime = time.Now()
}
