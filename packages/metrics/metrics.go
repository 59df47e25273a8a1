// Package metrics aggregates coordination contention timings: how long
// mutations waited for the cross-process lock and how long tests waited for
// their prerequisites.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Recorder collects lock-wait and result-wait latencies.
type Recorder struct {
	mu sync.Mutex

	// Histograms in microseconds, 1us to 60s, 3 significant digits
	lockWait   *hdrhistogram.Histogram
	resultWait *hdrhistogram.Histogram

	lockWaits   atomic.Int64
	resultWaits atomic.Int64
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		lockWait:   hdrhistogram.New(1, 60_000_000, 3),
		resultWait: hdrhistogram.New(1, 60_000_000, 3),
	}
}

// RecordLockWait records time spent acquiring the store lock.
func (r *Recorder) RecordLockWait(d time.Duration) {
	r.lockWaits.Add(1)
	r.record(r.lockWait, d)
}

// RecordResultWait records time spent waiting for prerequisite results.
func (r *Recorder) RecordResultWait(d time.Duration) {
	r.resultWaits.Add(1)
	r.record(r.resultWait, d)
}

func (r *Recorder) record(h *hdrhistogram.Histogram, d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	if us > 60_000_000 {
		us = 60_000_000
	}

	r.mu.Lock()
	_ = h.RecordValue(us)
	r.mu.Unlock()
}

// Timing summarizes one histogram.
type Timing struct {
	Count int64
	P50   time.Duration
	P95   time.Duration
	Max   time.Duration
	Mean  time.Duration
}

// Summary is a point-in-time view of all recorded timings.
type Summary struct {
	LockWait   Timing
	ResultWait Timing
}

// GetSummary returns the current timing summary.
func (r *Recorder) GetSummary() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return &Summary{
		LockWait:   timing(r.lockWait, r.lockWaits.Load()),
		ResultWait: timing(r.resultWait, r.resultWaits.Load()),
	}
}

func timing(h *hdrhistogram.Histogram, count int64) Timing {
	if count == 0 {
		return Timing{}
	}
	return Timing{
		Count: count,
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P95:   time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
		Mean:  time.Duration(h.Mean()) * time.Microsecond,
	}
}
