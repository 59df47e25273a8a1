package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmptySummary(t *testing.T) {
	r := NewRecorder()
	s := r.GetSummary()

	assert.Zero(t, s.LockWait.Count)
	assert.Zero(t, s.ResultWait.Count)
	assert.Zero(t, s.LockWait.Max)
}

func TestRecordAndSummarize(t *testing.T) {
	r := NewRecorder()

	r.RecordLockWait(5 * time.Millisecond)
	r.RecordLockWait(10 * time.Millisecond)
	r.RecordLockWait(50 * time.Millisecond)
	r.RecordResultWait(2 * time.Second)

	s := r.GetSummary()

	assert.Equal(t, int64(3), s.LockWait.Count)
	assert.Equal(t, int64(1), s.ResultWait.Count)

	// hdrhistogram keeps 3 significant digits, so compare loosely
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.LockWait.Max), float64(time.Millisecond))
	assert.InDelta(t, float64(2*time.Second), float64(s.ResultWait.P50), float64(10*time.Millisecond))
	assert.LessOrEqual(t, s.LockWait.P50, s.LockWait.P95)
	assert.LessOrEqual(t, s.LockWait.P95, s.LockWait.Max)
}

func TestSubMicrosecondClamped(t *testing.T) {
	r := NewRecorder()
	r.RecordLockWait(0)

	s := r.GetSummary()
	assert.Equal(t, int64(1), s.LockWait.Count)
	assert.GreaterOrEqual(t, s.LockWait.Max, time.Microsecond)
}

func TestConcurrentRecording(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RecordLockWait(time.Millisecond)
				r.RecordResultWait(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	s := r.GetSummary()
	assert.Equal(t, int64(1000), s.LockWait.Count)
	assert.Equal(t, int64(1000), s.ResultWait.Count)
}
