package waiter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/gatekeep/packages/state"
)

func newStore(t *testing.T) *state.Store {
	t.Helper()
	s := state.NewStore(t.TempDir())
	require.NoError(t, s.Initialize())
	return s
}

func TestAwaitExistingResult(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetResult("api", true, ""))

	w := New(s, WithoutWatch())
	r := w.AwaitOne(context.Background(), "api", time.Second)

	require.NotNil(t, r)
	assert.True(t, r.Passed)
}

func TestAwaitAbsentReturnsNilAfterTimeout(t *testing.T) {
	s := newStore(t)
	w := New(s, WithoutWatch(), WithInterval(10*time.Millisecond))

	start := time.Now()
	r := w.AwaitOne(context.Background(), "Z", 50*time.Millisecond)
	elapsed := time.Since(start)

	assert.Nil(t, r, "absent key must map to nil, not a false failure")
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestAwaitResultArrivingMidWait(t *testing.T) {
	s := newStore(t)
	w := New(s, WithoutWatch(), WithInterval(10*time.Millisecond))

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = s.SetResult("slow", false, "late failure")
	}()

	r := w.AwaitOne(context.Background(), "slow", 2*time.Second)
	require.NotNil(t, r)
	assert.False(t, r.Passed)
	assert.Equal(t, "late failure", r.Error)
}

func TestAwaitManyKeysBoundedByTimeout(t *testing.T) {
	// Keys are awaited concurrently: ten absent keys must resolve in one
	// timeout, not ten.
	s := newStore(t)
	w := New(s, WithoutWatch(), WithInterval(10*time.Millisecond))

	keys := make([]string, 10)
	for i := range keys {
		keys[i] = fmt.Sprintf("absent-%d", i)
	}

	start := time.Now()
	results := w.Await(context.Background(), keys, 100*time.Millisecond)
	elapsed := time.Since(start)

	assert.Len(t, results, 10)
	for _, key := range keys {
		assert.Nil(t, results[key])
	}
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestAwaitMixedPresentAndAbsent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetResult("here", true, ""))

	w := New(s, WithoutWatch(), WithInterval(10*time.Millisecond))
	results := w.Await(context.Background(), []string{"here", "gone"}, 50*time.Millisecond)

	require.NotNil(t, results["here"])
	assert.True(t, results["here"].Passed)
	assert.Nil(t, results["gone"])
}

func TestAwaitContextCancellation(t *testing.T) {
	s := newStore(t)
	w := New(s, WithoutWatch(), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	r := w.AwaitOne(ctx, "never", 10*time.Second)

	assert.Nil(t, r)
	assert.Less(t, time.Since(start), time.Second, "cancellation must cut the wait short")
}

func TestWatchWakesBeforeNextPoll(t *testing.T) {
	// With a poll interval far longer than the test, only the fsnotify
	// wakeup can deliver the result this fast.
	s := newStore(t)
	w := New(s, WithInterval(5*time.Second))

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = s.SetResult("watched", true, "")
	}()

	start := time.Now()
	r := w.AwaitOne(context.Background(), "watched", 10*time.Second)
	elapsed := time.Since(start)

	require.NotNil(t, r)
	assert.True(t, r.Passed)
	assert.Less(t, elapsed, 2*time.Second)
}
