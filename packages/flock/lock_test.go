package flock

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	l := New(path)

	if err := l.Acquire(time.Second); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected sentinel to exist: %v", err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected sentinel to be removed")
	}
}

func TestAcquireTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	holder := New(path)
	if err := holder.Acquire(time.Second); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer holder.Release()

	contender := New(path)
	start := time.Now()
	err := contender.Acquire(100 * time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("acquire returned before timeout elapsed: %v", elapsed)
	}
}

func TestReleaseAbsentIsNoop(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "never-created.lock"))
	if err := l.Release(); err != nil {
		t.Fatalf("expected no error releasing absent sentinel, got %v", err)
	}
}

func TestAcquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	first := New(path)
	if err := first.Acquire(time.Second); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	second := New(path)
	if err := second.Acquire(time.Second); err != nil {
		t.Fatalf("second acquire after release: %v", err)
	}
	second.Release()
}

func TestWithLockReleasesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	l := New(path)

	wantErr := errors.New("boom")
	err := l.WithLock(time.Second, func() error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}

	// Sentinel must be gone even though fn failed
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected sentinel to be released after fn error")
	}
}

// Contending Lock values share nothing but the sentinel path, modeling
// separate processes doing read-modify-write on a shared counter file.
func TestMutualExclusionUnderContention(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "counter.lock")
	counterPath := filepath.Join(dir, "counter.json")

	if err := os.WriteFile(counterPath, []byte("0"), 0644); err != nil {
		t.Fatal(err)
	}

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := New(lockPath)
			err := l.WithLock(5*time.Second, func() error {
				data, err := os.ReadFile(counterPath)
				if err != nil {
					return err
				}
				var n int
				if err := json.Unmarshal(data, &n); err != nil {
					return err
				}
				out, _ := json.Marshal(n + 1)
				return os.WriteFile(counterPath, out, 0644)
			})
			if err != nil {
				t.Errorf("worker failed: %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(counterPath)
	if err != nil {
		t.Fatal(err)
	}
	var final int
	if err := json.Unmarshal(data, &final); err != nil {
		t.Fatal(err)
	}
	if final != workers {
		t.Errorf("lost updates: counter is %d, expected %d", final, workers)
	}
}

func TestBackoffBounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := backoff()
		if d < BackoffMin || d >= BackoffMax {
			t.Fatalf("backoff %v outside [%v, %v)", d, BackoffMin, BackoffMax)
		}
	}
}
