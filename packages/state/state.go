package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/gatekeep/packages/flock"
)

const (
	// StateFile is the canonical state file name inside the base directory
	StateFile = "gatekeep.state.json"
	// LockFile is the lock sentinel name inside the base directory
	LockFile = "gatekeep.lock"

	// WriteRetries is the fixed retry budget for atomic writes
	WriteRetries = 3
)

// ErrWriteExhausted is returned when a state write keeps failing after its
// retry budget. It is fatal for the calling operation.
var ErrWriteExhausted = errors.New("state write retries exhausted")

// Result is a recorded gatekeeper outcome. Written once per key per run at
// test completion; a later write for the same key overwrites.
type Result struct {
	Passed    bool   `json:"passed"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Snapshot is the entire persisted coordination state. A key may appear in
// Dependencies without a Result (registration precedes completion), and in
// Results without Dependencies (a gatekeeper with no prerequisites).
type Snapshot struct {
	Results      map[string]*Result  `json:"results"`
	Dependencies map[string][]string `json:"dependencies"`
}

// NewSnapshot returns an empty snapshot with initialized maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Results:      make(map[string]*Result),
		Dependencies: make(map[string][]string),
	}
}

// LockWaitRecorder receives the time spent acquiring the store lock for
// each mutating operation.
type LockWaitRecorder interface {
	RecordLockWait(d time.Duration)
}

// Store reads and atomically rewrites the durable snapshot for one run.
// Store values in different processes coordinate through the same base
// directory; nothing is shared in memory.
type Store struct {
	dir         string
	lock        *flock.Lock
	lockTimeout time.Duration
	timings     LockWaitRecorder
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLockTimeout overrides the lock acquisition timeout.
func WithLockTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

// WithLockWaitRecorder records lock acquisition latency for each mutation.
func WithLockWaitRecorder(r LockWaitRecorder) StoreOption {
	return func(s *Store) {
		s.timings = r
	}
}

// NewStore creates a store rooted at dir. The directory is created lazily
// by Initialize.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		dir:         dir,
		lock:        flock.New(filepath.Join(dir, LockFile)),
		lockTimeout: flock.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the base directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the canonical state file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, StateFile)
}

// Read loads the current snapshot. A missing or unparsable file yields an
// empty snapshot rather than an error: readers must tolerate transient
// "nothing registered yet" states.
func (s *Store) Read() *Snapshot {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return NewSnapshot()
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return NewSnapshot()
	}
	if snap.Results == nil {
		snap.Results = make(map[string]*Result)
	}
	if snap.Dependencies == nil {
		snap.Dependencies = make(map[string][]string)
	}
	return &snap
}

// write serializes the snapshot to a uniquely named temp file in the same
// directory and renames it over the canonical path, so concurrent readers
// never see a partial file. Transient failures are retried with a short
// randomized backoff up to WriteRetries attempts.
func (s *Store) write(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < WriteRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(writeBackoff())
		}

		tmp, err := os.CreateTemp(s.dir, ".gatekeep-*.json")
		if err != nil {
			lastErr = err
			continue
		}
		name := tmp.Name()

		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			_ = os.Remove(name)
			lastErr = err
			continue
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(name)
			lastErr = err
			continue
		}
		if err := os.Rename(name, s.Path()); err != nil {
			_ = os.Remove(name)
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("%w: %v", ErrWriteExhausted, lastErr)
}

// Update runs a read-modify-write cycle inside the cross-process lock. The
// full snapshot rewrite is the unit of atomicity; the lock linearizes all
// mutations across processes.
func (s *Store) Update(fn func(*Snapshot)) error {
	start := time.Now()
	return s.lock.WithLock(s.lockTimeout, func() error {
		if s.timings != nil {
			s.timings.RecordLockWait(time.Since(start))
		}
		snap := s.Read()
		fn(snap)
		return s.write(snap)
	})
}

// Initialize writes an empty snapshot, establishing the run's starting
// state. Must run exactly once before any test begins; calling it again
// discards any prior state.
func (s *Store) Initialize() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	return s.lock.WithLock(s.lockTimeout, func() error {
		return s.write(NewSnapshot())
	})
}

// Cleanup removes the state file and any lingering lock sentinel.
// Best-effort: failures are swallowed so end-of-run cleanup never crashes
// the reporting phase.
func (s *Store) Cleanup() {
	_ = os.Remove(s.Path())
	_ = s.lock.Release()
}

// RegisterGatekeeper records key's dependency edges. The edges are written
// before the gatekeeper's body runs, so a concurrent dependent can discover
// them while the gatekeeper is still mid-flight.
func (s *Store) RegisterGatekeeper(key string, deps []string) error {
	return s.Update(func(snap *Snapshot) {
		snap.Dependencies[key] = append([]string(nil), deps...)
	})
}

// SetResult records the outcome for key with the current instant. Last
// write wins; the protocol expects a single writer per key per run but the
// store does not enforce it.
func (s *Store) SetResult(key string, passed bool, errMsg string) error {
	return s.Update(func(snap *Snapshot) {
		snap.Results[key] = &Result{
			Passed:    passed,
			Error:     errMsg,
			Timestamp: time.Now().UnixMilli(),
		}
	})
}

// writeBackoff returns a randomized delay between write retries
func writeBackoff() time.Duration {
	return time.Duration(5+rand.Int63n(20)) * time.Millisecond
}
