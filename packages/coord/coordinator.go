package coord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/gatekeep/packages/metrics"
	"github.com/abdul-hamid-achik/gatekeep/packages/resolve"
	"github.com/abdul-hamid-achik/gatekeep/packages/state"
	"github.com/abdul-hamid-achik/gatekeep/packages/waiter"
)

// Coordinator composes the store, waiter and resolver into the operations a
// test consumes.
type Coordinator struct {
	store       *state.Store
	waiter      *waiter.Waiter
	timings     *metrics.Recorder
	waitTimeout time.Duration

	mu      sync.Mutex
	current string // key of the gatekeeper currently executing in this process
}

// Option configures a Coordinator.
type Option func(*options)

type options struct {
	waitTimeout  time.Duration
	lockTimeout  time.Duration
	pollInterval time.Duration
	watch        bool
	timings      *metrics.Recorder
}

// WithWaitTimeout overrides the default prerequisite wait timeout.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.waitTimeout = d
		}
	}
}

// WithLockTimeout overrides the store's lock acquisition timeout.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithPollInterval overrides the waiter's poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithoutWatch disables the waiter's fsnotify wakeup.
func WithoutWatch() Option {
	return func(o *options) {
		o.watch = false
	}
}

// WithRecorder collects lock and wait contention timings.
func WithRecorder(r *metrics.Recorder) Option {
	return func(o *options) {
		o.timings = r
	}
}

// New creates a coordinator over the state directory dir.
func New(dir string, opts ...Option) *Coordinator {
	o := &options{
		waitTimeout:  waiter.DefaultTimeout,
		pollInterval: waiter.DefaultInterval,
		watch:        true,
	}
	for _, opt := range opts {
		opt(o)
	}

	storeOpts := []state.StoreOption{}
	if o.lockTimeout > 0 {
		storeOpts = append(storeOpts, state.WithLockTimeout(o.lockTimeout))
	}
	if o.timings != nil {
		storeOpts = append(storeOpts, state.WithLockWaitRecorder(o.timings))
	}
	store := state.NewStore(dir, storeOpts...)

	waiterOpts := []waiter.Option{waiter.WithInterval(o.pollInterval)}
	if !o.watch {
		waiterOpts = append(waiterOpts, waiter.WithoutWatch())
	}

	return &Coordinator{
		store:       store,
		waiter:      waiter.New(store, waiterOpts...),
		timings:     o.timings,
		waitTimeout: o.waitTimeout,
	}
}

// Store exposes the underlying store for read-only collaborators (renderer,
// history archive).
func (c *Coordinator) Store() *state.Store {
	return c.store
}

// Timings returns the recorder, or nil when none was configured.
func (c *Coordinator) Timings() *metrics.Recorder {
	return c.timings
}

// Initialize establishes the run's empty starting state. Called exactly
// once per run by the bootstrap layer, before any test begins.
func (c *Coordinator) Initialize() error {
	return c.store.Initialize()
}

// Cleanup discards the run's durable artifacts. Best-effort, never fails.
func (c *Coordinator) Cleanup() {
	c.store.Cleanup()
}

// RegisterGatekeeper persists key's dependency edges and marks this process
// as the owner of key. When a declared dependency is already known to have
// failed, registration returns the failure instead of claiming ownership: a
// gatekeeper can itself be gated, and must be skipped before its body runs.
// The edges are written either way, so dependents of a skipped gatekeeper
// still resolve through it to the root cause.
func (c *Coordinator) RegisterGatekeeper(key string, deps []string) (*resolve.Failure, error) {
	if err := c.store.RegisterGatekeeper(key, deps); err != nil {
		return nil, fmt.Errorf("register gatekeeper %q: %w", key, err)
	}

	if len(deps) > 0 {
		if f := resolve.FirstFailed(deps, c.store.Read()); f != nil {
			return f, nil
		}
	}

	c.mu.Lock()
	c.current = key
	c.mu.Unlock()
	return nil, nil
}

// Current returns the key of the gatekeeper this process is currently
// executing, or "" when none is in flight.
func (c *Coordinator) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetResult records the outcome for key. A second call for the same key
// silently overwrites; enforcing exactly-once is the caller's job.
func (c *Coordinator) SetResult(key string, passed bool, errMsg string) error {
	if err := c.store.SetResult(key, passed, errMsg); err != nil {
		return fmt.Errorf("record result for %q: %w", key, err)
	}

	c.mu.Lock()
	if c.current == key {
		c.current = ""
	}
	c.mu.Unlock()
	return nil
}

// WaitFor blocks until every key has a result or timeout elapses. Absent
// keys map to nil. A zero timeout uses the coordinator's default.
func (c *Coordinator) WaitFor(ctx context.Context, keys []string, timeout time.Duration) map[string]*state.Result {
	if timeout <= 0 {
		timeout = c.waitTimeout
	}

	start := time.Now()
	results := c.waiter.Await(ctx, keys, timeout)
	if c.timings != nil {
		c.timings.RecordResultWait(time.Since(start))
	}
	return results
}

// FailedDependency resolves keys against the current snapshot and returns
// the first transitive failure, or nil.
func (c *Coordinator) FailedDependency(keys []string) *resolve.Failure {
	return resolve.FirstFailed(keys, c.store.Read())
}

// Verdict is the outcome of DependsOn. When Satisfied is false the calling
// test must skip with SkipReason, which names the furthest upstream cause.
type Verdict struct {
	Satisfied  bool
	SkipReason string

	// Failure is set when a prerequisite failed; Missing lists
	// prerequisites that never completed within the timeout. They have
	// different remediation, so the skip messages differ.
	Failure *resolve.Failure
	Missing []string
}

// DependsOn waits for keys, then resolves their transitive closure for
// failures. Both a failed and a never-completed prerequisite produce a
// skip verdict, never an error. A recorded failure anywhere in the closure
// wins over a missing result: a gated gatekeeper never records anything,
// and its dependents must see the root cause, not a timeout.
func (c *Coordinator) DependsOn(ctx context.Context, keys []string, timeout time.Duration) *Verdict {
	if timeout <= 0 {
		timeout = c.waitTimeout
	}

	results := c.WaitFor(ctx, keys, timeout)

	if f := resolve.FirstFailed(keys, c.store.Read()); f != nil {
		return &Verdict{
			SkipReason: f.String(),
			Failure:    f,
		}
	}

	var missing []string
	for _, key := range keys {
		if results[key] == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &Verdict{
			SkipReason: fmt.Sprintf("prerequisite %q did not complete within %v", missing[0], timeout),
			Missing:    missing,
		}
	}

	return &Verdict{Satisfied: true}
}

// AllResults returns all committed results. Only lock-written state is ever
// visible here.
func (c *Coordinator) AllResults() map[string]*state.Result {
	return c.store.Read().Results
}

// Summary counts committed results.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// GetSummary tallies the committed results.
func (c *Coordinator) GetSummary() Summary {
	var s Summary
	for _, r := range c.store.Read().Results {
		s.Total++
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}
