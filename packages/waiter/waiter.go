// Package waiter blocks until gatekeeper results appear in the store or a
// timeout elapses.
//
// Waiting is poll-based so it works across unrelated processes, but an
// fsnotify watcher on the state file wakes pollers early when another
// worker commits a write. The observable contract is unchanged either way:
// bounded by the timeout, a key either resolves to its result or to absent.
package waiter

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/gatekeep/packages/state"
)

const (
	// DefaultTimeout bounds a wait when the caller does not supply one
	DefaultTimeout = 30 * time.Second
	// DefaultInterval is the delay between polls for a single key
	DefaultInterval = 100 * time.Millisecond

	// maxReadsPerSecond caps aggregate state-file reads across all keys
	// awaited concurrently, so a wide dependency list does not multiply
	// the filesystem load.
	maxReadsPerSecond = 50
)

// Waiter polls a store for result arrival.
type Waiter struct {
	store    *state.Store
	interval time.Duration
	limiter  *rate.Limiter
	watch    bool
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(w *Waiter) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithoutWatch disables the fsnotify wakeup and falls back to pure polling.
func WithoutWatch() Option {
	return func(w *Waiter) {
		w.watch = false
	}
}

// New creates a waiter over the given store.
func New(store *state.Store, opts ...Option) *Waiter {
	w := &Waiter{
		store:    store,
		interval: DefaultInterval,
		limiter:  rate.NewLimiter(rate.Limit(maxReadsPerSecond), maxReadsPerSecond),
		watch:    true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Await blocks until every key has a recorded result or timeout elapses.
// Keys are awaited concurrently: total wall-clock time is bounded by
// timeout, not timeout multiplied by the key count. A key with no result by
// the deadline maps to nil in the returned map; that is a signal for the
// caller, not an error. A zero or negative timeout uses DefaultTimeout.
func (w *Waiter) Await(ctx context.Context, keys []string, timeout time.Duration) map[string]*state.Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var wake *broadcaster
	if w.watch {
		wake = w.startWatch(ctx)
	}

	results := make(map[string]*state.Result, len(keys))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			r := w.awaitOne(ctx, key, wake)
			mu.Lock()
			results[key] = r
			mu.Unlock()
		}(key)
	}
	wg.Wait()

	return results
}

// AwaitOne is Await for a single key.
func (w *Waiter) AwaitOne(ctx context.Context, key string, timeout time.Duration) *state.Result {
	return w.Await(ctx, []string{key}, timeout)[key]
}

func (w *Waiter) awaitOne(ctx context.Context, key string, wake *broadcaster) *state.Result {
	var wakeCh chan struct{}
	if wake != nil {
		wakeCh = wake.subscribe()
		defer wake.unsubscribe(wakeCh)
	}

	for {
		if err := w.limiter.Wait(ctx); err == nil {
			if r, ok := w.store.Read().Results[key]; ok {
				return r
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-wakeCh:
		case <-time.After(w.interval):
		}
	}
}

// startWatch wires an fsnotify watcher on the store directory and fans
// state-file events out to pollers. Watching the directory rather than the
// file survives the rename that each atomic write performs. Any watch setup
// failure silently degrades to pure polling.
func (w *Waiter) startWatch(ctx context.Context) *broadcaster {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil
	}
	if err := watcher.Add(w.store.Dir()); err != nil {
		_ = watcher.Close()
		return nil
	}

	b := &broadcaster{}
	stateFile := filepath.Base(w.store.Path())

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) == stateFile &&
					(event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)) {
					b.notify()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return b
}

// broadcaster fans a wakeup out to every subscribed poller. Notifications
// are best-effort: a poller that misses one just waits for its next tick.
type broadcaster struct {
	mu   sync.Mutex
	subs []chan struct{}
}

func (b *broadcaster) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

func (b *broadcaster) unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *broadcaster) notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
