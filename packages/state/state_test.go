package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestReadMissingFile(t *testing.T) {
	s := NewStore(t.TempDir())

	snap := s.Read()
	if len(snap.Results) != 0 || len(snap.Dependencies) != 0 {
		t.Error("expected empty snapshot for missing file")
	}
}

func TestReadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := os.WriteFile(s.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	snap := s.Read()
	if len(snap.Results) != 0 || len(snap.Dependencies) != 0 {
		t.Error("expected empty snapshot for corrupt file")
	}
}

func TestInitializeIdempotent(t *testing.T) {
	s := NewStore(t.TempDir())

	if err := s.Initialize(); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if err := s.SetResult("leftover", true, ""); err != nil {
		t.Fatal(err)
	}

	if err := s.Initialize(); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	snap := s.Read()
	if len(snap.Results) != 0 {
		t.Errorf("expected prior data discarded, got %d results", len(snap.Results))
	}
}

func TestRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}

	if err := s.RegisterGatekeeper("auth", []string{"api", "db"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetResult("api", true, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.SetResult("db", false, "connection refused"); err != nil {
		t.Fatal(err)
	}

	snap := s.Read()

	deps := snap.Dependencies["auth"]
	if len(deps) != 2 || deps[0] != "api" || deps[1] != "db" {
		t.Errorf("dependency order not preserved: %v", deps)
	}

	api := snap.Results["api"]
	if api == nil || !api.Passed {
		t.Errorf("unexpected api result: %+v", api)
	}
	db := snap.Results["db"]
	if db == nil || db.Passed || db.Error != "connection refused" {
		t.Errorf("unexpected db result: %+v", db)
	}
	if db.Timestamp == 0 {
		t.Error("expected timestamp to be set")
	}
}

func TestSetResultOverwrites(t *testing.T) {
	// The store deliberately does not enforce an exactly-once contract:
	// a second SetResult for the same key silently wins.
	s := NewStore(t.TempDir())
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}

	if err := s.SetResult("api", true, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.SetResult("api", false, "flipped"); err != nil {
		t.Fatal(err)
	}

	r := s.Read().Results["api"]
	if r == nil || r.Passed || r.Error != "flipped" {
		t.Errorf("expected last write to win, got %+v", r)
	}
}

// Each goroutine owns an independent Store value sharing only the base
// directory, modeling separate worker processes.
func TestConcurrentSetResultNoLostUpdates(t *testing.T) {
	dir := t.TempDir()
	if err := NewStore(dir).Initialize(); err != nil {
		t.Fatal(err)
	}

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := NewStore(dir, WithLockTimeout(10*time.Second))
			key := fmt.Sprintf("gate-%d", n)
			if err := s.SetResult(key, n%2 == 0, ""); err != nil {
				t.Errorf("set result %s: %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	snap := NewStore(dir).Read()
	if len(snap.Results) != workers {
		t.Errorf("lost updates: %d results, expected %d", len(snap.Results), workers)
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}

	s.Cleanup()

	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Error("expected state file removed")
	}
	if _, err := os.Stat(filepath.Join(dir, LockFile)); !os.IsNotExist(err) {
		t.Error("expected lock sentinel removed")
	}

	// Cleanup on an already-clean directory must not panic or error
	s.Cleanup()
}

func TestVerify(t *testing.T) {
	s := NewStore(t.TempDir())

	// Missing file is fine
	if err := s.Verify(); err != nil {
		t.Fatalf("verify missing file: %v", err)
	}

	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetResult("api", true, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Verify(); err != nil {
		t.Fatalf("verify valid file: %v", err)
	}

	if err := os.WriteFile(s.Path(), []byte(`{"results": {"api": {"passed": "yes"}}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.Verify(); err == nil {
		t.Error("expected verify to reject malformed state")
	}
}
