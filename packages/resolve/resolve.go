package resolve

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/gatekeep/packages/state"
)

// Failure identifies the first failed key reached from a queried set, along
// with the chain of keys that leads to it. Chain starts at the queried key
// and ends at Key; a direct failure has a single-element chain.
type Failure struct {
	Key   string
	Error string
	Chain []string
}

// String renders a single line naming the root cause and, for transitive
// failures, the path that reaches it.
func (f *Failure) String() string {
	msg := fmt.Sprintf("prerequisite %q failed", f.Key)
	if f.Error != "" {
		msg += ": " + f.Error
	}
	if len(f.Chain) > 1 {
		msg += " (via " + strings.Join(f.Chain, " -> ") + ")"
	}
	return msg
}

// FirstFailed walks keys depth-first, following declared dependencies, and
// returns the first key whose recorded result failed. The visited set spans
// the entire traversal, so cyclic graphs terminate: a key already seen is
// skipped rather than re-expanded.
//
// Returns nil both when every reachable key passed and when nothing has
// reported yet; distinguishing those two is the wait coordinator's job.
// Traversal order is deterministic: keys in the order supplied, then each
// key's dependency list in declaration order.
func FirstFailed(keys []string, snap *state.Snapshot) *Failure {
	visited := make(map[string]bool)
	return firstFailed(keys, snap, visited)
}

func firstFailed(keys []string, snap *state.Snapshot, visited map[string]bool) *Failure {
	for _, key := range keys {
		if visited[key] {
			continue
		}
		visited[key] = true

		if r, ok := snap.Results[key]; ok && !r.Passed {
			return &Failure{
				Key:   key,
				Error: r.Error,
				Chain: []string{key},
			}
		}

		if deps := snap.Dependencies[key]; len(deps) > 0 {
			if inner := firstFailed(deps, snap, visited); inner != nil {
				inner.Chain = append([]string{key}, inner.Chain...)
				return inner
			}
		}
	}
	return nil
}
