package output

import (
	"sort"

	"github.com/abdul-hamid-achik/gatekeep/packages/coord"
	"github.com/abdul-hamid-achik/gatekeep/packages/metrics"
	"github.com/abdul-hamid-achik/gatekeep/packages/state"
)

// Status is everything the renderers display: committed results, declared
// edges, the tally, and optional contention timings.
type Status struct {
	Results      map[string]*state.Result `json:"results"`
	Dependencies map[string][]string      `json:"dependencies"`
	Summary      coord.Summary            `json:"summary"`
	Timings      *metrics.Summary         `json:"timings,omitempty"`
}

// Formatter renders a status.
type Formatter interface {
	FormatStatus(st *Status) error
	FormatError(err error)
}

// BuildStatus assembles a Status from a coordinator's committed state.
func BuildStatus(c *coord.Coordinator) *Status {
	snap := c.Store().Read()
	st := &Status{
		Results:      snap.Results,
		Dependencies: snap.Dependencies,
		Summary:      c.GetSummary(),
	}
	if rec := c.Timings(); rec != nil {
		st.Timings = rec.GetSummary()
	}
	return st
}

// keys returns every key known to the status, sorted.
func (st *Status) keys() []string {
	seen := make(map[string]bool)
	for key := range st.Results {
		seen[key] = true
	}
	for key, deps := range st.Dependencies {
		seen[key] = true
		for _, dep := range deps {
			seen[dep] = true
		}
	}

	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// roots returns the keys nothing depends on, sorted. They are the tree
// rendering's top level; in a cyclic graph every key may have a dependent,
// so fall back to all keys.
func (st *Status) roots() []string {
	dependedOn := make(map[string]bool)
	for _, deps := range st.Dependencies {
		for _, dep := range deps {
			dependedOn[dep] = true
		}
	}

	var roots []string
	for _, key := range st.keys() {
		if !dependedOn[key] {
			roots = append(roots, key)
		}
	}
	if len(roots) == 0 {
		return st.keys()
	}
	return roots
}
