// Package resolve answers "did anything my test depends on fail?" over a
// snapshot of recorded results and declared dependency edges.
//
// Resolution is a pure function of the snapshot: it takes no locks and does
// no I/O, so callers decide how fresh a snapshot they need.
package resolve
