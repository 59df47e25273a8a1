// Package state persists gatekeeper results and their dependency edges for
// a single test run.
//
// The whole state is one JSON document rewritten atomically on every
// mutation: writers serialize to a temp file and rename it over the
// canonical path, so readers never observe a partial write. Mutations run
// inside a cross-process lock (packages/flock); reads are lock-free and
// tolerate a missing or mid-rename file by returning an empty snapshot.
package state
