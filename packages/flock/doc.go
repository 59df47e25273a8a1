// Package flock provides an advisory cross-process lock backed by a
// sentinel file.
//
// The protocol is deliberately lowest-common-denominator so unrelated OS
// processes can coordinate through nothing but a shared filesystem path:
// whoever manages to create the sentinel with O_EXCL holds the lock, and
// everyone else backs off and retries until their timeout elapses. The
// sentinel's content (pid and an owner token) is diagnostic only; no
// component ever reads it.
//
// The lock is advisory. It relies on all participants honoring the
// protocol, and has no ownership tracking beyond the sentinel's existence.
package flock
