// Package coord is the coordination facade tests talk to: register as a
// gatekeeper, record a pass/fail result, and wait on prerequisites before
// deciding to run or skip.
//
// One Coordinator is constructed per process and passed to whatever
// integration layer needs it; there is no implicit global. All shared state
// lives in the durable store, so coordinators in separate worker processes
// pointed at the same base directory cooperate without sharing memory.
package coord
