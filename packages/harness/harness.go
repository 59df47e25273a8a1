package harness

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/gatekeep/packages/coord"
)

// GateHandle is the live registration of a gatekeeper test. Done must be
// called exactly once before the test returns.
type GateHandle struct {
	t   TB
	c   *coord.Coordinator
	key string
}

// TB is the subset of testing.TB the harness needs.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Skipf(format string, args ...any)
}

// Gate registers the calling test as the gatekeeper for key. If a declared
// dependency is already known to have failed, the test is skipped before
// its body runs. A registration error (lock timeout, write exhaustion) is
// fatal: it means the coordination substrate is unavailable.
func Gate(t TB, c *coord.Coordinator, key string, deps ...string) *GateHandle {
	t.Helper()

	gated, err := c.RegisterGatekeeper(key, deps)
	if err != nil {
		t.Fatalf("register gatekeeper %q: %v", key, err)
	}
	if gated != nil {
		t.Skipf("gatekeeper %q not run: prerequisite %q already failed", key, gated.Key)
	}

	return &GateHandle{t: t, c: c, key: key}
}

// Done records the gatekeeper's outcome. A nil err records a pass; anything
// else records a failure and fails the calling test.
func (h *GateHandle) Done(err error) {
	h.t.Helper()

	if err == nil {
		if rerr := h.c.SetResult(h.key, true, ""); rerr != nil {
			h.t.Fatalf("record result for %q: %v", h.key, rerr)
		}
		return
	}

	if rerr := h.c.SetResult(h.key, false, err.Error()); rerr != nil {
		h.t.Fatalf("record result for %q: %v", h.key, rerr)
	}
	h.t.Errorf("gatekeeper %q failed: %v", h.key, err)
}

// Requires blocks until every named prerequisite has a result, then skips
// the calling test when any of them, or anything in their transitive
// closure, failed or never completed. The skip message names the furthest
// upstream cause.
func Requires(t TB, c *coord.Coordinator, keys ...string) {
	RequiresWithin(t, c, 0, keys...)
}

// RequiresWithin is Requires with an explicit wait timeout. A zero timeout
// uses the coordinator's default.
func RequiresWithin(t TB, c *coord.Coordinator, timeout time.Duration, keys ...string) {
	t.Helper()

	v := c.DependsOn(context.Background(), keys, timeout)
	if !v.Satisfied {
		t.Skipf("%s", v.SkipReason)
	}
}
