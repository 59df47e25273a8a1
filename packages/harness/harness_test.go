package harness

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/gatekeep/packages/coord"
)

// fakeTB records harness calls instead of aborting, so tests can observe
// skip and failure decisions directly.
type fakeTB struct {
	skipped bool
	skipMsg string
	failed  bool
	failMsg string
	fatal   bool
}

func (f *fakeTB) Helper() {}

func (f *fakeTB) Fatalf(format string, args ...any) {
	f.fatal = true
	f.failMsg = fmt.Sprintf(format, args...)
}

func (f *fakeTB) Errorf(format string, args ...any) {
	f.failed = true
	f.failMsg = fmt.Sprintf(format, args...)
}

func (f *fakeTB) Skipf(format string, args ...any) {
	f.skipped = true
	f.skipMsg = fmt.Sprintf(format, args...)
}

func newCoordinator(t *testing.T) *coord.Coordinator {
	t.Helper()
	c := coord.New(t.TempDir(), coord.WithoutWatch(), coord.WithPollInterval(10*time.Millisecond))
	require.NoError(t, c.Initialize())
	t.Cleanup(c.Cleanup)
	return c
}

func TestGatePassRecordsResult(t *testing.T) {
	c := newCoordinator(t)
	tb := &fakeTB{}

	h := Gate(tb, c, "api")
	require.False(t, tb.skipped)
	h.Done(nil)

	require.False(t, tb.failed)
	r := c.AllResults()["api"]
	require.NotNil(t, r)
	assert.True(t, r.Passed)
}

func TestGateFailureRecordsAndFails(t *testing.T) {
	c := newCoordinator(t)
	tb := &fakeTB{}

	h := Gate(tb, c, "db")
	h.Done(errors.New("connection refused"))

	assert.True(t, tb.failed)
	r := c.AllResults()["db"]
	require.NotNil(t, r)
	assert.False(t, r.Passed)
	assert.Equal(t, "connection refused", r.Error)
}

func TestGateSkippedWhenPrerequisiteFailed(t *testing.T) {
	c := newCoordinator(t)
	require.NoError(t, c.SetResult("api", false, "down"))

	tb := &fakeTB{}
	Gate(tb, c, "auth", "api")

	assert.True(t, tb.skipped)
	assert.Contains(t, tb.skipMsg, `"api"`)
	// The gated gatekeeper never ran, so it must not have a result
	assert.Nil(t, c.AllResults()["auth"])
}

func TestRequiresSatisfied(t *testing.T) {
	c := newCoordinator(t)
	require.NoError(t, c.SetResult("api", true, ""))

	tb := &fakeTB{}
	Requires(tb, c, "api")

	assert.False(t, tb.skipped)
	assert.False(t, tb.failed)
}

func TestRequiresSkipsOnFailure(t *testing.T) {
	c := newCoordinator(t)
	require.NoError(t, c.Store().SetResult("api", false, "boom"))
	require.NoError(t, c.Store().RegisterGatekeeper("auth", []string{"api"}))
	require.NoError(t, c.Store().SetResult("auth", true, ""))

	tb := &fakeTB{}
	Requires(tb, c, "auth")

	assert.True(t, tb.skipped)
	assert.Contains(t, tb.skipMsg, `"api" failed`)
	assert.Contains(t, tb.skipMsg, "auth -> api")
}

func TestRequiresSkipsOnTimeout(t *testing.T) {
	c := newCoordinator(t)

	tb := &fakeTB{}
	RequiresWithin(tb, c, 50*time.Millisecond, "never")

	assert.True(t, tb.skipped)
	assert.Contains(t, tb.skipMsg, "did not complete")
	assert.False(t, tb.failed, "a missing prerequisite skips, never fails")
}

// End-to-end with real testing.T subtests: the dependent body after
// Requires must not execute when the prerequisite failed.
func TestSkipStopsDependentBody(t *testing.T) {
	c := newCoordinator(t)
	require.NoError(t, c.SetResult("api", false, "down"))

	reached := false
	t.Run("dependent", func(t *testing.T) {
		Requires(t, c, "api")
		reached = true
	})

	assert.False(t, reached, "dependent body ran despite failed prerequisite")
}
