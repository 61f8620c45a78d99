package notification

import (
	"github.com/hupe1980/testmesh/core"
)

// Listener observes the events of a test run. Returning an error (or
// panicking) from any method removes the listener from the notifier for the
// rest of the run.
type Listener interface {
	TestRunStarted(d *core.Description) error
	TestRunFinished(r *Result) error
	TestStarted(d *core.Description) error
	TestFinished(d *core.Description) error
	TestFailure(f *core.Failure) error
	TestAssumptionFailure(f *core.Failure) error
	TestIgnored(d *core.Description) error
}

// ConcurrencySafe is implemented by listeners that may receive events from
// several goroutines at once. All other listeners are serialized by the
// notifier.
type ConcurrencySafe interface {
	ConcurrencySafe() bool
}

// BaseListener implements every Listener method as a no-op. Embed it to
// override only the events of interest.
type BaseListener struct{}

// TestRunStarted implements Listener.
func (BaseListener) TestRunStarted(*core.Description) error { return nil }

// TestRunFinished implements Listener.
func (BaseListener) TestRunFinished(*Result) error { return nil }

// TestStarted implements Listener.
func (BaseListener) TestStarted(*core.Description) error { return nil }

// TestFinished implements Listener.
func (BaseListener) TestFinished(*core.Description) error { return nil }

// TestFailure implements Listener.
func (BaseListener) TestFailure(*core.Failure) error { return nil }

// TestAssumptionFailure implements Listener.
func (BaseListener) TestAssumptionFailure(*core.Failure) error { return nil }

// TestIgnored implements Listener.
func (BaseListener) TestIgnored(*core.Description) error { return nil }

func isConcurrencySafe(l Listener) bool {
	cs, ok := l.(ConcurrencySafe)
	return ok && cs.ConcurrencySafe()
}
