package testutil

import (
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/notification"
)

// EventRecorder is a listener logging every event as a short string, e.g.
// "started(a(C))" or "failure(a(C)): boom". It is safe for concurrent use.
type EventRecorder struct {
	mu       sync.Mutex
	events   []string
	failures []*core.Failure
}

var _ notification.Listener = (*EventRecorder)(nil)

// NewEventRecorder creates an empty recorder.
func NewEventRecorder() *EventRecorder { return &EventRecorder{} }

// ConcurrencySafe implements notification.ConcurrencySafe.
func (r *EventRecorder) ConcurrencySafe() bool { return true }

// Events returns a snapshot of the recorded events.
func (r *EventRecorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.events)
}

// Failures returns a snapshot of the recorded failures, assumption failures
// included.
func (r *EventRecorder) Failures() []*core.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.failures)
}

// Filter returns the recorded events starting with prefix.
func (r *EventRecorder) Filter(prefix string) []string {
	var out []string

	for _, ev := range r.Events() {
		if strings.HasPrefix(ev, prefix) {
			out = append(out, ev)
		}
	}

	return out
}

func (r *EventRecorder) record(ev string) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()

	return nil
}

func (r *EventRecorder) recordFailure(kind string, f *core.Failure) error {
	r.mu.Lock()
	r.failures = append(r.failures, f)
	r.mu.Unlock()

	return r.record(kind + "(" + f.TestHeader() + "): " + f.Message())
}

// TestRunStarted implements notification.Listener.
func (r *EventRecorder) TestRunStarted(*core.Description) error { return r.record("runStarted") }

// TestRunFinished implements notification.Listener.
func (r *EventRecorder) TestRunFinished(*notification.Result) error { return r.record("runFinished") }

// TestStarted implements notification.Listener.
func (r *EventRecorder) TestStarted(d *core.Description) error {
	return r.record("started(" + d.DisplayName() + ")")
}

// TestFinished implements notification.Listener.
func (r *EventRecorder) TestFinished(d *core.Description) error {
	return r.record("finished(" + d.DisplayName() + ")")
}

// TestFailure implements notification.Listener.
func (r *EventRecorder) TestFailure(f *core.Failure) error { return r.recordFailure("failure", f) }

// TestAssumptionFailure implements notification.Listener.
func (r *EventRecorder) TestAssumptionFailure(f *core.Failure) error {
	return r.recordFailure("assumption", f)
}

// TestIgnored implements notification.Listener.
func (r *EventRecorder) TestIgnored(d *core.Description) error {
	return r.record("ignored(" + d.DisplayName() + ")")
}
