package notification

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/logging"
)

// Options configures a Notifier.
type Options struct {
	// Logger receives diagnostics about removed listeners.
	Logger logging.Logger
}

// Notifier publishes run events to its listeners.
//
// Events are fired over an immutable snapshot of the listener list, so
// listeners may be added or removed concurrently with firing. Listeners that
// do not implement ConcurrencySafe are wrapped in a SynchronizedListener.
//
// After PleaseStop, the start-type events (FireTestRunStarted,
// FireTestStarted, FireTestIgnored) return core.ErrStoppedByUser instead of
// notifying. Completion events of tests already started are still delivered
// so that every testStarted stays paired with a testFinished.
type Notifier struct {
	mu        sync.Mutex
	listeners []Listener
	first     int        // number of privileged listeners at the head of listeners
	failed    []Listener // removed after a failure; skipped by snapshots taken earlier

	syncMu  sync.Mutex // shared by all SynchronizedListeners
	stopped atomic.Bool
	logger  logging.Logger
}

// NewNotifier creates a Notifier without listeners.
func NewNotifier(optFns ...func(o *Options)) *Notifier {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Notifier{logger: opts.Logger}
}

// AddListener appends l to the listener list.
func (n *Notifier) AddListener(l Listener) {
	if l == nil {
		return
	}

	w := n.wrapIfNeeded(l)

	n.mu.Lock()
	defer n.mu.Unlock()

	n.forgetFailureLocked(l)

	next := make([]Listener, len(n.listeners), len(n.listeners)+1)
	copy(next, n.listeners)
	n.listeners = append(next, w)
}

// AddFirstListener registers l ahead of all listeners added with
// AddListener. It is reserved for listeners that must observe every event
// before user code does, such as the Result of the run.
func (n *Notifier) AddFirstListener(l Listener) {
	if l == nil {
		return
	}

	w := n.wrapIfNeeded(l)

	n.mu.Lock()
	defer n.mu.Unlock()

	n.forgetFailureLocked(l)

	next := make([]Listener, 0, len(n.listeners)+1)
	next = append(next, n.listeners[:n.first]...)
	next = append(next, w)
	next = append(next, n.listeners[n.first:]...)
	n.listeners = next
	n.first++
}

// RemoveListener removes l (or the synchronized wrapper around it).
func (n *Notifier) RemoveListener(l Listener) {
	if l == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.removeLocked(l)
}

// removeLocked removes l and reports whether it was registered.
func (n *Notifier) removeLocked(l Listener) bool {
	next := make([]Listener, 0, len(n.listeners))
	removed := false

	for i, cur := range n.listeners {
		if sameListener(cur, l) || sameListener(unwrap(cur), l) {
			if i < n.first {
				n.first--
			}

			removed = true

			continue
		}

		next = append(next, cur)
	}

	n.listeners = next

	return removed
}

// removeFailed removes a listener that returned an error. Only the first
// caller for a given listener gets true; concurrent events that notified the
// same listener from an older snapshot get false.
func (n *Notifier) removeFailed(l Listener) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.hasFailedLocked(l) {
		return false
	}

	n.failed = append(n.failed, l)

	return n.removeLocked(l)
}

func (n *Notifier) hasFailed(l Listener) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.hasFailedLocked(l)
}

func (n *Notifier) hasFailedLocked(l Listener) bool {
	for _, f := range n.failed {
		if sameListener(f, l) {
			return true
		}
	}

	return false
}

// forgetFailureLocked lets a failed listener be registered again.
func (n *Notifier) forgetFailureLocked(l Listener) {
	n.failed = slices.DeleteFunc(n.failed, func(f Listener) bool {
		return sameListener(f, l) || sameListener(unwrap(f), l)
	})
}

// Listeners returns the number of registered listeners.
func (n *Notifier) Listeners() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.listeners)
}

// PleaseStop requests a cooperative stop of the run.
func (n *Notifier) PleaseStop() { n.stopped.Store(true) }

// IsStopped reports whether PleaseStop was called.
func (n *Notifier) IsStopped() bool { return n.stopped.Load() }

// FireTestRunStarted announces the start of a run over d.
func (n *Notifier) FireTestRunStarted(d *core.Description) error {
	if n.IsStopped() {
		return core.ErrStoppedByUser
	}

	n.fire("testRunStarted", func(l Listener) error { return l.TestRunStarted(d) })

	return nil
}

// FireTestRunFinished announces the end of a run.
func (n *Notifier) FireTestRunFinished(r *Result) {
	n.fire("testRunFinished", func(l Listener) error { return l.TestRunFinished(r) })
}

// FireTestStarted announces that the test d is about to run.
func (n *Notifier) FireTestStarted(d *core.Description) error {
	if n.IsStopped() {
		return core.ErrStoppedByUser
	}

	n.fire("testStarted", func(l Listener) error { return l.TestStarted(d) })

	return nil
}

// FireTestFinished announces that the test d finished, whatever its outcome.
func (n *Notifier) FireTestFinished(d *core.Description) {
	n.fire("testFinished", func(l Listener) error { return l.TestFinished(d) })
}

// FireTestFailure announces a failed test.
func (n *Notifier) FireTestFailure(f *core.Failure) {
	n.fire("testFailure", func(l Listener) error { return l.TestFailure(f) })
}

// FireTestAssumptionFailed announces a test skipped by a violated assumption.
func (n *Notifier) FireTestAssumptionFailed(f *core.Failure) {
	n.fire("testAssumptionFailure", func(l Listener) error { return l.TestAssumptionFailure(f) })
}

// FireTestIgnored announces a test that will not be run.
func (n *Notifier) FireTestIgnored(d *core.Description) error {
	if n.IsStopped() {
		return core.ErrStoppedByUser
	}

	n.fire("testIgnored", func(l Listener) error { return l.TestIgnored(d) })

	return nil
}

type listenerFailure struct {
	listener Listener
	err      error
}

func (n *Notifier) snapshot() []Listener {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.listeners
}

func (n *Notifier) fire(event string, notify func(Listener) error) {
	var failed []listenerFailure

	for _, l := range n.snapshot() {
		if n.hasFailed(l) {
			continue
		}

		if err := safeNotify(l, notify); err != nil {
			if n.removeFailed(l) {
				failed = append(failed, listenerFailure{listener: l, err: err})
			}
		}
	}

	for _, f := range failed {
		n.logRemoval(f, event)
	}

	for _, f := range failed {
		err := fmt.Errorf("listener %T failed on %s: %w", unwrap(f.listener), event, f.err)
		n.FireTestFailure(core.NewFailure(core.TestMechanism, err))
	}
}

type stackLogger interface {
	ErrorWithStack(err error, msg string, args ...any)
}

func (n *Notifier) logRemoval(f listenerFailure, event string) {
	listener := fmt.Sprintf("%T", unwrap(f.listener))

	if sl, ok := n.logger.(stackLogger); ok {
		sl.ErrorWithStack(f.err, "listener removed after failure", "listener", listener, "event", event)
		return
	}

	n.logger.Warn("listener removed after failure", "listener", listener, "event", event, "error", f.err)
}

func safeNotify(l Listener, notify func(Listener) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.FromPanic(r)
		}
	}()

	return notify(l)
}

func (n *Notifier) wrapIfNeeded(l Listener) Listener {
	if isConcurrencySafe(l) {
		return l
	}

	return NewSynchronizedListener(l, &n.syncMu)
}

func unwrap(l Listener) Listener {
	if s, ok := l.(*SynchronizedListener); ok {
		return s.Unwrap()
	}

	return l
}

func sameListener(a, b Listener) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}

	return a == b
}
