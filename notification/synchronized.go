package notification

import (
	"sync"

	"github.com/hupe1980/testmesh/core"
)

// SynchronizedListener serializes calls into a listener that is not safe for
// concurrent use. All synchronized listeners of one notifier share a lock, so
// events reach them one at a time.
type SynchronizedListener struct {
	listener Listener
	mu       *sync.Mutex
}

// NewSynchronizedListener wraps l so that every call holds mu.
func NewSynchronizedListener(l Listener, mu *sync.Mutex) *SynchronizedListener {
	return &SynchronizedListener{listener: l, mu: mu}
}

// Unwrap returns the wrapped listener.
func (s *SynchronizedListener) Unwrap() Listener { return s.listener }

// ConcurrencySafe implements ConcurrencySafe.
func (s *SynchronizedListener) ConcurrencySafe() bool { return true }

// TestRunStarted implements Listener.
func (s *SynchronizedListener) TestRunStarted(d *core.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.TestRunStarted(d)
}

// TestRunFinished implements Listener.
func (s *SynchronizedListener) TestRunFinished(r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.TestRunFinished(r)
}

// TestStarted implements Listener.
func (s *SynchronizedListener) TestStarted(d *core.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.TestStarted(d)
}

// TestFinished implements Listener.
func (s *SynchronizedListener) TestFinished(d *core.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.TestFinished(d)
}

// TestFailure implements Listener.
func (s *SynchronizedListener) TestFailure(f *core.Failure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.TestFailure(f)
}

// TestAssumptionFailure implements Listener.
func (s *SynchronizedListener) TestAssumptionFailure(f *core.Failure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.TestAssumptionFailure(f)
}

// TestIgnored implements Listener.
func (s *SynchronizedListener) TestIgnored(d *core.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.TestIgnored(d)
}
