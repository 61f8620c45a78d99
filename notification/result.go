package notification

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/testmesh/core"
)

// Result accumulates the outcome of a test run. It is safe for concurrent use.
type Result struct {
	count                  atomic.Int64
	ignoreCount            atomic.Int64
	assumptionFailureCount atomic.Int64
	runTime                atomic.Int64
	startTime              atomic.Int64

	mu       sync.Mutex
	failures []*core.Failure
}

// NewResult creates an empty Result.
func NewResult() *Result { return &Result{} }

// RunCount returns the number of tests that finished.
func (r *Result) RunCount() int { return int(r.count.Load()) }

// FailureCount returns the number of failures reported.
func (r *Result) FailureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.failures)
}

// Failures returns a copy of the reported failures in arrival order.
func (r *Result) Failures() []*core.Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*core.Failure, len(r.failures))
	copy(out, r.failures)

	return out
}

// IgnoreCount returns the number of ignored tests.
func (r *Result) IgnoreCount() int { return int(r.ignoreCount.Load()) }

// AssumptionFailureCount returns the number of tests skipped by a violated
// assumption.
func (r *Result) AssumptionFailureCount() int { return int(r.assumptionFailureCount.Load()) }

// RunTime returns the accumulated wall time of the observed runs.
func (r *Result) RunTime() time.Duration { return time.Duration(r.runTime.Load()) }

// WasSuccessful reports whether no failure was reported. Assumption failures
// and ignored tests do not count against success.
func (r *Result) WasSuccessful() bool { return r.FailureCount() == 0 }

// Listener returns the Listener feeding this Result.
func (r *Result) Listener() Listener { return &resultListener{result: r} }

type resultListener struct {
	result *Result
}

func (l *resultListener) ConcurrencySafe() bool { return true }

func (l *resultListener) TestRunStarted(*core.Description) error {
	l.result.startTime.Store(time.Now().UnixNano())
	return nil
}

func (l *resultListener) TestRunFinished(*Result) error {
	if start := l.result.startTime.Load(); start != 0 {
		l.result.runTime.Add(time.Now().UnixNano() - start)
	}

	return nil
}

func (l *resultListener) TestStarted(*core.Description) error { return nil }

func (l *resultListener) TestFinished(*core.Description) error {
	l.result.count.Add(1)
	return nil
}

func (l *resultListener) TestFailure(f *core.Failure) error {
	l.result.mu.Lock()
	defer l.result.mu.Unlock()

	l.result.failures = append(l.result.failures, f)

	return nil
}

func (l *resultListener) TestAssumptionFailure(*core.Failure) error {
	l.result.assumptionFailureCount.Add(1)
	return nil
}

func (l *resultListener) TestIgnored(*core.Description) error {
	l.result.ignoreCount.Add(1)
	return nil
}

type serializedFailure struct {
	Test    string `json:"test"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

type serializedResult struct {
	RunCount               int                 `json:"run_count"`
	IgnoreCount            int                 `json:"ignore_count"`
	AssumptionFailureCount int                 `json:"assumption_failure_count"`
	RunTimeMillis          int64               `json:"run_time_ms"`
	Failures               []serializedFailure `json:"failures"`
}

// MarshalJSON implements json.Marshaler.
func (r *Result) MarshalJSON() ([]byte, error) {
	s := serializedResult{
		RunCount:               r.RunCount(),
		IgnoreCount:            r.IgnoreCount(),
		AssumptionFailureCount: r.AssumptionFailureCount(),
		RunTimeMillis:          r.RunTime().Milliseconds(),
		Failures:               []serializedFailure{},
	}

	for _, f := range r.Failures() {
		s.Failures = append(s.Failures, serializedFailure{Test: f.TestHeader(), Message: f.Message(), Trace: core.StackTrace(f.Err)})
	}

	return json.Marshal(s)
}

// UnmarshalJSON implements json.Unmarshaler. Restored failures keep the test
// header and message; their errors carry no type information.
func (r *Result) UnmarshalJSON(data []byte) error {
	var s serializedResult
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	r.count.Store(int64(s.RunCount))
	r.ignoreCount.Store(int64(s.IgnoreCount))
	r.assumptionFailureCount.Store(int64(s.AssumptionFailureCount))
	r.runTime.Store(int64(time.Duration(s.RunTimeMillis) * time.Millisecond))

	failures := make([]*core.Failure, 0, len(s.Failures))
	for _, f := range s.Failures {
		failures = append(failures, core.NewFailure(core.NewSuiteDescription(f.Test), errors.New(f.Message)))
	}

	r.mu.Lock()
	r.failures = failures
	r.mu.Unlock()

	return nil
}
