package rules

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/testmesh/core"
)

type stopwatchKey struct{}

// Stopwatch measures the time a test takes and passes it to the callback
// matching the outcome. Finished receives the time up to the end of the
// test, whatever its outcome. Nil callbacks are skipped.
//
// A Stopwatch may be shared by tests running in parallel; every test is
// timed separately.
type Stopwatch struct {
	Succeeded func(d *core.Description, elapsed time.Duration) error
	Failed    func(d *core.Description, err error, elapsed time.Duration) error
	Skipped   func(d *core.Description, err error, elapsed time.Duration) error
	Finished  func(d *core.Description, elapsed time.Duration) error

	// Now replaces time.Now, mostly in tests.
	Now func() time.Time
}

// Apply implements core.Rule.
func (s *Stopwatch) Apply(base core.Statement, d *core.Description) core.Statement {
	return core.StatementFunc(func(ctx context.Context) error {
		c := &testClock{now: s.Now}
		if c.now == nil {
			c.now = time.Now
		}

		w := &TestWatcher{
			Starting: func(*core.Description) error {
				c.start()
				return nil
			},
			Succeeded: func(d *core.Description) error {
				c.stop()

				if s.Succeeded == nil {
					return nil
				}

				return s.Succeeded(d, c.elapsed())
			},
			Failed: func(d *core.Description, err error) error {
				c.stop()

				if s.Failed == nil {
					return nil
				}

				return s.Failed(d, err, c.elapsed())
			},
			Skipped: func(d *core.Description, err error) error {
				c.stop()

				if s.Skipped == nil {
					return nil
				}

				return s.Skipped(d, err, c.elapsed())
			},
			Finished: func(d *core.Description) error {
				if s.Finished == nil {
					return nil
				}

				return s.Finished(d, c.elapsed())
			},
		}

		return w.Apply(base, d).Evaluate(context.WithValue(ctx, stopwatchKey{}, c))
	})
}

// Elapsed returns the time the running test has taken so far. It reports
// false when no Stopwatch applies to the test.
func Elapsed(ctx context.Context) (time.Duration, bool) {
	c, ok := ctx.Value(stopwatchKey{}).(*testClock)
	if !ok {
		return 0, false
	}

	return c.elapsed(), true
}

type testClock struct {
	now func() time.Time

	mu         sync.Mutex
	begin, end time.Time
}

func (c *testClock) start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.begin = c.now()
	c.end = time.Time{}
}

func (c *testClock) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.end = c.now()
}

func (c *testClock) elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.end.IsZero() {
		return c.now().Sub(c.begin)
	}

	return c.end.Sub(c.begin)
}
