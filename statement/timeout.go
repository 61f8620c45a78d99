package statement

import (
	"context"
	"time"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/internal/util"
)

// Bounds of the default grace period, which is a tenth of the timeout
// clamped to [MinGracePeriod, MaxGracePeriod]. A timed-out statement waits
// that long for its worker to observe cancellation before giving up on it.
const (
	MinGracePeriod = 20 * time.Millisecond
	MaxGracePeriod = 100 * time.Millisecond
)

// TimeoutOptions configures FailOnTimeout.
type TimeoutOptions struct {
	// Timeout is the configured value, expressed in Unit. A value <= 0
	// disables the watchdog.
	Timeout int64
	// Unit is the time unit of Timeout (defaults to time.Millisecond).
	Unit time.Duration
	// CaptureStack records the worker's stack when the timeout fires.
	CaptureStack bool
	// GracePeriod bounds the wait for the cancelled worker to return. A
	// negative value selects the default derived from the timeout.
	GracePeriod time.Duration
}

// WithTimeout sets the timeout value and unit.
func WithTimeout(value int64, unit time.Duration) func(o *TimeoutOptions) {
	return func(o *TimeoutOptions) {
		o.Timeout = value
		o.Unit = unit
	}
}

// WithDuration sets the timeout from d, expressed in the largest unit that
// divides it exactly (so 1500ms stays "1500 milliseconds").
func WithDuration(d time.Duration) func(o *TimeoutOptions) {
	return WithTimeout(SplitDuration(d))
}

// SplitDuration splits d into a value and the largest unit dividing it.
func SplitDuration(d time.Duration) (int64, time.Duration) {
	for _, unit := range []time.Duration{time.Hour, time.Minute, time.Second, time.Millisecond, time.Microsecond} {
		if d%unit == 0 {
			return int64(d / unit), unit
		}
	}

	return int64(d), time.Nanosecond
}

// WithGracePeriod overrides the default grace period. Zero reports the
// timeout without waiting for the worker at all.
func WithGracePeriod(d time.Duration) func(o *TimeoutOptions) {
	return func(o *TimeoutOptions) { o.GracePeriod = d }
}

// WithLookingForStuckThread toggles capturing the worker's stack on timeout.
func WithLookingForStuckThread(enabled bool) func(o *TimeoutOptions) {
	return func(o *TimeoutOptions) { o.CaptureStack = enabled }
}

type failOnTimeout struct {
	next core.Statement
	opts TimeoutOptions
}

// FailOnTimeout evaluates next on a dedicated goroutine and fails with a
// *core.TestTimedOutError if it does not finish in time.
//
// The worker receives a child context that is cancelled when the timeout
// fires. The watchdog then waits up to the grace period for the worker to
// return, so a worker honoring its context never outlives the call. An
// outcome produced before the deadline is returned unchanged.
func FailOnTimeout(next core.Statement, optFns ...func(o *TimeoutOptions)) core.Statement {
	opts := TimeoutOptions{
		Unit:         time.Millisecond,
		CaptureStack: true,
		GracePeriod:  -1,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Timeout <= 0 {
		return next
	}

	return &failOnTimeout{next: next, opts: opts}
}

// Evaluate implements core.Statement.
func (s *failOnTimeout) Evaluate(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	idCh := make(chan uint64, 1)

	go func() {
		idCh <- util.GoroutineID()
		done <- evaluate(workerCtx, s.next)
	}()

	timer := time.NewTimer(time.Duration(s.opts.Timeout) * s.opts.Unit)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return s.awaitWorker(done, ctx.Err())
	case <-timer.C:
	}

	// a result that raced the timer still wins
	select {
	case err := <-done:
		return err
	default:
	}

	timedOut := &core.TestTimedOutError{Timeout: s.opts.Timeout, Unit: s.opts.Unit}
	if s.opts.CaptureStack {
		timedOut.Stack = util.GoroutineStack(<-idCh)
	}

	cancel()

	// whatever the worker returns now is an artifact of the cancellation
	_ = s.awaitWorker(done, nil)

	return timedOut
}

func (s *failOnTimeout) gracePeriod() time.Duration {
	if s.opts.GracePeriod >= 0 {
		return s.opts.GracePeriod
	}

	return min(max(time.Duration(s.opts.Timeout)*s.opts.Unit/10, MinGracePeriod), MaxGracePeriod)
}

func (s *failOnTimeout) awaitWorker(done <-chan error, fallback error) error {
	grace := time.NewTimer(s.gracePeriod())
	defer grace.Stop()

	select {
	case err := <-done:
		return err
	case <-grace.C:
		return fallback
	}
}
