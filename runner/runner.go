package runner

import (
	"context"
	"time"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/logging"
	"github.com/hupe1980/testmesh/notification"
)

// Runner runs the tests described by its Description.
//
// Run reports every test outcome through n and never returns an error for
// them; the only error it returns is core.ErrStoppedByUser once a stop was
// requested on n.
type Runner interface {
	Description() *core.Description
	Run(ctx context.Context, n *notification.Notifier) error
	TestCount() int
}

// Schedulable is implemented by runners whose children are executed through
// a replaceable core.RunnerScheduler.
type Schedulable interface {
	SetScheduler(s core.RunnerScheduler)
}

// Options holds configuration shared by the runners of this package.
type Options struct {
	// Logger receives debug output about scheduling and test outcomes.
	Logger logging.Logger
	// Scheduler executes the children of composite runners. Defaults to
	// SequentialScheduler.
	Scheduler core.RunnerScheduler
}

func newOptions(optFns ...func(o *Options)) Options {
	opts := Options{
		Logger:    logging.NoOpLogger{},
		Scheduler: SequentialScheduler{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

// loggerAdapter wraps a logging.Logger and exposes convenience methods
// (LogDebug/LogWarn). It guarantees a non-nil logger by substituting a
// NoOpLogger when constructed with nil.
type loggerAdapter struct {
	logger logging.Logger
}

func newLoggerAdapter(l logging.Logger) *loggerAdapter {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &loggerAdapter{logger: l}
}

// Logger returns the underlying logger.
func (l *loggerAdapter) Logger() logging.Logger {
	return l.logger
}

func (l *loggerAdapter) LogDebug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *loggerAdapter) LogWarn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

type testExecutionLogger interface {
	LogTestExecution(test string, dur time.Duration, success bool, err error)
}

// LogTest records the outcome of one test, through LogTestExecution when
// the logger supports it.
func (l *loggerAdapter) LogTest(d *core.Description, dur time.Duration, err error) {
	if tl, ok := l.logger.(testExecutionLogger); ok {
		tl.LogTestExecution(d.DisplayName(), dur, err == nil, err)
		return
	}

	l.logger.Debug("test finished", "test", d.DisplayName(), "duration", dur, "success", err == nil)
}

type timingLogger interface {
	StartTimer(op string) func()
}

// StartTimer returns a func logging the time elapsed since the call, through
// the logger's own StartTimer when it has one.
func (l *loggerAdapter) StartTimer(op string) func() {
	if tl, ok := l.logger.(timingLogger); ok {
		return tl.StartTimer(op)
	}

	start := time.Now()

	return func() { l.logger.Debug("operation completed", "operation", op, "duration", time.Since(start)) }
}
