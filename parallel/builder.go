package parallel

import (
	"fmt"
	"math"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/hupe1980/testmesh/logging"
)

// Unbounded removes the limit of a level.
const Unbounded = math.MaxInt

// Builder configures a Computer. Every level runs sequentially unless a
// limit is set for it.
//
// Key features:
//   - One shared pool, where level limits are upper bounds on top of the
//     pool size, or a dedicated pool per level sized by its limit
//   - Limits per level for suites, classes and test methods
//   - Configuration errors are collected and reported by BuildComputer
type Builder struct {
	onePool  bool
	poolSize int
	limits   [3]int
	logger   logging.Logger
	errs     *multierror.Error
}

// NewBuilder creates a Builder with separate pools and every level
// sequential.
func NewBuilder() *Builder {
	return &Builder{logger: logging.NoOpLogger{}}
}

// UseOnePool makes every level draw from one pool of size slots. Use
// Unbounded for a pool without limit.
func (b *Builder) UseOnePool(size int) *Builder {
	if size < 1 {
		b.errs = multierror.Append(b.errs, fmt.Errorf("shared pool size must be at least 1, got %d", size))
		return b
	}

	b.onePool = true
	b.poolSize = size

	return b
}

// UseSeparatePools gives every parallel level its own pool.
func (b *Builder) UseSeparatePools() *Builder {
	b.onePool = false
	b.poolSize = 0

	return b
}

// ParallelSuites sets how many suites run at once.
func (b *Builder) ParallelSuites(n int) *Builder { return b.limit(LevelSuites, n) }

// ParallelClasses sets how many classes run at once.
func (b *Builder) ParallelClasses(n int) *Builder { return b.limit(LevelClasses, n) }

// ParallelMethods sets how many tests of one class run at once.
func (b *Builder) ParallelMethods(n int) *Builder { return b.limit(LevelMethods, n) }

// WithLogger sets the logger of the computer.
func (b *Builder) WithLogger(l logging.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) limit(lvl Level, n int) *Builder {
	if n < 0 {
		b.errs = multierror.Append(b.errs, fmt.Errorf("parallel %s must not be negative, got %d", lvl, n))
		return b
	}

	b.limits[lvl] = n

	return b
}

// BuildComputer validates the configuration and creates the Computer.
func (b *Builder) BuildComputer() (*Computer, error) {
	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid parallel computer configuration: %w", err)
	}

	var (
		levels [3]*level
		pools  []*Pool
		shared *Pool
	)

	if b.onePool {
		shared = NewPool("shared", b.poolSize)
		pools = append(pools, shared)
	}

	for i := range levels {
		lvl := Level(i)
		l := &level{Level: lvl, limit: b.limits[i]}

		switch {
		case l.limit == 0:
		case shared != nil:
			l.pool = shared
			l.balancer = NewBalancer(l.limit)
		default:
			l.pool = NewPool(lvl.String(), l.limit)
			pools = append(pools, l.pool)
		}

		levels[i] = l
	}

	log := newLoggerAdapter(b.logger)
	log.LogDebug("parallel computer built", "onePool", b.onePool, "poolSize", b.poolSize,
		"suites", b.limits[LevelSuites], "classes", b.limits[LevelClasses], "methods", b.limits[LevelMethods])

	return newComputer(levels, pools, log), nil
}

// loggerAdapter wraps a logging.Logger and guarantees a non-nil logger.
type loggerAdapter struct {
	logger logging.Logger
}

func newLoggerAdapter(l logging.Logger) *loggerAdapter {
	if l == nil {
		l = logging.NoOpLogger{}
	}

	return &loggerAdapter{logger: l}
}

func (l *loggerAdapter) LogDebug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

type performanceLogger interface {
	LogPerformance(op string, dur time.Duration, metrics map[string]any)
}

// LogRun records the duration of a parallel run.
func (l *loggerAdapter) LogRun(name string, dur time.Duration, metrics map[string]any) {
	if pl, ok := l.logger.(performanceLogger); ok {
		pl.LogPerformance("parallel run "+name, dur, metrics)
		return
	}

	l.logger.Debug("parallel run finished", "suite", name, "duration", dur)
}
