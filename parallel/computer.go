package parallel

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/notification"
	"github.com/hupe1980/testmesh/runner"
)

// Computer wires level schedulers into runner trees and controls the runs
// executing on them. Create one with Builder.BuildComputer.
type Computer struct {
	levels [3]*level
	pools  []*Pool

	inFlight *xsync.MapOf[*core.Description, struct{}]
	shutdown atomic.Bool

	interruptCtx context.Context
	interrupt    context.CancelFunc

	*loggerAdapter
}

func newComputer(levels [3]*level, pools []*Pool, log *loggerAdapter) *Computer {
	ctx, cancel := context.WithCancel(context.Background())

	return &Computer{
		levels:        levels,
		pools:         pools,
		inFlight:      xsync.NewMapOf[*core.Description, struct{}](),
		interruptCtx:  ctx,
		interrupt:     cancel,
		loggerAdapter: log,
	}
}

// Pools returns the pools of the computer: one when shared, one per
// parallel level otherwise.
func (c *Computer) Pools() []*Pool { return slices.Clone(c.pools) }

// Limit returns the concurrency limit of lvl; 0 means sequential.
func (c *Computer) Limit(lvl Level) int { return c.levels[lvl].limit }

// Suite returns a runner named name over runners. Suites among runners run
// at the suites level, the other runners at the classes level; when both
// levels are parallel the two groups run at the same time. Children of
// suites are scheduled at the classes level and tests of classes at the
// methods level.
func (c *Computer) Suite(name string, runners ...runner.Runner) runner.Runner {
	root := &rootRunner{computer: c}

	descs := make([]*core.Description, 0, len(runners))

	for _, r := range runners {
		if _, ok := r.(*runner.Suite); ok {
			root.suites = append(root.suites, r)
		} else {
			root.classes = append(root.classes, r)
		}

		c.wire(r)
		descs = append(descs, r.Description())
	}

	root.desc = core.NewSuiteDescription(name, descs...)

	return root
}

// wire installs the schedulers of r and its descendants.
func (c *Computer) wire(r runner.Runner) {
	switch v := r.(type) {
	case *runner.Suite:
		v.SetScheduler(c.newScheduler(LevelClasses))

		for _, child := range v.Children() {
			c.wire(child)
		}
	case *runner.ClassRunner:
		v.SetScheduler(c.newScheduler(LevelMethods))
	case runner.Schedulable:
		v.SetScheduler(c.newScheduler(LevelMethods))
	}
}

// Shutdown stops scheduling new work and returns the tests that have
// started but not finished. With useInterrupt the context of every running
// work is cancelled as well; otherwise running tests complete normally.
func (c *Computer) Shutdown(useInterrupt bool) []*core.Description {
	c.shutdown.Store(true)

	var running []*core.Description

	c.inFlight.Range(func(d *core.Description, _ struct{}) bool {
		running = append(running, d)
		return true
	})

	slices.SortFunc(running, func(a, b *core.Description) int {
		return cmp.Compare(a.DisplayName(), b.DisplayName())
	})

	if useInterrupt {
		c.interrupt()
	}

	c.LogDebug("computer shut down", "interrupt", useInterrupt, "inFlight", len(running))

	return running
}

// IsShutdown reports whether Shutdown was called.
func (c *Computer) IsShutdown() bool { return c.isShutdown() }

func (c *Computer) isShutdown() bool { return c.shutdown.Load() }

// rootRunner is the runner returned by Computer.Suite.
type rootRunner struct {
	computer *Computer
	desc     *core.Description
	suites   []runner.Runner
	classes  []runner.Runner
}

func (r *rootRunner) Description() *core.Description { return r.desc }

func (r *rootRunner) TestCount() int { return r.desc.TestCount() }

func (r *rootRunner) Run(ctx context.Context, n *notification.Notifier) error {
	c := r.computer

	start := time.Now()
	defer func() {
		c.LogRun(r.desc.DisplayName(), time.Since(start), map[string]any{
			"tests": r.TestCount(),
			"pools": len(c.pools),
		})
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(c.interruptCtx, cancel)
	defer stop()

	tracker := &inFlightTracker{inFlight: c.inFlight}
	n.AddListener(tracker)

	defer n.RemoveListener(tracker)

	suitesParallel := c.levels[LevelSuites].limit != 0 && len(r.suites) > 0
	classesParallel := c.levels[LevelClasses].limit != 0 && len(r.classes) > 0

	if suitesParallel && classesParallel {
		var (
			wg        sync.WaitGroup
			suitesErr error
		)

		wg.Add(1)

		go func() {
			defer wg.Done()
			suitesErr = r.runGroup(ctx, n, LevelSuites, r.suites)
		}()

		classesErr := r.runGroup(ctx, n, LevelClasses, r.classes)

		wg.Wait()

		if errors.Is(suitesErr, core.ErrStoppedByUser) || errors.Is(classesErr, core.ErrStoppedByUser) {
			return core.ErrStoppedByUser
		}

		return nil
	}

	if err := r.runGroup(ctx, n, LevelSuites, r.suites); err != nil {
		return err
	}

	return r.runGroup(ctx, n, LevelClasses, r.classes)
}

func (r *rootRunner) runGroup(ctx context.Context, n *notification.Notifier, lvl Level, runners []runner.Runner) error {
	if len(runners) == 0 {
		return nil
	}

	scheduler := r.computer.newScheduler(lvl)

	var stopped atomic.Bool

	for _, child := range runners {
		if stopped.Load() || n.IsStopped() {
			stopped.Store(true)
			break
		}

		scheduler.Schedule(ctx, func(ctx context.Context) {
			if err := child.Run(ctx, n); errors.Is(err, core.ErrStoppedByUser) {
				stopped.Store(true)
			}
		})
	}

	if err := scheduler.Finished(ctx); err != nil {
		return err
	}

	if stopped.Load() {
		return core.ErrStoppedByUser
	}

	return nil
}

// inFlightTracker records the tests that started and have not finished.
type inFlightTracker struct {
	notification.BaseListener
	inFlight *xsync.MapOf[*core.Description, struct{}]
}

func (t *inFlightTracker) ConcurrencySafe() bool { return true }

func (t *inFlightTracker) TestStarted(d *core.Description) error {
	t.inFlight.Store(d, struct{}{})
	return nil
}

func (t *inFlightTracker) TestFinished(d *core.Description) error {
	t.inFlight.Delete(d)
	return nil
}
