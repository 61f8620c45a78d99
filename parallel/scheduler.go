package parallel

import (
	"context"
	"sync"

	"github.com/hupe1980/testmesh/core"
)

// Level names one granularity of the runner tree.
type Level int

const (
	// LevelSuites schedules the suites given to Computer.Suite.
	LevelSuites Level = iota
	// LevelClasses schedules classes and the children of suites.
	LevelClasses
	// LevelMethods schedules the tests of a class.
	LevelMethods
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelSuites:
		return "suites"
	case LevelClasses:
		return "classes"
	case LevelMethods:
		return "methods"
	default:
		return "unknown"
	}
}

// level is the capacity one Level draws from.
type level struct {
	Level
	limit    int
	balancer *Balancer
	pool     *Pool
}

type heldKey struct{}

// held is the capacity owned by the work running with a context.
type held struct {
	balancer *Balancer
	pool     *Pool
}

func heldFrom(ctx context.Context) held {
	h, _ := ctx.Value(heldKey{}).(held)
	return h
}

func withHeld(ctx context.Context, h held) context.Context {
	return context.WithValue(ctx, heldKey{}, h)
}

// yield releases the part of h that the work of lvl competes for and
// returns it, so it can be taken back with reclaim.
func (h held) yield(lvl *level) held {
	var out held

	if h.balancer != nil && h.balancer == lvl.balancer {
		h.balancer.Release()
		out.balancer = h.balancer
	}

	if h.pool != nil && h.pool == lvl.pool {
		h.pool.Release()
		out.pool = h.pool
	}

	return out
}

// reclaim takes back what yield released. It cannot be cancelled: the owner
// releases the capacity again when its work completes.
func (h held) reclaim(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	_ = h.balancer.Acquire(ctx)
	_ = h.pool.Acquire(ctx)
}

// levelScheduler runs the children of one composite on their own goroutines
// within the capacity of its level.
type levelScheduler struct {
	computer *Computer
	level    *level
	wg       sync.WaitGroup
}

var _ core.RunnerScheduler = (*levelScheduler)(nil)

// Schedule takes a permit for work on the calling goroutine, so children
// start in the order they were scheduled, then runs work on a new goroutine.
// Nothing is scheduled once the computer is shutting down.
func (s *levelScheduler) Schedule(ctx context.Context, work func(ctx context.Context)) {
	if s.computer.isShutdown() {
		return
	}

	yielded, err := s.acquire(ctx)
	// the child must be running before the parent takes its capacity back
	defer yielded.reclaim(ctx)

	if err != nil {
		s.computer.LogDebug("child not scheduled", "level", s.level.String(), "error", err)
		return
	}

	if s.computer.isShutdown() {
		s.release()
		return
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer s.release()

		work(withHeld(ctx, held{balancer: s.level.balancer, pool: s.level.pool}))
	}()
}

// Finished waits for every scheduled child. The waiting parent yields the
// capacity its children need meanwhile.
func (s *levelScheduler) Finished(ctx context.Context) error {
	yielded := heldFrom(ctx).yield(s.level)
	s.wg.Wait()
	yielded.reclaim(ctx)

	return nil
}

// acquire takes a permit of the level. If it has to wait, the capacity the
// parent yields meanwhile is returned for the caller to reclaim.
func (s *levelScheduler) acquire(ctx context.Context) (held, error) {
	if s.tryAcquire() {
		return held{}, nil
	}

	yielded := heldFrom(ctx).yield(s.level)

	if err := s.level.balancer.Acquire(ctx); err != nil {
		return yielded, err
	}

	if err := s.level.pool.Acquire(ctx); err != nil {
		s.level.balancer.Release()
		return yielded, err
	}

	return yielded, nil
}

func (s *levelScheduler) tryAcquire() bool {
	if !s.level.balancer.TryAcquire() {
		return false
	}

	if !s.level.pool.TryAcquire() {
		s.level.balancer.Release()
		return false
	}

	return true
}

func (s *levelScheduler) release() {
	s.level.pool.Release()
	s.level.balancer.Release()
}

// inlineScheduler runs children on the calling goroutine, as long as the
// computer is not shutting down.
type inlineScheduler struct {
	computer *Computer
}

func (s inlineScheduler) Schedule(ctx context.Context, work func(ctx context.Context)) {
	if !s.computer.isShutdown() {
		work(ctx)
	}
}

func (s inlineScheduler) Finished(context.Context) error { return nil }

// newScheduler returns the scheduler for the children of one composite at
// lvl. A level without parallelism runs its children inline.
func (c *Computer) newScheduler(lvl Level) core.RunnerScheduler {
	l := c.levels[lvl]
	if l.limit == 0 {
		return inlineScheduler{computer: c}
	}

	return &levelScheduler{computer: c, level: l}
}
