package runner

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SequentialScheduler runs every child inline on the calling goroutine.
type SequentialScheduler struct{}

// Schedule runs work immediately.
func (SequentialScheduler) Schedule(ctx context.Context, work func(ctx context.Context)) {
	work(ctx)
}

// Finished returns nil; every child already ran.
func (SequentialScheduler) Finished(context.Context) error { return nil }

// PooledScheduler runs children on goroutines, at most limit at a time.
// Schedule blocks while the limit is reached. A limit <= 0 means unbounded.
type PooledScheduler struct {
	limit int

	mu    sync.Mutex
	group *errgroup.Group
}

// NewPooledScheduler creates a PooledScheduler.
func NewPooledScheduler(limit int) *PooledScheduler {
	if limit <= 0 {
		limit = -1
	}

	s := &PooledScheduler{limit: limit}
	s.group = s.newGroup()

	return s
}

func (s *PooledScheduler) newGroup() *errgroup.Group {
	g := &errgroup.Group{}
	g.SetLimit(s.limit)

	return g
}

// Schedule implements core.RunnerScheduler.
func (s *PooledScheduler) Schedule(ctx context.Context, work func(ctx context.Context)) {
	s.mu.Lock()
	g := s.group
	s.mu.Unlock()

	g.Go(func() error {
		work(ctx)
		return nil
	})
}

// Finished waits for every child scheduled so far.
func (s *PooledScheduler) Finished(context.Context) error {
	s.mu.Lock()
	g := s.group
	s.group = s.newGroup()
	s.mu.Unlock()

	return g.Wait()
}
