package parallel

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool is a bounded set of execution slots. Waiters are served in FIFO
// order. InUse is updated atomically so it can be read while parents on
// many goroutines acquire and release slots.
type Pool struct {
	name  string
	size  int
	sem   *semaphore.Weighted
	inUse atomic.Int64
}

// NewPool creates a pool named name with size slots.
func NewPool(name string, size int) *Pool {
	return &Pool{name: name, size: size, sem: semaphore.NewWeighted(int64(size))}
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Size returns the number of slots.
func (p *Pool) Size() int { return p.size }

// InUse returns the number of slots currently taken.
func (p *Pool) InUse() int { return int(p.inUse.Load()) }

// Available returns the number of free slots.
func (p *Pool) Available() int { return p.size - p.InUse() }

// Acquire takes a slot, blocking until one is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	if p == nil {
		return nil
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	p.inUse.Add(1)

	return nil
}

// TryAcquire takes a slot if one is free without waiting.
func (p *Pool) TryAcquire() bool {
	if p == nil {
		return true
	}

	if !p.sem.TryAcquire(1) {
		return false
	}

	p.inUse.Add(1)

	return true
}

// Release returns a slot.
func (p *Pool) Release() {
	if p == nil {
		return
	}

	p.inUse.Add(-1)
	p.sem.Release(1)
}
