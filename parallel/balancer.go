package parallel

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Balancer caps the concurrency of one level when the pool is shared. A nil
// Balancer imposes no limit.
type Balancer struct {
	limit int
	sem   *semaphore.Weighted
}

// NewBalancer returns a Balancer admitting limit concurrent holders, or nil
// for Unbounded.
func NewBalancer(limit int) *Balancer {
	if limit >= Unbounded {
		return nil
	}

	return &Balancer{limit: limit, sem: semaphore.NewWeighted(int64(limit))}
}

// Limit returns the configured limit, Unbounded for a nil Balancer.
func (b *Balancer) Limit() int {
	if b == nil {
		return Unbounded
	}

	return b.limit
}

// Acquire takes a permit, blocking until one is free or ctx is done.
func (b *Balancer) Acquire(ctx context.Context) error {
	if b == nil {
		return nil
	}

	return b.sem.Acquire(ctx, 1)
}

// TryAcquire takes a permit if one is free without waiting.
func (b *Balancer) TryAcquire() bool {
	return b == nil || b.sem.TryAcquire(1)
}

// Release returns a permit.
func (b *Balancer) Release() {
	if b != nil {
		b.sem.Release(1)
	}
}
