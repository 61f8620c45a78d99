package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/manipulation"
	"github.com/hupe1980/testmesh/notification"
	"github.com/hupe1980/testmesh/statement"
)

// ChildStrategy tells a ParentRunner how to describe and run one child.
type ChildStrategy[T any] interface {
	// DescribeChild returns the Description of child. It must return the same
	// value for the same child while its subtree is unchanged.
	DescribeChild(child T) *core.Description
	// RunChild runs child, firing its events on n. It returns only
	// core.ErrStoppedByUser.
	RunChild(ctx context.Context, child T, n *notification.Notifier) error
	// IsIgnored reports whether child will be skipped without running.
	IsIgnored(child T) bool
}

// ParentOptions configures a ParentRunner.
type ParentOptions struct {
	Options
	BeforeClass []core.Fixture
	AfterClass  []core.Fixture
	ClassRules  []core.Rule
}

// ParentRunner is a composite runner whose children are of type T.
//
// What a child is and how it runs is delegated to a ChildStrategy, so the
// same composite serves classes (children are tests) and suites (children
// are runners). The children are executed by a core.RunnerScheduler inside
// the class block:
//
//	class rules( afterClass( beforeClass( schedule children; Finished ) ) )
//
// Key features:
//   - Class-level fixtures run once, outside any child-level concurrency
//   - Children are pruned, sorted and reordered in place before the run
//   - The Description is rebuilt after every tree manipulation
//   - A stop request stops scheduling further children
//
// A ParentRunner is run at most once; it is not reused afterwards.
type ParentRunner[T any] struct {
	name     string
	strategy ChildStrategy[T]

	mu        sync.Mutex // guards children, desc and scheduler
	children  []T
	desc      *core.Description
	scheduler core.RunnerScheduler

	beforeClass []core.Fixture
	afterClass  []core.Fixture
	classRules  []core.Rule

	*loggerAdapter
}

// NewParentRunner creates a composite runner named name.
func NewParentRunner[T any](name string, children []T, strategy ChildStrategy[T], optFns ...func(o *ParentOptions)) *ParentRunner[T] {
	opts := ParentOptions{Options: newOptions()}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ParentRunner[T]{
		name:          name,
		strategy:      strategy,
		children:      slices.Clone(children),
		scheduler:     opts.Scheduler,
		beforeClass:   opts.BeforeClass,
		afterClass:    opts.AfterClass,
		classRules:    opts.ClassRules,
		loggerAdapter: newLoggerAdapter(opts.Logger),
	}
}

// Name returns the display name of the composite.
func (p *ParentRunner[T]) Name() string { return p.name }

// Description implements Runner.
func (p *ParentRunner[T]) Description() *core.Description {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.describeLocked()
}

func (p *ParentRunner[T]) describeLocked() *core.Description {
	if p.desc == nil {
		descs := make([]*core.Description, 0, len(p.children))
		for _, c := range p.children {
			descs = append(descs, p.strategy.DescribeChild(c))
		}

		p.desc = core.NewSuiteDescription(p.name, descs...)
	}

	return p.desc
}

// TestCount implements Runner.
func (p *ParentRunner[T]) TestCount() int { return p.Description().TestCount() }

// Children returns a snapshot of the current children.
func (p *ParentRunner[T]) Children() []T {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.children)
}

// SetScheduler implements Schedulable.
func (p *ParentRunner[T]) SetScheduler(s core.RunnerScheduler) {
	if s == nil {
		s = SequentialScheduler{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.scheduler = s
}

// Scheduler returns the scheduler executing the children.
func (p *ParentRunner[T]) Scheduler() core.RunnerScheduler {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.scheduler
}

// Filter implements manipulation.Filterable. Children the filter rejects are
// dropped; the others are filtered recursively and dropped in turn if they
// end up empty. When no child is left a *core.NoTestsRemainError is returned.
func (p *ParentRunner[T]) Filter(f manipulation.Filter) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := make([]T, 0, len(p.children))

	for _, child := range p.children {
		if !f.ShouldRun(p.strategy.DescribeChild(child)) {
			continue
		}

		if err := manipulation.ApplyFilter(f, child); err != nil {
			if manipulation.IsNoTestsRemain(err) {
				continue
			}

			return err
		}

		kept = append(kept, child)
	}

	p.children = kept
	p.desc = nil

	if len(kept) == 0 {
		return &core.NoTestsRemainError{Filter: f.Describe()}
	}

	return nil
}

// Sort implements manipulation.Sortable. The sorter is offered to every
// child, then the immediate children are sorted stably.
func (p *ParentRunner[T]) Sort(s *manipulation.Sorter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, child := range p.children {
		s.Apply(child)
	}

	slices.SortStableFunc(p.children, func(a, b T) int {
		return s.Compare(p.strategy.DescribeChild(a), p.strategy.DescribeChild(b))
	})

	p.desc = nil
}

// OrderWith implements manipulation.Orderable. Children are ordered first,
// then the validated ordering of the immediate children is applied. On error
// the immediate children keep their order, but descendants already ordered
// before the error stay reordered.
func (p *ParentRunner[T]) OrderWith(o *manipulation.Orderer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, child := range p.children {
		if err := o.Apply(child); err != nil {
			return err
		}
	}

	descs := make([]*core.Description, 0, len(p.children))
	byKey := make(map[string][]T, len(p.children))

	for _, child := range p.children {
		d := p.strategy.DescribeChild(child)
		descs = append(descs, d)
		byKey[d.Key()] = append(byKey[d.Key()], child)
	}

	ordered, err := o.Order(descs)
	if err != nil {
		return err
	}

	next := make([]T, 0, len(ordered))

	for _, d := range ordered {
		queue := byKey[d.Key()]
		next = append(next, queue[0])
		byKey[d.Key()] = queue[1:]
	}

	p.children = next
	p.desc = nil

	return nil
}

// Run implements Runner.
func (p *ParentRunner[T]) Run(ctx context.Context, n *notification.Notifier) error {
	d := p.Description()

	err := evaluate(ctx, p.classBlock(d, n))
	if err == nil {
		return nil
	}

	rest, stopped := splitStop(err)

	if len(rest) > 0 {
		cause := core.MultipleFailures(rest)

		if core.IsAssumptionViolated(cause) {
			n.FireTestAssumptionFailed(core.NewFailure(d, cause))
		} else {
			reportFailure(n, d, cause)
		}
	}

	if stopped {
		return core.ErrStoppedByUser
	}

	return nil
}

func (p *ParentRunner[T]) classBlock(d *core.Description, n *notification.Notifier) core.Statement {
	s := p.childrenInvoker(n)

	if p.allChildrenIgnored() {
		return s
	}

	s = statement.RunBefores(s, p.beforeClass)
	s = statement.RunAfters(s, p.afterClass)
	s = statement.WithRules(s, p.classRules, d)

	return s
}

func (p *ParentRunner[T]) childrenInvoker(n *notification.Notifier) core.Statement {
	return core.StatementFunc(func(ctx context.Context) error {
		children := p.Children()
		scheduler := p.Scheduler()

		var stopped atomic.Bool

		for _, child := range children {
			if stopped.Load() || n.IsStopped() {
				stopped.Store(true)
				break
			}

			scheduler.Schedule(ctx, func(ctx context.Context) {
				if err := p.strategy.RunChild(ctx, child, n); errors.Is(err, core.ErrStoppedByUser) {
					stopped.Store(true)
				}
			})
		}

		p.LogDebug("children scheduled", "runner", p.name, "count", len(children))

		if err := scheduler.Finished(ctx); err != nil {
			return fmt.Errorf("scheduler of %s failed: %w", p.name, err)
		}

		if stopped.Load() {
			return core.ErrStoppedByUser
		}

		return nil
	})
}

func (p *ParentRunner[T]) allChildrenIgnored() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.children) == 0 {
		return false
	}

	for _, c := range p.children {
		if !p.strategy.IsIgnored(c) {
			return false
		}
	}

	return true
}

// splitStop separates the stop signal from the other errors in err.
func splitStop(err error) ([]error, bool) {
	var (
		rest    []error
		stopped bool
	)

	for _, e := range core.Errors(err) {
		if errors.Is(e, core.ErrStoppedByUser) {
			stopped = true
			continue
		}

		rest = append(rest, e)
	}

	return rest, stopped
}
