package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/testmesh/core"
)

type collectorKey struct{}

// Collector gathers errors during one test so the test can keep going after
// a failed check. Obtain it with CollectorFrom.
type Collector struct {
	mu   sync.Mutex
	errs []error
}

// AddError records err. Nil is ignored; a violated assumption is recorded
// as a plain failure since it can no longer skip the test.
func (c *Collector) AddError(err error) {
	if err == nil {
		return
	}

	if core.IsAssumptionViolated(err) {
		err = &core.AssertionError{Message: "assumption violated during collection: " + err.Error()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.errs = append(c.errs, err)
}

// Check records a failure built from format unless cond holds.
func (c *Collector) Check(cond bool, format string, args ...any) {
	if !cond {
		c.AddError(&core.AssertionError{Message: fmt.Sprintf(format, args...)})
	}
}

// CheckSucceeds calls fn and records its error, if any.
func (c *Collector) CheckSucceeds(fn func() error) {
	c.AddError(fn())
}

// Errors returns the errors recorded so far.
func (c *Collector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]error, len(c.errs))
	copy(out, c.errs)

	return out
}

// CollectorFrom returns the Collector of the running test. It returns nil
// when ErrorCollector was not applied.
func CollectorFrom(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey{}).(*Collector)
	return c
}

// ErrorCollector gives every test a fresh Collector in its context and
// reports all recorded errors after the test's own error once it finishes.
var ErrorCollector core.Rule = core.RuleFunc(func(base core.Statement, _ *core.Description) core.Statement {
	return core.StatementFunc(func(ctx context.Context) error {
		c := &Collector{}

		var errs []error

		if err := base.Evaluate(context.WithValue(ctx, collectorKey{}, c)); err != nil {
			errs = append(errs, err)
		}

		errs = append(errs, c.Errors()...)

		return core.MultipleFailures(errs)
	})
})
