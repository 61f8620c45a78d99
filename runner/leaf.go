package runner

import (
	"context"
	"time"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/notification"
	"github.com/hupe1980/testmesh/statement"
)

// runLeaf runs the statement of one test. testStarted and testFinished are
// always fired as a pair; a stop request surfaces as the error of
// FireTestStarted, in which case nothing else is fired.
func runLeaf(ctx context.Context, stmt core.Statement, d *core.Description, n *notification.Notifier, log *loggerAdapter) error {
	if err := n.FireTestStarted(d); err != nil {
		return err
	}
	defer n.FireTestFinished(d)

	start := time.Now()
	err := evaluate(ctx, stmt)

	switch {
	case err == nil:
	case core.IsAssumptionViolated(err):
		n.FireTestAssumptionFailed(core.NewFailure(d, err))
	default:
		reportFailure(n, d, err)
	}

	log.LogTest(d, time.Since(start), err)

	return nil
}

// reportFailure fires one failure per error contained in err.
func reportFailure(n *notification.Notifier, d *core.Description, err error) {
	for _, e := range core.Errors(err) {
		n.FireTestFailure(core.NewFailure(d, e))
	}
}

func evaluate(ctx context.Context, s core.Statement) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.FromPanic(r)
		}
	}()

	return s.Evaluate(ctx)
}

// buildStatement composes the pipeline of one test from its plan, innermost
// first: invoke, expected error, rules, befores, afters, timeout.
func buildStatement(plan *TestPlan, d *core.Description) core.Statement {
	s := statement.Invoke(plan.Invoke)

	if plan.Expected != nil {
		s = statement.ExpectError(s, plan.Expected)
	}

	s = statement.WithRules(s, plan.Rules, d)
	s = statement.RunBefores(s, plan.Befores)
	s = statement.RunAfters(s, plan.Afters)

	if plan.Timeout > 0 {
		s = statement.FailOnTimeout(s, statement.WithDuration(plan.Timeout))
	}

	return s
}

// TestRunner is an atomic runner executing a single test whose plan comes
// from a PlanSupplier.
type TestRunner struct {
	desc     *core.Description
	supplier PlanSupplier
	ignored  bool
	*loggerAdapter
}

// NewTestRunner creates a runner for the test d. The plan is requested from
// supplier when the runner runs.
func NewTestRunner(d *core.Description, supplier PlanSupplier, optFns ...func(o *Options)) *TestRunner {
	opts := newOptions(optFns...)

	return &TestRunner{desc: d, supplier: supplier, loggerAdapter: newLoggerAdapter(opts.Logger)}
}

// Ignore marks the test as ignored; it is then reported via testIgnored.
func (r *TestRunner) Ignore() *TestRunner {
	r.ignored = true
	return r
}

// Description implements Runner.
func (r *TestRunner) Description() *core.Description { return r.desc }

// TestCount implements Runner.
func (r *TestRunner) TestCount() int { return 1 }

// Run implements Runner.
func (r *TestRunner) Run(ctx context.Context, n *notification.Notifier) error {
	if r.ignored {
		return n.FireTestIgnored(r.desc)
	}

	return runLeaf(ctx, planStatement(r.supplier, r.desc), r.desc, n, r.loggerAdapter)
}

func planStatement(supplier PlanSupplier, d *core.Description) core.Statement {
	plan, err := supplier.PlanFor(d)
	if err != nil {
		return statement.Fail(err)
	}

	return buildStatement(plan, d)
}
