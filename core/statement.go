package core

import "context"

// Statement is one step of test execution. Statements are built fresh for
// every test invocation by decorating a base invocation and are owned by the
// runner that evaluates them.
type Statement interface {
	Evaluate(ctx context.Context) error
}

// StatementFunc adapts a function to the Statement interface.
type StatementFunc func(ctx context.Context) error

// Evaluate calls f(ctx).
func (f StatementFunc) Evaluate(ctx context.Context) error { return f(ctx) }

// Fixture is a before/after closure at test or class level, or the test body
// itself.
type Fixture func(ctx context.Context) error

// Rule decorates the statement of a test (or of a whole class) described by d.
type Rule interface {
	Apply(base Statement, d *Description) Statement
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(base Statement, d *Description) Statement

// Apply calls f(base, d).
func (f RuleFunc) Apply(base Statement, d *Description) Statement { return f(base, d) }

// RunnerScheduler executes the children of a composite runner.
//
// Schedule is called once per child. Finished is called once after every
// child was scheduled and must not return before all scheduled work has
// completed. An error from Finished means scheduling was aborted.
type RunnerScheduler interface {
	Schedule(ctx context.Context, work func(ctx context.Context))
	Finished(ctx context.Context) error
}
