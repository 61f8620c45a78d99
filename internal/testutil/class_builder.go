package testutil

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/runner"
	"github.com/hupe1980/testmesh/statement"
)

// ClassBuilder provides a fluent helper for declaring test classes.
// Example:
//
//	class := NewClassBuilder("Calc").Pass("add").Fail("div", "boom").Build()
//
// Chain only the tests you need.
type ClassBuilder struct {
	class *runner.Class
}

// NewClassBuilder creates a builder for a class named name.
func NewClassBuilder(name string) *ClassBuilder {
	return &ClassBuilder{class: &runner.Class{Name: name}}
}

// Test adds a test with the given body (chainable).
func (b *ClassBuilder) Test(name string, body core.Fixture) *ClassBuilder {
	return b.Add(&runner.Test{Name: name, Body: body})
}

// Add appends a fully declared test (chainable).
func (b *ClassBuilder) Add(t *runner.Test) *ClassBuilder {
	b.class.Tests = append(b.class.Tests, t)
	return b
}

// Pass adds a test that succeeds (chainable).
func (b *ClassBuilder) Pass(names ...string) *ClassBuilder {
	for _, name := range names {
		b.Test(name, func(context.Context) error { return nil })
	}

	return b
}

// Fail adds a test failing with msg (chainable).
func (b *ClassBuilder) Fail(name, msg string) *ClassBuilder {
	return b.Test(name, func(context.Context) error { return errors.New(msg) })
}

// Sleep adds a test sleeping for d, or until its context is cancelled
// (chainable).
func (b *ClassBuilder) Sleep(name string, d time.Duration) *ClassBuilder {
	return b.Test(name, func(ctx context.Context) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// Ignore adds an ignored test (chainable).
func (b *ClassBuilder) Ignore(name string) *ClassBuilder {
	return b.Add(&runner.Test{Name: name, Ignored: true})
}

// Expect adds a test whose body must fail as described by e (chainable).
func (b *ClassBuilder) Expect(name string, e statement.Expectation, body core.Fixture) *ClassBuilder {
	return b.Add(&runner.Test{Name: name, Body: body, Expected: e})
}

// Before adds a per-test before fixture (chainable).
func (b *ClassBuilder) Before(f core.Fixture) *ClassBuilder {
	b.class.Before = append(b.class.Before, f)
	return b
}

// After adds a per-test after fixture (chainable).
func (b *ClassBuilder) After(f core.Fixture) *ClassBuilder {
	b.class.After = append(b.class.After, f)
	return b
}

// BeforeClass adds a class-level before fixture (chainable).
func (b *ClassBuilder) BeforeClass(f core.Fixture) *ClassBuilder {
	b.class.BeforeClass = append(b.class.BeforeClass, f)
	return b
}

// AfterClass adds a class-level after fixture (chainable).
func (b *ClassBuilder) AfterClass(f core.Fixture) *ClassBuilder {
	b.class.AfterClass = append(b.class.AfterClass, f)
	return b
}

// Rule adds a per-test rule (chainable).
func (b *ClassBuilder) Rule(r core.Rule) *ClassBuilder {
	b.class.Rules = append(b.class.Rules, r)
	return b
}

// ClassRule adds a class-level rule (chainable).
func (b *ClassBuilder) ClassRule(r core.Rule) *ClassBuilder {
	b.class.ClassRules = append(b.class.ClassRules, r)
	return b
}

// Build returns the declared class.
func (b *ClassBuilder) Build() *runner.Class { return b.class }
