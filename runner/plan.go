package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/manipulation"
	"github.com/hupe1980/testmesh/statement"
)

// TestPlan is everything needed to build the pipeline of one test.
type TestPlan struct {
	Befores  []core.Fixture
	Afters   []core.Fixture
	Invoke   core.Fixture
	Rules    []core.Rule
	Expected statement.Expectation
	Timeout  time.Duration
}

// PlanSupplier resolves the plan of an identified test. Runners never look
// at test code themselves; they only compose what the supplier returns.
type PlanSupplier interface {
	PlanFor(d *core.Description) (*TestPlan, error)
}

// PlanSupplierFunc adapts a function to the PlanSupplier interface.
type PlanSupplierFunc func(d *core.Description) (*TestPlan, error)

// PlanFor calls f(d).
func (f PlanSupplierFunc) PlanFor(d *core.Description) (*TestPlan, error) { return f(d) }

// Test declares one test of a Class.
type Test struct {
	Name string
	Body core.Fixture
	// Expected, if set, makes the test pass only when Body fails with a
	// matching error.
	Expected statement.Expectation
	// Timeout, if positive, fails the test when Body runs longer. On expiry
	// the context of Body is cancelled and the failure is reported after a
	// short grace period (at most 100ms). A Body ignoring its context keeps
	// running in the background after the report.
	Timeout time.Duration
	// Ignored tests are reported through testIgnored and never run.
	Ignored bool
	Befores []core.Fixture
	Afters  []core.Fixture
	Rules   []core.Rule
}

// Class declares a group of tests sharing fixtures, the unit a ClassRunner
// runs.
type Class struct {
	Name  string
	Tests []*Test

	// Before and After run around every test, before the test's own fixtures
	// and after them respectively.
	Before []core.Fixture
	After  []core.Fixture

	// BeforeClass and AfterClass run once around all tests.
	BeforeClass []core.Fixture
	AfterClass  []core.Fixture

	// Rules decorate every test, ClassRules decorate the class block.
	Rules      []core.Rule
	ClassRules []core.Rule

	// Ordering, if set, reorders the tests at build time.
	Ordering manipulation.Ordering

	// Validate contributes additional build-time checks.
	Validate func() []error
}

// UnitName implements Unit.
func (c *Class) UnitName() string { return c.Name }

// PlanFor implements PlanSupplier. Class-wide fixtures wrap the test's own:
// class befores run first, class afters run last.
func (c *Class) PlanFor(d *core.Description) (*TestPlan, error) {
	t := c.lookup(d)
	if t == nil {
		return nil, fmt.Errorf("no test %q in class %s", d.DisplayName(), c.Name)
	}

	plan := &TestPlan{
		Invoke:   t.Body,
		Expected: t.Expected,
		Timeout:  t.Timeout,
	}

	plan.Befores = append(append(plan.Befores, c.Before...), t.Befores...)
	plan.Afters = append(append(plan.Afters, t.Afters...), c.After...)
	plan.Rules = append(append(plan.Rules, t.Rules...), c.Rules...)

	return plan, nil
}

// lookup matches whole display names; class and method names may contain
// parentheses, so d's name is never split back into its parts.
func (c *Class) lookup(d *core.Description) *Test {
	name := d.DisplayName()

	for _, t := range c.Tests {
		if t != nil && core.FormatDisplayName(c.Name, t.Name) == name {
			return t
		}
	}

	return nil
}

// validate reports every structural problem of the class at once.
func (c *Class) validate() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, errors.New("class has no name"))
	}

	if len(c.Tests) == 0 {
		errs = append(errs, errors.New("no runnable tests"))
	}

	seen := map[string]bool{}

	for i, t := range c.Tests {
		if t == nil {
			errs = append(errs, fmt.Errorf("test #%d is nil", i))
			continue
		}

		switch {
		case t.Name == "":
			errs = append(errs, fmt.Errorf("test #%d has no name", i))
		case seen[t.Name]:
			errs = append(errs, fmt.Errorf("test %s is declared more than once", t.Name))
		}

		seen[t.Name] = true

		if t.Body == nil && !t.Ignored {
			errs = append(errs, fmt.Errorf("test %s has no body", t.Name))
		}

		if t.Timeout < 0 {
			errs = append(errs, fmt.Errorf("test %s has a negative timeout", t.Name))
		}

		errs = append(errs, checkFixtures("test "+t.Name+" before", t.Befores)...)
		errs = append(errs, checkFixtures("test "+t.Name+" after", t.Afters)...)
		errs = append(errs, checkRules("test "+t.Name+" rule", t.Rules)...)
	}

	errs = append(errs, checkFixtures("before", c.Before)...)
	errs = append(errs, checkFixtures("after", c.After)...)
	errs = append(errs, checkFixtures("before class", c.BeforeClass)...)
	errs = append(errs, checkFixtures("after class", c.AfterClass)...)
	errs = append(errs, checkRules("rule", c.Rules)...)
	errs = append(errs, checkRules("class rule", c.ClassRules)...)

	if c.Validate != nil {
		errs = append(errs, c.Validate()...)
	}

	return errs
}

func checkFixtures(kind string, fixtures []core.Fixture) []error {
	var errs []error

	for i, f := range fixtures {
		if f == nil {
			errs = append(errs, fmt.Errorf("%s fixture #%d is nil", kind, i))
		}
	}

	return errs
}

func checkRules(kind string, rules []core.Rule) []error {
	var errs []error

	for i, r := range rules {
		if r == nil {
			errs = append(errs, fmt.Errorf("%s #%d is nil", kind, i))
		}
	}

	return errs
}
