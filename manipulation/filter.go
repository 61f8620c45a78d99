package manipulation

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hupe1980/testmesh/core"
)

// Filter decides which tests run.
//
// ShouldRun is called with leaves and with composites; a composite should
// pass if any of its leaves would, so that its runner gets the chance to
// prune its own children.
type Filter interface {
	ShouldRun(d *core.Description) bool
	Describe() string
}

// Filterable is implemented by runners that can be pruned in place. Filter
// returns a *core.NoTestsRemainError when no child is left.
type Filterable interface {
	Filter(f Filter) error
}

// ApplyFilter filters target if it is Filterable and does nothing otherwise.
func ApplyFilter(f Filter, target any) error {
	if ft, ok := target.(Filterable); ok {
		return ft.Filter(f)
	}

	return nil
}

// IsNoTestsRemain reports whether err signals an emptied composite.
func IsNoTestsRemain(err error) bool {
	var nt *core.NoTestsRemainError
	return errors.As(err, &nt)
}

type allFilter struct{}

func (allFilter) ShouldRun(*core.Description) bool { return true }
func (allFilter) Describe() string                 { return "all tests" }

// All lets every test run.
var All Filter = allFilter{}

type leafFilter struct {
	describe string
	pred     func(*core.Description) bool
}

// LeafFilter builds a Filter from a predicate over leaves. Composites pass
// when any of their leaves passes.
func LeafFilter(describe string, pred func(*core.Description) bool) Filter {
	return &leafFilter{describe: describe, pred: pred}
}

func (f *leafFilter) ShouldRun(d *core.Description) bool {
	if d.IsTest() {
		return f.pred(d)
	}

	for _, c := range d.Children() {
		if f.ShouldRun(c) {
			return true
		}
	}

	return false
}

func (f *leafFilter) Describe() string { return f.describe }

// MatchDescription runs only the test structurally equal to want, or every
// test below want when want is a suite.
func MatchDescription(want *core.Description) Filter {
	keys := map[string]struct{}{}
	for _, leaf := range want.Leaves() {
		keys[leaf.Key()] = struct{}{}
	}

	return LeafFilter("Method "+want.DisplayName(), func(d *core.Description) bool {
		_, ok := keys[d.Key()]
		return ok
	})
}

// MatchGlob runs the tests whose "Class/method" path matches pattern, using
// doublestar syntax ("*", "**", "{a,b}", "[...]"). Leaves without a
// "method(Class)" name are matched on their display name.
func MatchGlob(pattern string) (Filter, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}

	return LeafFilter("Glob "+pattern, func(d *core.Description) bool {
		ok, err := doublestar.Match(pattern, testPath(d))
		return err == nil && ok
	}), nil
}

func testPath(d *core.Description) string {
	if method := d.MethodName(); method != "" {
		return d.ClassName() + "/" + method
	}

	return d.DisplayName()
}

type intersection struct {
	a, b Filter
}

// Intersect runs a test only if both filters let it run.
func Intersect(a, b Filter) Filter {
	if a == All {
		return b
	}

	if b == All {
		return a
	}

	return &intersection{a: a, b: b}
}

func (f *intersection) ShouldRun(d *core.Description) bool {
	return f.a.ShouldRun(d) && f.b.ShouldRun(d)
}

func (f *intersection) Describe() string { return f.a.Describe() + " and " + f.b.Describe() }

// Not runs the tests f excludes. It is evaluated on leaves, so a composite
// passes if any leaf is excluded by f.
func Not(f Filter) Filter {
	return LeafFilter("not "+f.Describe(), func(d *core.Description) bool { return !f.ShouldRun(d) })
}
