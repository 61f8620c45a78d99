package runner_test

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/internal/testutil"
	"github.com/hupe1980/testmesh/logging"
	"github.com/hupe1980/testmesh/manipulation"
	"github.com/hupe1980/testmesh/notification"
	"github.com/hupe1980/testmesh/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBuildsNestedSuites(t *testing.T) {
	spec := &runner.SuiteSpec{
		Name: "All",
		Units: []runner.Unit{
			testutil.NewClassBuilder("A").Pass("a1", "a2").Build(),
			&runner.SuiteSpec{
				Name:  "Inner",
				Units: []runner.Unit{testutil.NewClassBuilder("B").Pass("b1").Build()},
			},
		},
	}

	r := runner.NewBuilder().Build(spec)

	require.IsType(t, &runner.Suite{}, r)
	assert.Equal(t, 3, r.TestCount())

	out := run(r)

	require.NoError(t, out.err)
	assert.Equal(t, []string{"started(a1(A))", "started(a2(A))", "started(b1(B))"}, out.rec.Filter("started"))
	assert.Equal(t, 3, out.result.RunCount())
}

func TestBuilderReportsInvalidClass(t *testing.T) {
	r := runner.NewBuilder().Build(&runner.Class{Name: "Broken"})

	require.IsType(t, &runner.ErrorReportingRunner{}, r)
	assert.Equal(t, "Broken", r.Description().DisplayName())
	assert.Equal(t, 1, r.TestCount())

	out := run(r)

	assert.Equal(t, []string{
		"runStarted",
		"started(initializationError(Broken))",
		"failure(initializationError(Broken)): no runnable tests",
		"finished(initializationError(Broken))",
		"runFinished",
	}, out.rec.Events())
}

func TestBuilderDetectsCycles(t *testing.T) {
	spec := &runner.SuiteSpec{Name: "S"}
	spec.Units = []runner.Unit{testutil.NewClassBuilder("C").Pass("a").Build(), spec}

	r := runner.NewBuilder().Build(spec)

	// the outer suite is built; only the nested occurrence is reported
	suite, ok := r.(*runner.Suite)
	require.True(t, ok)

	children := suite.Children()
	require.Len(t, children, 2)
	assert.IsType(t, &runner.ClassRunner{}, children[0])
	require.IsType(t, &runner.ErrorReportingRunner{}, children[1])

	out := run(r)

	assert.Equal(t, []string{
		"failure(initializationError(S)): suite 'S' (possibly indirectly) contains itself as a child suite",
	}, out.rec.Filter("failure"))
}

func TestBuildContextIsImmutable(t *testing.T) {
	root := runner.BuildContext{}

	inner, err := root.Enter("A")
	require.NoError(t, err)

	_, err = inner.Enter("A")
	assert.Error(t, err)

	_, err = root.Enter("A")
	assert.NoError(t, err, "entering a child must not change the parent context")
}

func TestBuilderRejectsDuplicateChildren(t *testing.T) {
	class := testutil.NewClassBuilder("C").Pass("a").Build()

	r := runner.NewBuilder().Build(&runner.SuiteSpec{Name: "S", Units: []runner.Unit{class, class}})

	require.IsType(t, &runner.ErrorReportingRunner{}, r)
	assert.Contains(t, r.(*runner.ErrorReportingRunner).Err().Error(), "suite S contains C more than once")
}

func TestBuilderInvalidOrdering(t *testing.T) {
	dropFirst := manipulation.OrderingFunc(func(d []*core.Description) []*core.Description { return d[1:] })

	class := testutil.NewClassBuilder("C").Pass("a", "b").Build()
	class.Ordering = dropFirst

	r := runner.NewBuilder().Build(class)

	require.IsType(t, &runner.ErrorReportingRunner{}, r)

	out := run(r)
	assert.Equal(t, []string{"failure(initializationError(C)): Ordering removed items"}, out.rec.Filter("failure"))
}

func TestPrebuiltUnit(t *testing.T) {
	class := mustClass(t, testutil.NewClassBuilder("C").Pass("a").Build())

	r := runner.NewBuilder().Build(&runner.SuiteSpec{Name: "S", Units: []runner.Unit{runner.Prebuilt(class)}})

	suite, ok := r.(*runner.Suite)
	require.True(t, ok)
	assert.Same(t, class, suite.Children()[0])
}

func TestSuiteFilterPrunesEmptyChildren(t *testing.T) {
	r := runner.NewBuilder().Build(&runner.SuiteSpec{
		Name: "S",
		Units: []runner.Unit{
			testutil.NewClassBuilder("A").Pass("a1", "a2").Build(),
			testutil.NewClassBuilder("B").Pass("b1").Build(),
		},
	})

	before := r.Description()

	err := manipulation.ApplyFilter(manipulation.MatchDescription(core.NewTestDescription("A", "a2")), r)
	require.NoError(t, err)

	assert.Equal(t, 1, r.TestCount())
	assert.Equal(t, []string{"a2(A)"}, leafNames(r.Description()))
	assert.Equal(t, 3, before.TestCount(), "descriptions handed out earlier are unchanged")

	out := run(r)
	assert.Equal(t, []string{"started(a2(A))"}, out.rec.Filter("started"))
}

func TestFilterRemovingEverything(t *testing.T) {
	r := mustClass(t, testutil.NewClassBuilder("C").Pass("a").Build())

	err := manipulation.ApplyFilter(manipulation.MatchDescription(core.NewTestDescription("C", "zzz")), r)

	var noTests *core.NoTestsRemainError
	require.ErrorAs(t, err, &noTests)
	assert.Equal(t, "Method zzz(C)", noTests.Filter)
}

func TestSortAndOrderRecurse(t *testing.T) {
	r := runner.NewBuilder().Build(&runner.SuiteSpec{
		Name: "S",
		Units: []runner.Unit{
			testutil.NewClassBuilder("B").Pass("b2", "b1").Build(),
			testutil.NewClassBuilder("A").Pass("a2", "a1").Build(),
		},
	})

	manipulation.Alphanumeric.Apply(r)
	assert.Equal(t, []string{"a1(A)", "a2(A)", "b1(B)", "b2(B)"}, leafNames(r.Description()))

	require.NoError(t, manipulation.NewOrderer(manipulation.Reversed).Apply(r))
	assert.Equal(t, []string{"b2(B)", "b1(B)", "a2(A)", "a1(A)"}, leafNames(r.Description()))
}

func TestRequestFilterWithNoMatch(t *testing.T) {
	b := runner.NewBuilder()
	class := testutil.NewClassBuilder("C").Pass("a").Build()

	r, err := runner.UnitRequest(b, class).
		FilterWith(manipulation.MatchDescription(core.NewTestDescription("C", "zzz"))).
		Runner()
	require.NoError(t, err)

	out := run(r)

	assert.Equal(t, []string{
		"failure(initializationError(Filter)): no tests found matching Method zzz(C) from C",
	}, out.rec.Filter("failure"))
}

func TestRequestComposition(t *testing.T) {
	b := runner.NewBuilder()

	glob, err := manipulation.MatchGlob("*/keep*")
	require.NoError(t, err)

	r, err := runner.Aggregate(b, "All",
		testutil.NewClassBuilder("B").Pass("keep2", "drop").Build(),
		testutil.NewClassBuilder("A").Pass("keep1").Build(),
	).FilterWith(glob).SortWith(manipulation.Alphanumeric).Runner()
	require.NoError(t, err)

	assert.Equal(t, "All", r.Description().DisplayName())
	assert.Equal(t, []string{"keep1(A)", "keep2(B)"}, leafNames(r.Description()))
}

func TestRequestInvalidOrdering(t *testing.T) {
	dup := manipulation.OrderingFunc(func(d []*core.Description) []*core.Description { return append(d, d[0]) })

	_, err := runner.RunnerRequest(mustClass(t, testutil.NewClassBuilder("C").Pass("a", "b").Build())).
		OrderWith(dup).
		Runner()

	var invalid *core.InvalidOrderingError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, core.OrderingDuplicatedItems, invalid.Kind)
}

func TestSuiteStopSkipsRemainingChildren(t *testing.T) {
	n := notification.NewNotifier()

	r := runner.NewBuilder().Build(&runner.SuiteSpec{
		Name: "S",
		Units: []runner.Unit{
			testutil.NewClassBuilder("A").Test("a", func(context.Context) error {
				n.PleaseStop()
				return nil
			}).Build(),
			testutil.NewClassBuilder("B").Pass("b").Build(),
		},
	})

	out := runOn(n, r)

	assert.ErrorIs(t, out.err, core.ErrStoppedByUser)
	assert.Equal(t, []string{"started(a(A))"}, out.rec.Filter("started"))
	assert.Equal(t, []string{"finished(a(A))"}, out.rec.Filter("finished"))
}

func leafNames(d *core.Description) []string {
	var out []string
	for _, leaf := range d.Leaves() {
		out = append(out, leaf.DisplayName())
	}

	return out
}

func TestBuilderLogsBuildTime(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = buf
	cfg.AddSource = false

	b := runner.NewBuilder(func(o *runner.Options) { o.Logger = logging.NewLogger(cfg) })
	b.Build(testutil.NewClassBuilder("C").Pass("a").Build())

	assert.Contains(t, buf.String(), `"operation":"build runner"`)
}

func TestOrderWithErrorKeepsImmediateChildren(t *testing.T) {
	// reverses classes, fails on the list of suite children
	ordering := manipulation.OrderingFunc(func(d []*core.Description) []*core.Description {
		if len(d) > 0 && !d[0].IsTest() {
			return d[1:]
		}

		out := slices.Clone(d)
		slices.Reverse(out)

		return out
	})

	r := runner.NewBuilder().Build(&runner.SuiteSpec{
		Name: "S",
		Units: []runner.Unit{
			testutil.NewClassBuilder("A").Pass("a1", "a2").Build(),
			testutil.NewClassBuilder("B").Pass("b1", "b2").Build(),
		},
	})

	err := manipulation.NewOrderer(ordering).Apply(r)

	var invalid *core.InvalidOrderingError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"a2(A)", "a1(A)", "b2(B)", "b1(B)"}, leafNames(r.Description()))
}
