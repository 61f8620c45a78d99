package testmesh

import (
	"context"
	"testing"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/internal/testutil"
	"github.com/hupe1980/testmesh/manipulation"
	"github.com/hupe1980/testmesh/notification"
	"github.com/hupe1980/testmesh/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUnits(t *testing.T) {
	rec := testutil.NewEventRecorder()
	m := New(func(o *Options) { o.Listeners = []notification.Listener{rec} })

	result, err := m.RunUnits(context.Background(),
		testutil.NewClassBuilder("A").Pass("a").Build(),
		testutil.NewClassBuilder("B").Fail("b", "boom").Build(),
	)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RunCount())
	assert.Equal(t, 1, result.FailureCount())
	assert.Equal(t, 1, ExitCode(result))
	assert.Equal(t, []string{
		"runStarted",
		"started(a(A))", "finished(a(A))",
		"started(b(B))", "failure(b(B)): boom", "finished(b(B))",
		"runFinished",
	}, rec.Events())
}

func TestRunSingleUnit(t *testing.T) {
	m := New()

	result, err := m.RunUnits(context.Background(), testutil.NewClassBuilder("C").Pass("a", "b").Build())
	require.NoError(t, err)

	assert.True(t, result.WasSuccessful())
	assert.Equal(t, 0, ExitCode(result))
}

func TestEachRunHasItsOwnResult(t *testing.T) {
	m := New()
	class := testutil.NewClassBuilder("C").Fail("a", "boom").Build()

	first, err := m.RunUnits(context.Background(), class)
	require.NoError(t, err)

	second, err := m.RunUnits(context.Background(), class)
	require.NoError(t, err)

	assert.Equal(t, 1, first.FailureCount())
	assert.Equal(t, 1, second.FailureCount())
}

func TestRunRequestPropagatesBuildErrors(t *testing.T) {
	m := New()
	dup := manipulation.OrderingFunc(func(d []*core.Description) []*core.Description { return append(d, d[0]) })

	result, err := m.RunRequest(context.Background(),
		runner.UnitRequest(m.Builder(), testutil.NewClassBuilder("C").Pass("a").Build()).OrderWith(dup),
	)

	assert.Nil(t, result)

	var invalid *core.InvalidOrderingError
	assert.ErrorAs(t, err, &invalid)
}

func TestListenersCanBeRemoved(t *testing.T) {
	m := New()
	rec := testutil.NewEventRecorder()

	m.AddListener(rec)
	_, err := m.RunUnits(context.Background(), testutil.NewClassBuilder("C").Pass("a").Build())
	require.NoError(t, err)

	m.RemoveListener(rec)
	_, err = m.RunUnits(context.Background(), testutil.NewClassBuilder("C").Pass("a").Build())
	require.NoError(t, err)

	assert.Len(t, rec.Filter("started"), 1)
}

func TestPleaseStop(t *testing.T) {
	m := New()

	class := testutil.NewClassBuilder("C").
		Test("a", func(context.Context) error {
			m.PleaseStop()
			return nil
		}).
		Pass("b").
		Build()

	result, err := m.RunUnits(context.Background(), class)

	assert.ErrorIs(t, err, core.ErrStoppedByUser)
	assert.Equal(t, 1, result.RunCount())
}

func TestExitCodeNilResult(t *testing.T) {
	assert.Equal(t, 1, ExitCode(nil))
}
