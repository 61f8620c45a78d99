package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/testmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScenario(n *Notifier) {
	a := core.NewTestDescription("C", "a")
	b := core.NewTestDescription("C", "b")
	c := core.NewTestDescription("C", "c")
	d := core.NewTestDescription("C", "d")
	root := core.NewSuiteDescription("C", a, b, c, d)

	_ = n.FireTestRunStarted(root)

	fireTest(n, a)

	_ = n.FireTestStarted(b)
	n.FireTestFailure(core.NewFailure(b, errors.New("b broke")))
	n.FireTestFinished(b)

	_ = n.FireTestStarted(c)
	n.FireTestAssumptionFailed(core.NewFailure(c, core.Assume(false, "offline")))
	n.FireTestFinished(c)

	_ = n.FireTestIgnored(d)

	n.FireTestRunFinished(nil)
}

func TestResultCounts(t *testing.T) {
	n := NewNotifier()
	result := NewResult()
	n.AddFirstListener(result.Listener())

	runScenario(n)

	assert.Equal(t, 3, result.RunCount())
	assert.Equal(t, 1, result.FailureCount())
	assert.Equal(t, 1, result.IgnoreCount())
	assert.Equal(t, 1, result.AssumptionFailureCount())
	assert.False(t, result.WasSuccessful())
	assert.Greater(t, result.RunTime(), time.Duration(0))
}

func TestResultAssumptionsDoNotFail(t *testing.T) {
	n := NewNotifier()
	result := NewResult()
	n.AddFirstListener(result.Listener())

	c := core.NewTestDescription("C", "c")
	_ = n.FireTestStarted(c)
	n.FireTestAssumptionFailed(core.NewFailure(c, core.Assume(false, "offline")))
	n.FireTestFinished(c)

	assert.True(t, result.WasSuccessful())
}

func TestResultJSONRoundTrip(t *testing.T) {
	n := NewNotifier()
	result := NewResult()
	n.AddFirstListener(result.Listener())
	runScenario(n)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	restored := NewResult()
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, result.RunCount(), restored.RunCount())
	assert.Equal(t, result.IgnoreCount(), restored.IgnoreCount())
	assert.Equal(t, result.AssumptionFailureCount(), restored.AssumptionFailureCount())
	require.Len(t, restored.Failures(), 1)
	assert.Equal(t, "b(C)", restored.Failures()[0].TestHeader())
	assert.Equal(t, "b broke", restored.Failures()[0].Message())
}

func TestTextListenerSuccess(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier()
	result := NewResult()
	n.AddFirstListener(result.Listener())
	n.AddListener(NewTextListener(&buf, func(o *TextOptions) { o.SummaryTable = false }))

	a := core.NewTestDescription("C", "a")
	b := core.NewTestDescription("C", "b")
	_ = n.FireTestRunStarted(core.NewSuiteDescription("C", a, b))
	fireTest(n, a)
	fireTest(n, b)
	n.FireTestRunFinished(result)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "..\nTime: "))
	assert.Contains(t, out, "OK (2 tests)")
	assert.NotContains(t, out, "FAILURES")
}

func TestTextListenerFailures(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier()
	result := NewResult()
	n.AddFirstListener(result.Listener())
	n.AddListener(NewTextListener(&buf))

	a := core.NewTestDescription("C", "a")
	_ = n.FireTestStarted(a)
	n.FireTestFailure(core.NewFailure(a, errors.New("a broke")))
	n.FireTestFinished(a)
	_ = n.FireTestIgnored(core.NewTestDescription("C", "b"))
	n.FireTestRunFinished(result)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, ".EI\nTime: "))
	assert.Contains(t, out, "There was 1 failure:\n1) a(C)\na broke\n")
	assert.Contains(t, out, "FAILURES!!!\nTests run: 1,  Failures: 1")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "Assumptions")
}

func TestChannelListener(t *testing.T) {
	ch := make(chan Event, 8)
	n := NewNotifier()
	n.AddListener(NewChannelListener(context.Background(), ch))

	a := core.NewTestDescription("C", "a")
	fireTest(n, a)

	first := <-ch
	second := <-ch
	assert.Equal(t, EventTestStarted, first.Type)
	assert.Same(t, a, first.Description)
	assert.Equal(t, EventTestFinished, second.Type)
	assert.False(t, second.Time.IsZero())
}

func TestChannelListenerRemovedWhenConsumerGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewNotifier()
	n.AddListener(NewChannelListener(ctx, make(chan Event)))

	fireTest(n, core.NewTestDescription("C", "a"))

	assert.Zero(t, n.Listeners())
}
