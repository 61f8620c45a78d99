package notification

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recorder logs every event as a short string.
type recorder struct {
	BaseListener
	mu     sync.Mutex
	events []string
	failOn string
	panics bool
}

func (r *recorder) ConcurrencySafe() bool { return true }

func (r *recorder) record(ev string) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()

	if r.failOn != "" && r.failOn == ev {
		if r.panics {
			panic("listener exploded")
		}

		return errors.New("listener broke on " + ev)
	}

	return nil
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.events...)
}

func (r *recorder) TestRunStarted(*core.Description) error { return r.record("runStarted") }
func (r *recorder) TestRunFinished(*Result) error          { return r.record("runFinished") }
func (r *recorder) TestStarted(d *core.Description) error  { return r.record("started(" + d.DisplayName() + ")") }
func (r *recorder) TestFinished(d *core.Description) error { return r.record("finished(" + d.DisplayName() + ")") }
func (r *recorder) TestFailure(f *core.Failure) error      { return r.record("failure(" + f.TestHeader() + ")") }
func (r *recorder) TestIgnored(d *core.Description) error  { return r.record("ignored(" + d.DisplayName() + ")") }
func (r *recorder) TestAssumptionFailure(f *core.Failure) error {
	return r.record("assumption(" + f.TestHeader() + ")")
}

// mockListener is a testify mock used to assert exact callback arguments.
type mockListener struct {
	mock.Mock
}

func (m *mockListener) TestRunStarted(d *core.Description) error { return m.Called(d).Error(0) }
func (m *mockListener) TestRunFinished(r *Result) error          { return m.Called(r).Error(0) }
func (m *mockListener) TestStarted(d *core.Description) error    { return m.Called(d).Error(0) }
func (m *mockListener) TestFinished(d *core.Description) error   { return m.Called(d).Error(0) }
func (m *mockListener) TestFailure(f *core.Failure) error        { return m.Called(f).Error(0) }
func (m *mockListener) TestIgnored(d *core.Description) error    { return m.Called(d).Error(0) }
func (m *mockListener) TestAssumptionFailure(f *core.Failure) error {
	return m.Called(f).Error(0)
}

func fireTest(n *Notifier, d *core.Description) {
	_ = n.FireTestStarted(d)
	n.FireTestFinished(d)
}

func TestNotifierDeliversToAllListeners(t *testing.T) {
	n := NewNotifier()
	d := core.NewTestDescription("C", "a")

	m := &mockListener{}
	m.On("TestStarted", d).Return(nil).Once()
	m.On("TestFinished", d).Return(nil).Once()

	r := &recorder{}
	n.AddListener(m)
	n.AddListener(r)

	fireTest(n, d)

	m.AssertExpectations(t)
	assert.Equal(t, []string{"started(a(C))", "finished(a(C))"}, r.Events())
}

func TestNotifierFirstListenerSeesEventsFirst(t *testing.T) {
	n := NewNotifier()

	var order []string
	var mu sync.Mutex
	tag := func(name string) Listener {
		return &orderListener{name: name, order: &order, mu: &mu}
	}

	n.AddListener(tag("user1"))
	n.AddFirstListener(tag("result"))
	n.AddListener(tag("user2"))

	_ = n.FireTestStarted(core.NewTestDescription("C", "a"))

	assert.Equal(t, []string{"result", "user1", "user2"}, order)
}

type orderListener struct {
	BaseListener
	name  string
	order *[]string
	mu    *sync.Mutex
}

func (o *orderListener) TestStarted(*core.Description) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	*o.order = append(*o.order, o.name)
	return nil
}

func TestNotifierRemovesFailingListener(t *testing.T) {
	for _, panics := range []bool{false, true} {
		t.Run(fmt.Sprintf("panics=%v", panics), func(t *testing.T) {
			n := NewNotifier()
			result := NewResult()
			n.AddFirstListener(result.Listener())

			bad := &recorder{failOn: "started(b(C))", panics: panics}
			good := &recorder{}
			n.AddListener(bad)
			n.AddListener(good)

			a := core.NewTestDescription("C", "a")
			b := core.NewTestDescription("C", "b")
			c := core.NewTestDescription("C", "c")

			fireTest(n, a)
			fireTest(n, b)
			fireTest(n, c)

			assert.Equal(t, []string{"started(a(C))", "finished(a(C))", "started(b(C))"}, bad.Events())
			assert.Equal(t, []string{
				"started(a(C))", "finished(a(C))",
				"started(b(C))", "failure(Test mechanism)", "finished(b(C))",
				"started(c(C))", "finished(c(C))",
			}, good.Events())

			require.Equal(t, 1, result.FailureCount())
			f := result.Failures()[0]
			assert.Same(t, core.TestMechanism, f.Description)
			assert.Contains(t, f.Message(), "testStarted")
			assert.Equal(t, 3, result.RunCount())
			assert.Equal(t, 2, n.Listeners())
		})
	}
}

func TestNotifierRemoveListener(t *testing.T) {
	n := NewNotifier()
	r := &recorder{}
	plain := &BaseListenerCounter{}

	n.AddListener(r)
	n.AddListener(plain)
	n.RemoveListener(plain)
	n.RemoveListener(r)

	fireTest(n, core.NewTestDescription("C", "a"))

	assert.Empty(t, r.Events())
	assert.Zero(t, plain.started)
	assert.Zero(t, n.Listeners())
}

// BaseListenerCounter is not concurrency safe and gets wrapped on add.
type BaseListenerCounter struct {
	BaseListener
	started int
}

func (b *BaseListenerCounter) TestStarted(*core.Description) error {
	b.started++
	return nil
}

func TestNotifierSynchronizesUnsafeListeners(t *testing.T) {
	n := NewNotifier()
	counter := &BaseListenerCounter{}
	n.AddListener(counter)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = n.FireTestStarted(core.NewTestDescription("C", "a"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter.started)
}

func TestNotifierConcurrentAddRemove(t *testing.T) {
	n := NewNotifier()
	stable := &recorder{}
	n.AddListener(stable)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l := &recorder{}
			n.AddListener(l)
			n.RemoveListener(l)
		}()
		go func() {
			defer wg.Done()
			fireTest(n, core.NewTestDescription("C", "a"))
		}()
	}
	wg.Wait()

	assert.Len(t, stable.Events(), 40)
}

func TestNotifierPleaseStop(t *testing.T) {
	n := NewNotifier()
	r := &recorder{}
	n.AddListener(r)

	a := core.NewTestDescription("C", "a")
	require.NoError(t, n.FireTestStarted(a))

	n.PleaseStop()
	assert.True(t, n.IsStopped())

	// the in-flight test still completes its pairing
	n.FireTestFinished(a)

	assert.ErrorIs(t, n.FireTestStarted(core.NewTestDescription("C", "b")), core.ErrStoppedByUser)
	assert.ErrorIs(t, n.FireTestIgnored(core.NewTestDescription("C", "c")), core.ErrStoppedByUser)
	assert.ErrorIs(t, n.FireTestRunStarted(a), core.ErrStoppedByUser)

	assert.Equal(t, []string{"started(a(C))", "finished(a(C))"}, r.Events())
}

// slowFailing fails every testStarted after a short delay.
type slowFailing struct {
	BaseListener
	safe bool
}

func (s *slowFailing) ConcurrencySafe() bool { return s.safe }

func (s *slowFailing) TestStarted(*core.Description) error {
	time.Sleep(20 * time.Millisecond)
	return errors.New("listener broke")
}

// unsafeSlowFailing hides ConcurrencySafe so the notifier synchronizes it.
type unsafeSlowFailing struct {
	BaseListener
}

func (unsafeSlowFailing) TestStarted(*core.Description) error {
	time.Sleep(20 * time.Millisecond)
	return errors.New("listener broke")
}

func TestNotifierReportsConcurrentListenerFailureOnce(t *testing.T) {
	tests := []struct {
		name string
		bad  Listener
	}{
		{name: "concurrency safe", bad: &slowFailing{safe: true}},
		{name: "synchronized", bad: &unsafeSlowFailing{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotifier()
			result := NewResult()
			n.AddFirstListener(result.Listener())
			n.AddListener(tt.bad)

			var (
				wg    sync.WaitGroup
				start = make(chan struct{})
			)

			for i := range 8 {
				wg.Add(1)

				go func() {
					defer wg.Done()
					<-start
					_ = n.FireTestStarted(core.NewTestDescription("C", fmt.Sprintf("t%d", i)))
				}()
			}

			close(start)
			wg.Wait()

			assert.Equal(t, 1, result.FailureCount())
			assert.Equal(t, 1, n.Listeners())
		})
	}
}

func TestNotifierFailedListenerCanBeAddedAgain(t *testing.T) {
	n := NewNotifier()
	result := NewResult()
	n.AddFirstListener(result.Listener())

	bad := &recorder{failOn: "started(a(C))"}
	n.AddListener(bad)

	fireTest(n, core.NewTestDescription("C", "a"))
	require.Equal(t, 1, n.Listeners())

	n.AddListener(bad)
	fireTest(n, core.NewTestDescription("C", "b"))

	assert.Equal(t, []string{"started(a(C))", "started(b(C))", "finished(b(C))"}, bad.Events())
	assert.Equal(t, 1, result.FailureCount())
}

// stackRecorder is a logger capturing ErrorWithStack calls.
type stackRecorder struct {
	logging.NoOpLogger
	mu   sync.Mutex
	errs []error
}

func (s *stackRecorder) ErrorWithStack(err error, _ string, _ ...any) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

func TestNotifierLogsListenerFailureWithStack(t *testing.T) {
	logger := &stackRecorder{}
	n := NewNotifier(func(o *Options) { o.Logger = logger })

	n.AddListener(&recorder{failOn: "started(a(C))", panics: true})
	fireTest(n, core.NewTestDescription("C", "a"))

	require.Len(t, logger.errs, 1)
	assert.Contains(t, logger.errs[0].Error(), "listener exploded")
	assert.NotEmpty(t, core.StackTrace(logger.errs[0]))
}
