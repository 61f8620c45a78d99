package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/internal/util"
	"github.com/hupe1980/testmesh/logging"
	"github.com/hupe1980/testmesh/notification"
	"github.com/hupe1980/testmesh/runner"
)

// Config defines tuning parameters for the Engine's operational behavior.
//
// Example:
//
//	cfg := Config{
//	    MaxConcurrentRuns: 4,
//	    EventBufferSize: 256,
//	}
type Config struct {
	// MaxConcurrentRuns limits the number of runs that execute at the same
	// time. Further runs wait for a free slot. Set to 0 for unlimited.
	MaxConcurrentRuns int

	// EventBufferSize sets the buffer size of the event channel of a run.
	// A full buffer blocks the run until the consumer catches up.
	EventBufferSize int
}

// DefaultConfig provides default configuration values.
//
// Configuration values:
//   - MaxConcurrentRuns: 10
//   - EventBufferSize: 100
var DefaultConfig = Config{
	MaxConcurrentRuns: 10,
	EventBufferSize:   100,
}

// Options configures an Engine instance using the functional options pattern.
//
// Example:
//
//	engine := New(func(o *Options) {
//	    o.Config.EventBufferSize = 256
//	    o.Logger = logger
//	})
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Listeners are attached to the notifier of every run, after the
	// engine's own result listener.
	Listeners []notification.Listener

	// Callbacks receives the lifecycle hooks of every run.
	Callbacks *CallbackManager

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil.
	Logger logging.Logger
}

// Engine runs registered runners in the background and streams their
// events.
//
// Core Responsibilities:
//   - Runner Registry: Thread-safe registration and lookup of named runners
//   - Run Management: Async/sync execution with a notifier per run
//   - Event Streaming: Every listener callback is forwarded as an Event
//   - Resource Management: Bounded concurrent runs
//
// Concurrency Model:
//   - Thread-safe runner registration and lookup via RWMutex
//   - One goroutine per run, started immediately and waiting for a run slot
//   - Stop requests go to the notifier of the run and are cooperative
//
// Example Usage:
//
//	engine := New()
//	engine.Register(classRunner)
//
//	runID, events, errs, err := engine.Invoke(ctx, "CalculatorTest")
//	if err != nil {
//	    return err
//	}
//
//	for ev := range events {
//	    // Handle real-time events
//	}
type Engine struct {
	logger    logging.Logger
	config    Config
	listeners []notification.Listener
	callbacks *CallbackManager
	slots     *semaphore.Weighted // nil when unlimited

	runners map[string]runner.Runner
	mu      sync.RWMutex

	activeRuns map[string]*notification.Notifier
	runsMu     sync.Mutex
}

// New creates a new Engine instance with defaults and optional
// configuration.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	e := &Engine{
		logger:     opts.Logger,
		config:     opts.Config,
		listeners:  opts.Listeners,
		callbacks:  opts.Callbacks,
		runners:    make(map[string]runner.Runner),
		activeRuns: make(map[string]*notification.Notifier),
	}

	if opts.Config.MaxConcurrentRuns > 0 {
		e.slots = semaphore.NewWeighted(int64(opts.Config.MaxConcurrentRuns))
	}

	return e
}

// Register adds a runner to the registry under the display name of its
// Description. A runner with the same name is replaced.
func (e *Engine) Register(r runner.Runner) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.runners[r.Description().DisplayName()] = r
}

// Runner retrieves a registered runner by name.
func (e *Engine) Runner(name string) (runner.Runner, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, ok := e.runners[name]

	return r, ok
}

// Callbacks returns the callback manager of the engine.
func (e *Engine) Callbacks() *CallbackManager { return e.callbacks }

// Invoke runs the runner registered as name in the background.
//
// Returns:
//   - runID: Identifier of the run, accepted by Stop
//   - events: Every event of the run; closed when the run is over
//   - errs: Receives at most one terminal error; closed after events
//   - error: Immediate error if the run cannot be started
//
// Test failures are events, not errors. The terminal error is
// core.ErrStoppedByUser for a stopped run, a BeforeRun callback error, or
// the context error if ctx ended before the run got a slot.
//
// The run blocks while the events buffer is full, so consumers must drain
// events until it is closed.
func (e *Engine) Invoke(ctx context.Context, name string) (string, <-chan notification.Event, <-chan error, error) {
	r, ok := e.Runner(name)
	if !ok {
		return "", nil, nil, fmt.Errorf("runner %s not found", name)
	}

	runID := util.NewID()

	eventsCh := make(chan notification.Event, e.config.EventBufferSize)
	errorsCh := make(chan error, 1)

	n := notification.NewNotifier(func(o *notification.Options) { o.Logger = e.logger })

	e.runsMu.Lock()
	e.activeRuns[runID] = n
	e.runsMu.Unlock()

	go func() {
		defer close(errorsCh)
		defer close(eventsCh)
		defer func() {
			e.runsMu.Lock()
			delete(e.activeRuns, runID)
			e.runsMu.Unlock()
		}()

		if err := e.execute(ctx, runID, name, r, n, eventsCh); err != nil {
			errorsCh <- err
		}
	}()

	return runID, eventsCh, errorsCh, nil
}

// InvokeSync runs the runner registered as name and waits for it. It
// returns every event of the run and the Result carried by the final
// event.
func (e *Engine) InvokeSync(ctx context.Context, name string) (string, []notification.Event, *notification.Result, error) {
	runID, eventsCh, errorsCh, err := e.Invoke(ctx, name)
	if err != nil {
		return "", nil, nil, err
	}

	var (
		events []notification.Event
		result *notification.Result
	)

	for ev := range eventsCh {
		events = append(events, ev)

		if ev.Type == notification.EventRunFinished {
			result = ev.Result
		}
	}

	return runID, events, result, <-errorsCh
}

// Stop asks the run runID to stop. Running tests complete; no further test
// is started.
func (e *Engine) Stop(runID string) error {
	e.runsMu.Lock()
	n, exists := e.activeRuns[runID]
	e.runsMu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	n.PleaseStop()

	return nil
}

// ActiveRuns returns the number of runs that have not completed.
func (e *Engine) ActiveRuns() int {
	e.runsMu.Lock()
	defer e.runsMu.Unlock()

	return len(e.activeRuns)
}

func (e *Engine) execute(
	ctx context.Context,
	runID, name string,
	r runner.Runner,
	n *notification.Notifier,
	eventsCh chan<- notification.Event,
) error {
	if e.slots != nil {
		if err := e.slots.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("run %s not started: %w", runID, err)
		}
		defer e.slots.Release(1)
	}

	cbCtx := &CallbackContext{RunID: runID, Runner: name, Description: r.Description()}

	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeRun, cbCtx); err != nil {
		return err
	}

	result := notification.NewResult()
	n.AddFirstListener(result.Listener())

	for _, l := range e.listeners {
		n.AddListener(l)
	}

	n.AddListener(notification.NewChannelListener(ctx, eventsCh))
	n.AddListener(&failureHook{ctx: ctx, manager: e.callbacks, template: *cbCtx, log: e.logger.Warn})

	start := time.Now()

	var runErr error
	if runErr = n.FireTestRunStarted(r.Description()); runErr == nil {
		runErr = r.Run(ctx, n)
	}

	n.FireTestRunFinished(result)

	e.logSummary(runID, result, time.Since(start))

	cbCtx.Result = result
	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackAfterRun, cbCtx); err != nil {
		e.logger.Warn("after run callback failed", "run", runID, "error", err)
	}

	if errors.Is(runErr, core.ErrStoppedByUser) {
		return core.ErrStoppedByUser
	}

	return runErr
}

func (e *Engine) logSummary(runID string, result *notification.Result, dur time.Duration) {
	if l, ok := e.logger.(*logging.TestMeshLogger); ok {
		l.WithRun(runID).LogRunSummary(result.RunCount(), result.FailureCount(), result.IgnoreCount(), dur)
		return
	}

	e.logger.Info("run finished", "run", runID, "tests", result.RunCount(), "failures", result.FailureCount(), "duration", dur)
}
