// Package testmesh provides a high-level façade for running test trees.
// Most applications interact with this package by:
//  1. Creating a TestMesh via New() and attaching listeners
//  2. Describing tests as runner.Class and runner.SuiteSpec units
//  3. Running them with RunUnits, or Run/RunRequest for prebuilt runners
//
// The façade owns one notifier shared by all runs, so PleaseStop affects
// every run in progress. Each run gets its own Result.
package testmesh

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/logging"
	"github.com/hupe1980/testmesh/notification"
	"github.com/hupe1980/testmesh/runner"
)

// Options configures the TestMesh instance.
type Options struct {
	// Listeners are attached to the notifier when the TestMesh is created.
	Listeners []notification.Listener

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// TestMesh runs test trees and reports their events to its listeners.
type TestMesh struct {
	logger   logging.Logger
	notifier *notification.Notifier
	builder  *runner.Builder
}

// New creates a new TestMesh instance with optional overrides.
func New(optFns ...func(o *Options)) *TestMesh {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	n := notification.NewNotifier(func(o *notification.Options) { o.Logger = opts.Logger })
	for _, l := range opts.Listeners {
		n.AddListener(l)
	}

	return &TestMesh{
		logger:   opts.Logger,
		notifier: n,
		builder:  runner.NewBuilder(func(o *runner.Options) { o.Logger = opts.Logger }),
	}
}

// AddListener attaches l to every subsequent event.
func (m *TestMesh) AddListener(l notification.Listener) { m.notifier.AddListener(l) }

// RemoveListener detaches l.
func (m *TestMesh) RemoveListener(l notification.Listener) { m.notifier.RemoveListener(l) }

// PleaseStop asks every run in progress to stop after the tests that are
// already running.
func (m *TestMesh) PleaseStop() { m.notifier.PleaseStop() }

// Builder returns the builder used by RunUnits.
func (m *TestMesh) Builder() *runner.Builder { return m.builder }

// Run runs r and returns its Result. Test failures are part of the Result;
// the error is core.ErrStoppedByUser if the run was stopped.
func (m *TestMesh) Run(ctx context.Context, r runner.Runner) (*notification.Result, error) {
	result := notification.NewResult()
	l := result.Listener()

	m.notifier.AddFirstListener(l)
	defer m.notifier.RemoveListener(l)

	start := time.Now()

	err := m.notifier.FireTestRunStarted(r.Description())
	if err == nil {
		err = r.Run(ctx, m.notifier)
	}

	m.notifier.FireTestRunFinished(result)

	m.logger.Info("run finished",
		"runner", r.Description().DisplayName(),
		"tests", result.RunCount(),
		"failures", result.FailureCount(),
		"ignored", result.IgnoreCount(),
		"duration", time.Since(start),
	)

	if errors.Is(err, core.ErrStoppedByUser) {
		return result, core.ErrStoppedByUser
	}

	return result, err
}

// RunRequest builds the runner of req and runs it.
func (m *TestMesh) RunRequest(ctx context.Context, req *runner.Request) (*notification.Result, error) {
	r, err := req.Runner()
	if err != nil {
		return nil, err
	}

	return m.Run(ctx, r)
}

// RunUnits runs units. A single unit is run as is; several units run as
// the children of a suite named "All".
func (m *TestMesh) RunUnits(ctx context.Context, units ...runner.Unit) (*notification.Result, error) {
	if len(units) == 1 {
		return m.RunRequest(ctx, runner.UnitRequest(m.builder, units[0]))
	}

	return m.RunRequest(ctx, runner.Aggregate(m.builder, "All", units...))
}

// ExitCode maps result to a process exit code: 0 if it was successful,
// 1 otherwise.
func ExitCode(result *notification.Result) int {
	if result != nil && result.WasSuccessful() {
		return 0
	}

	return 1
}
