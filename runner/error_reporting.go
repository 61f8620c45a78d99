package runner

import (
	"context"
	"errors"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/notification"
)

// ErrorReportingRunner stands in for a unit that could not be built. Running
// it reports the build error as the failure of a synthetic
// "initializationError" test, so broken units surface in the results instead
// of aborting the whole run.
type ErrorReportingRunner struct {
	desc *core.Description
	leaf *core.Description
	err  error
}

// NewErrorReportingRunner creates a runner reporting err for the unit name.
func NewErrorReportingRunner(name string, err error) *ErrorReportingRunner {
	leaf := core.NewTestDescription(name, "initializationError")

	return &ErrorReportingRunner{
		desc: core.NewSuiteDescription(name, leaf),
		leaf: leaf,
		err:  err,
	}
}

// Err returns the reported error.
func (r *ErrorReportingRunner) Err() error { return r.err }

// Description implements Runner.
func (r *ErrorReportingRunner) Description() *core.Description { return r.desc }

// TestCount implements Runner.
func (r *ErrorReportingRunner) TestCount() int { return 1 }

// Run implements Runner. Each cause of an initialization error is reported
// as a separate failure.
func (r *ErrorReportingRunner) Run(_ context.Context, n *notification.Notifier) error {
	if err := n.FireTestStarted(r.leaf); err != nil {
		return err
	}
	defer n.FireTestFinished(r.leaf)

	for _, cause := range r.causes() {
		n.FireTestFailure(core.NewFailure(r.leaf, cause))
	}

	return nil
}

func (r *ErrorReportingRunner) causes() []error {
	var ie *core.InitializationError
	if errors.As(r.err, &ie) && len(ie.Causes) > 0 {
		return ie.Causes
	}

	return core.Errors(r.err)
}
