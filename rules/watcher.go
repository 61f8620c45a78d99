package rules

import (
	"context"

	"github.com/hupe1980/testmesh/core"
)

// TestWatcher observes the outcome of a test without changing it, except
// that errors returned by the callbacks are reported after the test's own
// error. Nil callbacks are skipped.
type TestWatcher struct {
	Starting  func(d *core.Description) error
	Succeeded func(d *core.Description) error
	Failed    func(d *core.Description, err error) error
	Skipped   func(d *core.Description, err error) error
	Finished  func(d *core.Description) error
}

// Apply implements core.Rule.
func (w *TestWatcher) Apply(base core.Statement, d *core.Description) core.Statement {
	return core.StatementFunc(func(ctx context.Context) error {
		var errs []error

		collect := func(err error) {
			if err != nil {
				errs = append(errs, err)
			}
		}

		if w.Starting != nil {
			collect(w.Starting(d))
		}

		err := base.Evaluate(ctx)

		switch {
		case err == nil:
			if w.Succeeded != nil {
				collect(w.Succeeded(d))
			}
		case core.IsAssumptionViolated(err):
			errs = append(errs, err)
			if w.Skipped != nil {
				collect(w.Skipped(d, err))
			}
		default:
			errs = append(errs, err)
			if w.Failed != nil {
				collect(w.Failed(d, err))
			}
		}

		if w.Finished != nil {
			collect(w.Finished(d))
		}

		return core.MultipleFailures(errs)
	})
}
