package rules

import (
	"context"

	"github.com/hupe1980/testmesh/core"
)

// ExternalResource sets up a resource before a test and tears it down
// afterwards. After runs whenever Before succeeded, even if the test failed;
// its error is reported after the test's.
type ExternalResource struct {
	Before func(ctx context.Context) error
	After  func(ctx context.Context) error
}

// Apply implements core.Rule.
func (r *ExternalResource) Apply(base core.Statement, _ *core.Description) core.Statement {
	return core.StatementFunc(func(ctx context.Context) error {
		if r.Before != nil {
			if err := r.Before(ctx); err != nil {
				return err
			}
		}

		var errs []error

		if err := base.Evaluate(ctx); err != nil {
			errs = append(errs, err)
		}

		if r.After != nil {
			if err := r.After(ctx); err != nil {
				errs = append(errs, err)
			}
		}

		return core.MultipleFailures(errs)
	})
}

// Verifier runs verify after a passing test, failing the test if it returns
// an error. It is not run when the test already failed.
func Verifier(verify func(ctx context.Context) error) core.Rule {
	return core.RuleFunc(func(base core.Statement, _ *core.Description) core.Statement {
		return core.StatementFunc(func(ctx context.Context) error {
			if err := base.Evaluate(ctx); err != nil {
				return err
			}

			return verify(ctx)
		})
	})
}
