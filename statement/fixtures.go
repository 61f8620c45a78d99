package statement

import (
	"context"

	"github.com/hupe1980/testmesh/core"
)

// RunBefores runs every before fixture in order and then next. The first
// failing fixture stops the sequence and its error is returned without
// evaluating next.
func RunBefores(next core.Statement, befores []core.Fixture) core.Statement {
	if len(befores) == 0 {
		return next
	}

	return core.StatementFunc(func(ctx context.Context) error {
		for _, before := range befores {
			if err := call(ctx, before); err != nil {
				return err
			}
		}

		return evaluate(ctx, next)
	})
}

// RunAfters evaluates next and then runs every after fixture exactly once,
// even when next or an earlier fixture failed.
//
// All errors are kept: the error of next first, then fixture errors in
// declaration order. A single error is returned as is; several are returned
// as one multi-failure (see core.MultipleFailures).
func RunAfters(next core.Statement, afters []core.Fixture) core.Statement {
	if len(afters) == 0 {
		return next
	}

	return core.StatementFunc(func(ctx context.Context) error {
		var errs []error

		if err := evaluate(ctx, next); err != nil {
			errs = append(errs, err)
		}

		for _, after := range afters {
			if err := call(ctx, after); err != nil {
				errs = append(errs, err)
			}
		}

		return core.MultipleFailures(errs)
	})
}
