package statement

import (
	"context"

	"github.com/hupe1980/testmesh/core"
)

// Invoke returns the base statement calling fn. A panic inside fn is
// recovered into an error carrying the panicking stack; any returned error
// propagates unchanged.
func Invoke(fn core.Fixture) core.Statement {
	return core.StatementFunc(func(ctx context.Context) error {
		return call(ctx, fn)
	})
}

// Fail returns a statement that always fails with err. Runners use it when
// the plan of a test cannot be built.
func Fail(err error) core.Statement {
	return core.StatementFunc(func(context.Context) error { return err })
}

func call(ctx context.Context, fn core.Fixture) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.FromPanic(r)
		}
	}()

	return fn(ctx)
}

func evaluate(ctx context.Context, s core.Statement) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.FromPanic(r)
		}
	}()

	return s.Evaluate(ctx)
}
