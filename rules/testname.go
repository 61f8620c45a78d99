package rules

import (
	"context"

	"github.com/hupe1980/testmesh/core"
)

type testNameKey struct{}

// TestName makes the name of the running test available through
// MethodName.
var TestName core.Rule = core.RuleFunc(func(base core.Statement, d *core.Description) core.Statement {
	return core.StatementFunc(func(ctx context.Context) error {
		return base.Evaluate(context.WithValue(ctx, testNameKey{}, d.MethodName()))
	})
})

// MethodName returns the name of the running test, or "" when TestName was
// not applied.
func MethodName(ctx context.Context) string {
	name, _ := ctx.Value(testNameKey{}).(string)
	return name
}
