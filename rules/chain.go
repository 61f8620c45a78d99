package rules

import (
	"time"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/statement"
)

// Chain combines rules into one. The first rule is the outermost: it starts
// first and ends last.
func Chain(rules ...core.Rule) core.Rule {
	return core.RuleFunc(func(base core.Statement, d *core.Description) core.Statement {
		for i := len(rules) - 1; i >= 0; i-- {
			if rules[i] != nil {
				base = rules[i].Apply(base, d)
			}
		}

		return base
	})
}

// Timeout fails every test it applies to that runs longer than value
// expressed in unit.
func Timeout(value int64, unit time.Duration, optFns ...func(o *statement.TimeoutOptions)) core.Rule {
	opts := append([]func(o *statement.TimeoutOptions){statement.WithTimeout(value, unit)}, optFns...)

	return core.RuleFunc(func(base core.Statement, _ *core.Description) core.Statement {
		return statement.FailOnTimeout(base, opts...)
	})
}
