package statement

import (
	"github.com/hupe1980/testmesh/core"
)

// WithRules applies rules to next in declared order: the first rule wraps
// next directly, each following rule wraps the previous result. Nil rules
// are skipped.
func WithRules(next core.Statement, rules []core.Rule, d *core.Description) core.Statement {
	result := next

	for _, r := range rules {
		if r == nil {
			continue
		}

		result = r.Apply(result, d)
	}

	return result
}
