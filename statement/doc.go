// Package statement provides the decorators composing the execution pipeline
// of a single test.
//
// A pipeline is built innermost-out for every test invocation:
//
//	Invoke -> ExpectError -> WithRules -> RunBefores -> RunAfters -> FailOnTimeout
//
// Each decorator is an ordinary core.Statement, so fixture ordering, error
// policy and timeout enforcement can be combined and tested independently.
package statement
