// Package rules provides ready-made core.Rule implementations: callbacks
// around a test, external resources, timeouts, post-test verification, rule
// chaining, soft assertions, timing and access to the running test's name.
//
// Rules apply to a single test when added to a class's Rules and to a whole
// class block when added to its ClassRules.
package rules
