// Package core provides the foundational domain types shared by every layer of
// testmesh. It defines the core abstractions for:
//
//   - Descriptions (immutable tree nodes naming one test or a group of tests)
//   - Statements (composable units of test execution)
//   - Fixtures and Rules (setup/teardown closures and statement decorators)
//   - Failures and the error taxonomy reported during a run
//   - RunnerScheduler (the strategy executing a composite runner's children)
//
// The package keeps execution concerns (notification, runners, parallel
// scheduling) out of scope, exposing small interfaces so runners, schedulers
// and listeners can be combined freely.
package core
