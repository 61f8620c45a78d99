// Package runner implements the executable counterpart of a Description tree.
//
// A Runner owns a Description and knows how to run it against a notifier.
// Two shapes exist:
//
//   - atomic runners (TestRunner, ErrorReportingRunner) run a single
//     statement pipeline
//   - composite runners (ParentRunner and its ClassRunner / Suite forms)
//     own children, class-level fixtures and a core.RunnerScheduler
//
// Composite runners are built from declarative units (Class, SuiteSpec) by a
// Builder. Construction threads an explicit BuildContext so that a suite
// containing itself is reported instead of recursing forever. Before running,
// a tree can be filtered, sorted and reordered in place through the
// manipulation package, usually via a Request.
package runner
