// Package logging provides a minimal logging interface and adapters for testmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that runners, the notifier and the parallel scheduler use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - TestMeshLogger with run/component context and test outcome helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mesh := testmesh.New(func(o *testmesh.Options) { o.Logger = logger })
//
// The interface is kept minimal to avoid vendor lock-in while supporting
// structured logging where available.
package logging
