// Package engine runs registered test runners in the background.
//
// The Engine is the coordination layer between callers that want to run
// tests and the runners that execute them. Every run gets its own
// notifier, so runs are isolated from each other and can be stopped
// individually.
//
// # Core Responsibilities
//
// Runner Management:
//   - Thread-safe runner registry with name-based lookup
//   - Registration under the display name of the runner's description
//
// Run Orchestration:
//   - Asynchronous (Invoke) and synchronous (InvokeSync) execution
//   - Bounded number of concurrent runs
//   - Cooperative stopping through Stop
//
// Event Processing:
//   - Every listener callback of a run is streamed as an Event
//   - Buffered event channel with backpressure on the run
//
// Callbacks:
//   - BeforeRun and AfterRun around a complete run
//   - OnFailure for every failure reported during a run
//
// # Usage
//
//	engine := engine.New(func(o *engine.Options) {
//	    o.Logger = logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	})
//
//	engine.Register(runner)
//
//	_, events, errs, err := engine.Invoke(ctx, "CalculatorTest")
//	if err != nil {
//	    return err
//	}
//
//	for ev := range events {
//	    fmt.Println(ev.Type, ev.Description)
//	}
//
//	if err := <-errs; err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Failing tests are reported as events and in the Result, never as errors.
// The errors channel carries problems of the run itself: a run that was
// stopped yields core.ErrStoppedByUser, a failing BeforeRun callback aborts
// the run with its error.
package engine
