package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/testmesh/core"
	"github.com/hupe1980/testmesh/notification"
)

// CallbackType defines the lifecycle points of a run where callbacks are
// executed.
//
// Available callback types:
//   - BeforeRun/AfterRun: Around the complete run of a registered runner
//   - OnFailure: For every failure reported during a run
//
// Callbacks are executed synchronously. A BeforeRun callback returning an
// error prevents the run; errors of the other types are logged.
type CallbackType string

const (
	// CallbackBeforeRun is triggered before a runner starts.
	// Use for setup, validation, or instrumentation.
	CallbackBeforeRun CallbackType = "before_run"

	// CallbackAfterRun is triggered after a runner finished, with the Result.
	// Use for cleanup, metrics collection, or reporting.
	CallbackAfterRun CallbackType = "after_run"

	// CallbackOnFailure is triggered for every failing test.
	// Use for alerting or collecting diagnostics.
	CallbackOnFailure CallbackType = "on_failure"
)

// CallbackContext provides context information for callback execution.
type CallbackContext struct {
	// RunID identifies the run.
	RunID string

	// Runner is the name the runner was registered under.
	Runner string

	// Description is the description of the runner.
	Description *core.Description

	// Result is set for AfterRun callbacks.
	Result *notification.Result

	// Failure is set for OnFailure callbacks.
	Failure *core.Failure

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for run lifecycle hooks.
//
// Implementations should be fast: callbacks run synchronously, OnFailure
// callbacks even on the goroutine of the failing test.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	cb := NewFunctionCallback(
//	    CallbackAfterRun,
//	    func(ctx context.Context, callbackCtx *CallbackContext) error {
//	        log.Printf("run %s: %d tests", callbackCtx.RunID, callbackCtx.Result.RunCount())
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager keeps the registered callbacks by type.
//
// Callbacks are executed in registration order, and any callback returning
// an error stops execution of the remaining callbacks of that type.
// Registration and execution are safe for concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates a new callback manager instance.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback to the manager for its type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all registered callbacks for the specified type
// and returns the first error.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := cm.callbacks[callbackType]
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("%s callback failed: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback forwards run lifecycle events to a logging function.
//
// Example:
//
//	callback := NewLoggingCallback(CallbackAfterRun, func(message string) {
//	    log.Printf("[ENGINE] %s", message)
//	})
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the event with the run and, when available, the failure or
// the outcome of the run.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}

	message := fmt.Sprintf("[%s] Run: %s, Runner: %s", c.callbackType, callbackCtx.RunID, callbackCtx.Runner)

	switch {
	case callbackCtx.Failure != nil:
		message += ", Failure: " + callbackCtx.Failure.String()
	case callbackCtx.Result != nil:
		message += fmt.Sprintf(", Tests: %d, Failures: %d", callbackCtx.Result.RunCount(), callbackCtx.Result.FailureCount())
	}

	c.logger(message)

	return nil
}

// failureHook runs the OnFailure callbacks of a run from the notifier.
type failureHook struct {
	notification.BaseListener
	ctx      context.Context
	manager  *CallbackManager
	template CallbackContext
	log      func(msg string, args ...any)
}

func (h *failureHook) ConcurrencySafe() bool { return true }

func (h *failureHook) TestFailure(f *core.Failure) error {
	cbCtx := h.template
	cbCtx.Failure = f

	if err := h.manager.ExecuteCallbacks(h.ctx, CallbackOnFailure, &cbCtx); err != nil {
		h.log("failure callback failed", "run", cbCtx.RunID, "error", err)
	}

	return nil
}
