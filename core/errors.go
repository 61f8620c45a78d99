package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/hashicorp/go-multierror"
)

// ErrStoppedByUser is returned by the notifier once a stop was requested.
// It is a cancellation signal, never reported as a test failure.
var ErrStoppedByUser = errors.New("test run stopped by user")

// AssumptionViolatedError signals that a precondition of a test does not hold.
// The test is reported as skipped through testAssumptionFailed instead of
// failing.
type AssumptionViolatedError struct {
	Assumption string
	Cause      error
}

// Error implements error.
func (e *AssumptionViolatedError) Error() string {
	msg := "assumption violated"
	if e.Assumption != "" {
		msg += ": " + e.Assumption
	}

	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the cause.
func (e *AssumptionViolatedError) Unwrap() error { return e.Cause }

// Assume returns an AssumptionViolatedError when cond is false.
func Assume(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}

	return &AssumptionViolatedError{Assumption: fmt.Sprintf(format, args...)}
}

// AssumeNoError returns an AssumptionViolatedError wrapping err when err is
// non-nil.
func AssumeNoError(err error) error {
	if err == nil {
		return nil
	}

	return &AssumptionViolatedError{Assumption: "got an error", Cause: err}
}

// IsAssumptionViolated reports whether err carries an AssumptionViolatedError.
func IsAssumptionViolated(err error) bool {
	var av *AssumptionViolatedError
	return errors.As(err, &av)
}

// InitializationError reports every problem found while validating a runner
// at build time.
type InitializationError struct {
	Causes []error
}

// NewInitializationError builds an InitializationError from causes.
func NewInitializationError(causes ...error) *InitializationError {
	return &InitializationError{Causes: causes}
}

// Error implements error.
func (e *InitializationError) Error() string {
	if len(e.Causes) == 1 {
		return "initialization error: " + e.Causes[0].Error()
	}

	msgs := make([]string, 0, len(e.Causes))
	for _, c := range e.Causes {
		msgs = append(msgs, c.Error())
	}

	return fmt.Sprintf("%d initialization errors: %s", len(e.Causes), strings.Join(msgs, "; "))
}

// Unwrap exposes the causes to errors.Is / errors.As.
func (e *InitializationError) Unwrap() []error { return e.Causes }

// OrderingViolation names the way a candidate ordering broke the permutation
// contract.
type OrderingViolation string

const (
	// OrderingAddedItems means the ordering returned an element not in the input.
	OrderingAddedItems OrderingViolation = "added items"
	// OrderingDuplicatedItems means the ordering returned an element twice.
	OrderingDuplicatedItems OrderingViolation = "duplicated items"
	// OrderingRemovedItems means the ordering dropped an input element.
	OrderingRemovedItems OrderingViolation = "removed items"
)

// InvalidOrderingError is raised when an Ordering does not produce a true
// permutation of its input.
type InvalidOrderingError struct {
	Kind OrderingViolation
}

// Error implements error.
func (e *InvalidOrderingError) Error() string { return "Ordering " + string(e.Kind) }

// NoTestsRemainError is raised when a filter removed every child of a
// composite runner.
type NoTestsRemainError struct {
	Filter string
}

// Error implements error.
func (e *NoTestsRemainError) Error() string {
	if e.Filter == "" {
		return "no tests remain"
	}

	return "no tests remain after filter: " + e.Filter
}

// TestTimedOutError is returned when a test exceeded its configured timeout.
// Timeout and Unit keep the configured value for diagnostics; Stack holds the
// worker's stack at the time it was cancelled, if captured.
type TestTimedOutError struct {
	Timeout int64
	Unit    time.Duration
	Stack   string
}

// Error implements error.
func (e *TestTimedOutError) Error() string {
	return fmt.Sprintf("test timed out after %d %s", e.Timeout, UnitName(e.Unit))
}

// Duration returns the configured timeout as a time.Duration.
func (e *TestTimedOutError) Duration() time.Duration {
	return time.Duration(e.Timeout) * e.Unit
}

// UnitName returns the plural English name of a time unit, e.g. "milliseconds".
func UnitName(unit time.Duration) string {
	switch unit {
	case time.Nanosecond:
		return "nanoseconds"
	case time.Microsecond:
		return "microseconds"
	case time.Millisecond:
		return "milliseconds"
	case time.Second:
		return "seconds"
	case time.Minute:
		return "minutes"
	case time.Hour:
		return "hours"
	default:
		return "x " + unit.String()
	}
}

// AssertionError is a plain assertion failure raised by the engine itself
// (e.g. an expected error that never happened).
type AssertionError struct {
	Message string
	Cause   error
}

// Error implements error.
func (e *AssertionError) Error() string { return e.Message }

// Unwrap returns the cause.
func (e *AssertionError) Unwrap() error { return e.Cause }

// MultipleFailures folds errs into a single error: nil for none, the error
// itself for one, and a *multierror.Error holding exactly errs otherwise.
func MultipleFailures(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}

	out := make([]error, len(errs))
	copy(out, errs)

	return &multierror.Error{Errors: out, ErrorFormat: formatFailures}
}

// Errors unpacks a multi-failure into its elements. Any other error is
// returned as a one-element slice; nil yields nil.
func Errors(err error) []error {
	if err == nil {
		return nil
	}

	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) > 0 {
		return merr.WrappedErrors()
	}

	return []error{err}
}

func formatFailures(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = fmt.Sprintf("  %d. %s", i+1, err)
	}

	return fmt.Sprintf("there were %d errors:\n%s", len(errs), strings.Join(msgs, "\n"))
}

// WithStack attaches the current stack trace to err unless it already
// carries one.
func WithStack(err error) error {
	if err == nil {
		return nil
	}

	var ge *goerrors.Error
	if errors.As(err, &ge) {
		return err
	}

	return goerrors.Wrap(err, 1)
}

// FromPanic converts a recovered panic value into an error carrying the stack
// of the panicking goroutine.
func FromPanic(v any) error {
	if err, ok := v.(error); ok {
		return goerrors.Wrap(fmt.Errorf("panic: %w", err), 2)
	}

	return goerrors.Wrap(fmt.Errorf("panic: %v", v), 2)
}

// StackTrace returns the stack recorded on err by WithStack or FromPanic,
// or "" if none was recorded.
func StackTrace(err error) string {
	var ge *goerrors.Error
	if errors.As(err, &ge) {
		return string(ge.Stack())
	}

	var te *TestTimedOutError
	if errors.As(err, &te) {
		return te.Stack
	}

	return ""
}
