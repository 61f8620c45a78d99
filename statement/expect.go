package statement

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/hupe1980/testmesh/core"
)

// Expectation describes the error a test is declared to return.
type Expectation interface {
	Matches(err error) bool
	String() string
}

type asExpectation[T error] struct{}

// ErrorAs expects an error assignable to T anywhere in the error chain.
func ErrorAs[T error]() Expectation { return asExpectation[T]{} }

func (asExpectation[T]) Matches(err error) bool {
	var target T
	return errors.As(err, &target)
}

func (asExpectation[T]) String() string { return reflect.TypeFor[T]().String() }

type isExpectation struct{ target error }

// ErrorIs expects an error matching target through errors.Is.
func ErrorIs(target error) Expectation { return isExpectation{target: target} }

func (e isExpectation) Matches(err error) bool { return errors.Is(err, e.target) }

func (e isExpectation) String() string { return fmt.Sprintf("%q", e.target.Error()) }

// ExpectError wraps next so that it passes only if next fails with an error
// matching expected.
//
// A matching error is swallowed. A non-matching assumption violation is
// passed through unchanged so the test is still skipped. Any other error is
// wrapped in an AssertionError naming both types; no error at all yields an
// AssertionError naming the expected one.
func ExpectError(next core.Statement, expected Expectation) core.Statement {
	return core.StatementFunc(func(ctx context.Context) error {
		err := evaluate(ctx, next)

		switch {
		case err == nil:
			return &core.AssertionError{Message: "expected error: " + expected.String()}
		case expected.Matches(err):
			return nil
		case core.IsAssumptionViolated(err):
			return err
		default:
			return &core.AssertionError{
				Message: fmt.Sprintf("unexpected error, expected<%s> but was<%T>: %v", expected, err, err),
				Cause:   err,
			}
		}
	})
}
