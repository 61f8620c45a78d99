package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssume(t *testing.T) {
	assert.NoError(t, Assume(true, "ok"))

	err := Assume(false, "needs %s", "network")
	assert.True(t, IsAssumptionViolated(err))
	assert.Equal(t, "assumption violated: needs network", err.Error())

	wrapped := fmt.Errorf("setup: %w", err)
	assert.True(t, IsAssumptionViolated(wrapped))

	cause := errors.New("dial tcp")
	assert.ErrorIs(t, AssumeNoError(cause), cause)
	assert.NoError(t, AssumeNoError(nil))
}

func TestTestTimedOutError(t *testing.T) {
	err := &TestTimedOutError{Timeout: 50, Unit: time.Millisecond}

	assert.Equal(t, "test timed out after 50 milliseconds", err.Error())
	assert.Equal(t, 50*time.Millisecond, err.Duration())
	assert.Equal(t, "seconds", UnitName(time.Second))
}

func TestInvalidOrderingError(t *testing.T) {
	assert.Equal(t, "Ordering added items", (&InvalidOrderingError{Kind: OrderingAddedItems}).Error())
	assert.Equal(t, "Ordering duplicated items", (&InvalidOrderingError{Kind: OrderingDuplicatedItems}).Error())
	assert.Equal(t, "Ordering removed items", (&InvalidOrderingError{Kind: OrderingRemovedItems}).Error())
}

func TestMultipleFailures(t *testing.T) {
	e1 := errors.New("one")
	e2 := errors.New("two")

	assert.NoError(t, MultipleFailures(nil))
	assert.Same(t, e1, MultipleFailures([]error{e1}))

	err := MultipleFailures([]error{e1, e2})
	require.Error(t, err)
	assert.Equal(t, []error{e1, e2}, Errors(err))
	assert.ErrorIs(t, err, e2)
	assert.Contains(t, err.Error(), "there were 2 errors")

	assert.Equal(t, []error{e1}, Errors(e1))
	assert.Nil(t, Errors(nil))
}

func TestInitializationError(t *testing.T) {
	e1 := errors.New("method a has no body")
	e2 := errors.New("duplicate test b")

	err := NewInitializationError(e1, e2)
	assert.ErrorIs(t, err, e2)
	assert.Equal(t, "2 initialization errors: method a has no body; duplicate test b", err.Error())
	assert.Equal(t, "initialization error: method a has no body", NewInitializationError(e1).Error())
}

func TestWithStack(t *testing.T) {
	base := errors.New("plain")
	err := WithStack(base)

	assert.ErrorIs(t, err, base)
	assert.NotEmpty(t, StackTrace(err))
	assert.Same(t, err, WithStack(err))
	assert.Empty(t, StackTrace(base))
	assert.NoError(t, WithStack(nil))
}

func TestFailure(t *testing.T) {
	d := NewTestDescription("C", "a")
	f := NewFailure(d, WithStack(errors.New("bad")))

	assert.Equal(t, "a(C)", f.TestHeader())
	assert.Equal(t, "bad", f.Message())
	assert.Equal(t, "a(C): bad", f.String())
	assert.Contains(t, f.Trace(), "bad\n")
}
