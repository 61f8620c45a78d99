package core

// Failure pairs the Description of a test with the error that made it fail.
// Failures are produced during a run and never mutated afterwards.
type Failure struct {
	Description *Description
	Err         error
}

// NewFailure creates a Failure.
func NewFailure(d *Description, err error) *Failure {
	return &Failure{Description: d, Err: err}
}

// TestHeader returns the display name of the failed test.
func (f *Failure) TestHeader() string { return f.Description.DisplayName() }

// Message returns the error message.
func (f *Failure) Message() string {
	if f.Err == nil {
		return ""
	}

	return f.Err.Error()
}

// Trace returns the message followed by any recorded stack trace.
func (f *Failure) Trace() string {
	stack := StackTrace(f.Err)
	if stack == "" {
		return f.Message()
	}

	return f.Message() + "\n" + stack
}

// String implements fmt.Stringer.
func (f *Failure) String() string { return f.TestHeader() + ": " + f.Message() }
