package util

import "github.com/google/uuid"

// NewID returns a random identifier for runs and invocations.
func NewID() string { return uuid.NewString() }
