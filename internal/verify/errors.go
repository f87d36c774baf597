package verify

import (
	"errors"
	"fmt"
)

// Exit codes returned by the CLI.
const (
	ExitOK          = 0
	ExitAssertion   = 1
	ExitEnvironment = 2
)

// ErrAssertion matches every failed visibility assertion.
var ErrAssertion = errors.New("assertion failed")

// AssertionError reports which check failed.
type AssertionError struct {
	// Index is the 1-based position of the check in the plan.
	Index int
	Check Check
	Err   error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("check %d failed: %v", e.Index, e.Err)
}

func (e *AssertionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrAssertion) true for any AssertionError.
func (e *AssertionError) Is(target error) bool { return target == ErrAssertion }

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrAssertion):
		return ExitAssertion
	default:
		return ExitEnvironment
	}
}
