package common

import (
	"errors"
	"strconv"
)

// Sentinel errors for debug operations.
var (
	// ErrInvalidArgument indicates a bad file path, line number or command.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoActiveSession indicates an operation that needs a live debugger
	// was issued while none is running.
	ErrNoActiveSession = errors.New("no active debugging session")

	// ErrBreakpointNotFound indicates a clear of a breakpoint that was never set.
	ErrBreakpointNotFound = errors.New("breakpoint not found")

	// ErrSpawnFailure indicates the debugger executable could not be found or launched.
	ErrSpawnFailure = errors.New("failed to launch debugger")
)

// ExitError describes a debugger process that is no longer running.
// Code is the exit status, -1 when the process was killed by a signal.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit status " + strconv.Itoa(e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }
