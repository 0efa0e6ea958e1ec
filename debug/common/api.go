package common

import (
	"context"
	"time"
)

// SessionManager is the interface the tools package drives.
// Exactly one debugging session exists behind it at any time.
type SessionManager interface {
	// Start launches a new debugger, tearing down any running session first
	Start(ctx context.Context, req StartRequest) (*Result, error)

	// Send writes one line of debugger syntax and captures the reply
	Send(ctx context.Context, command string) (*Result, error)

	// Examine prints the type, value and attributes of a variable in one exchange
	Examine(ctx context.Context, name string) (*Result, error)

	// Restart respawns the debugger with the last target
	Restart(ctx context.Context) (*Result, error)

	// End terminates the debugger
	End(ctx context.Context) (*Result, error)

	// SetBreakpoint records a breakpoint and applies it to the live debugger if any
	SetBreakpoint(ctx context.Context, file string, line int) (*BreakpointResult, error)

	// ClearBreakpoint removes a breakpoint and clears it in the live debugger if any
	ClearBreakpoint(ctx context.Context, file string, line int) (*BreakpointResult, error)

	// ClearAllBreakpoints empties the registry
	ClearAllBreakpoints(ctx context.Context) (*BreakpointResult, error)

	// ListBreakpoints returns the registry contents grouped by file
	ListBreakpoints() []FileBreakpoints

	// Status reports the session state without touching the debugger
	Status() *Status
}

// State is the lifecycle state of the session.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateRunning    State = "RUNNING"
	StateTerminated State = "TERMINATED"
)

// Phase refines StateRunning.
type Phase string

const (
	PhaseNone Phase = ""
	// PhaseAtPrompt means the debugger printed its prompt and waits for input.
	PhaseAtPrompt Phase = "AT_PROMPT"
	// PhaseBusy means the last read timed out before a prompt appeared.
	PhaseBusy Phase = "BUSY"
	// PhaseExited means the debugger process is gone.
	PhaseExited Phase = "EXITED"
)

// PytestMode selects how pytest hands control to pdb.
type PytestMode string

const (
	// PytestModePdb stops only on failures (pytest --pdb).
	PytestModePdb PytestMode = "pdb"
	// PytestModeTrace stops at the start of every test (pytest --trace).
	PytestModeTrace PytestMode = "trace"
	// PytestModeManual runs pytest under pdb, stopping before collection.
	PytestModeManual PytestMode = "manual"
)

// PytestModes lists the valid pytest modes.
var PytestModes = []PytestMode{PytestModePdb, PytestModeTrace, PytestModeManual}

// Valid reports whether m is a known pytest mode.
func (m PytestMode) Valid() bool {
	for _, mode := range PytestModes {
		if m == mode {
			return true
		}
	}
	return false
}

// StartRequest holds the caller-facing start_debug arguments.
type StartRequest struct {
	File       string
	UsePytest  bool
	Args       string
	PytestMode PytestMode
}

// Target is the resolved command line of a session, kept for restart.
type Target struct {
	File       string
	UsePytest  bool
	PytestMode PytestMode
	Args       []string
	Argv       []string
	WorkDir    string
	Env        []string
}

// Outcome tells how an exchange with the debugger ended.
type Outcome string

const (
	OutcomePrompt  Outcome = "prompt"
	OutcomeTimeout Outcome = "timeout"
	OutcomeExited  Outcome = "exited"
)

// Teardown describes a session torn down as part of an operation.
type Teardown struct {
	SessionID string
	PID       int
	File      string
	Killed    bool
}

// Result is the outcome of a lifecycle or inspection operation.
type Result struct {
	SessionID string
	Command   string
	Output    string
	Outcome   Outcome
	ExitCode  *int

	// ProgramFinished is set when pdb reports the script ran to completion.
	ProgramFinished bool

	// UntrackedBreakpoint is set when a raw command looks like a native
	// breakpoint command, which the registry does not follow.
	UntrackedBreakpoint bool

	Target   *Target
	Replayed []Exchange
	// ReplayPending means the debugger has not reached a prompt yet,
	// so registry breakpoints will be applied at the next prompt.
	ReplayPending bool
	TornDown      *Teardown
}

// Exchange is one command written to the debugger and the text it produced.
type Exchange struct {
	Command string
	Output  string
	Outcome Outcome
}

// Breakpoint is one file:line entry of the registry.
type Breakpoint struct {
	File string
	Line int
}

// FileBreakpoints groups the breakpoints of one file, lines ascending.
type FileBreakpoints struct {
	File  string
	Lines []int
}

// BreakpointResult is the outcome of a breakpoint operation.
type BreakpointResult struct {
	File  string
	Line  int
	Lines []int
	// AlreadySet means the breakpoint was in the registry before the call.
	AlreadySet bool
	// Live is the debugger exchange when a session was running.
	Live []Exchange
	// Removed counts entries dropped by ClearAllBreakpoints.
	Removed int
}

// ProcessInfo is a snapshot of the debugger process read from the OS.
type ProcessInfo struct {
	PID       int
	Status    string
	RSSBytes  uint64
	CreatedAt time.Time
}

// Status is a read-only view of the session.
type Status struct {
	SessionID       string
	State           State
	Phase           Phase
	Target          *Target
	LastOutput      string
	ExitCode        *int
	StartedAt       time.Time
	BreakpointCount int
	Process         *ProcessInfo
}
