package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/xhd2015/pdb-mcp/debug/common"
	"github.com/xhd2015/pdb-mcp/debug/pdb"
)

const untrackedBreakpointNote = "Note: breakpoints set with raw pdb commands are not tracked; they are not listed by list_breakpoints and not restored on restart. Use set_breakpoint instead."

func formatTeardown(sb *strings.Builder, label string, torn *common.Teardown) {
	if torn == nil {
		return
	}
	how := "quit"
	if torn.Killed {
		how = "killed"
	}
	fmt.Fprintf(sb, "%s %s (pid %d, %s, %s)\n", label, torn.SessionID, torn.PID, torn.File, how)
}

// formatOutcome describes how an exchange ended when it is not a plain prompt.
func formatOutcome(sb *strings.Builder, res *common.Result) {
	if res.ProgramFinished {
		sb.WriteString("\n[The program finished.]")
	}
	switch res.Outcome {
	case common.OutcomeTimeout:
		sb.WriteString("\n[No prompt yet: the program is still running or waiting for input. Output printed later is returned with the next command.]")
	case common.OutcomeExited:
		if res.ExitCode != nil {
			fmt.Fprintf(sb, "\n[The debugger exited with code %d. Use restart_debug or start_debug to debug again.]", *res.ExitCode)
		} else {
			sb.WriteString("\n[The debugger exited. Use restart_debug or start_debug to debug again.]")
		}
	}
}

func formatReplay(sb *strings.Builder, res *common.Result) {
	if len(res.Replayed) > 0 {
		fmt.Fprintf(sb, "\n\nRestored %d breakpoint(s):\n", len(res.Replayed))
		for _, ex := range res.Replayed {
			fmt.Fprintf(sb, "%s\n%s\n", ex.Command, strings.TrimSpace(ex.Output))
		}
	}
	if res.ReplayPending {
		sb.WriteString("\n\nBreakpoints will be restored once the debugger reaches its prompt.")
	}
}

func formatStart(res *common.Result, verb string) string {
	var sb strings.Builder
	formatTeardown(&sb, "Terminated previous session", res.TornDown)
	fmt.Fprintf(&sb, "Debugging session %s: %s\n", verb, res.SessionID)
	if res.Target != nil {
		fmt.Fprintf(&sb, "File: %s\n", res.Target.File)
		fmt.Fprintf(&sb, "Command: %s\n", pdb.CommandLine(res.Target.Argv))
		fmt.Fprintf(&sb, "Working directory: %s\n", res.Target.WorkDir)
	}
	sb.WriteString("\n")
	sb.WriteString(res.Output)
	formatOutcome(&sb, res)
	formatReplay(&sb, res)
	return sb.String()
}

func formatCommand(res *common.Result) string {
	var sb strings.Builder
	sb.WriteString("Command output:\n")
	sb.WriteString(res.Output)
	formatOutcome(&sb, res)
	formatReplay(&sb, res)
	if res.UntrackedBreakpoint {
		sb.WriteString("\n\n")
		sb.WriteString(untrackedBreakpointNote)
	}
	return sb.String()
}

func formatExamine(name string, res *common.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Variable examination of %s:\n\n", name)
	sb.WriteString(res.Output)
	formatOutcome(&sb, res)
	return sb.String()
}

func formatLive(sb *strings.Builder, live []common.Exchange) {
	for _, ex := range live {
		fmt.Fprintf(sb, "\n%s\n%s", ex.Command, strings.TrimSpace(ex.Output))
		if ex.Outcome == common.OutcomeTimeout {
			sb.WriteString("\n[No prompt yet.]")
		}
	}
}

func formatLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = fmt.Sprint(line)
	}
	return strings.Join(parts, ", ")
}

func formatSetBreakpoint(res *common.BreakpointResult) string {
	var sb strings.Builder
	if res.AlreadySet {
		fmt.Fprintf(&sb, "Breakpoint already exists at %s:%d", res.File, res.Line)
	} else {
		fmt.Fprintf(&sb, "Breakpoint set at %s:%d", res.File, res.Line)
	}
	if len(res.Live) == 0 && !res.AlreadySet {
		sb.WriteString(" (recorded; it will be applied when a session starts)")
	}
	formatLive(&sb, res.Live)
	fmt.Fprintf(&sb, "\nBreakpoints in file: %s", formatLines(res.Lines))
	return sb.String()
}

func formatClearBreakpoint(res *common.BreakpointResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Breakpoint cleared at %s:%d", res.File, res.Line)
	formatLive(&sb, res.Live)
	if len(res.Lines) > 0 {
		fmt.Fprintf(&sb, "\nRemaining in file: %s", formatLines(res.Lines))
	}
	return sb.String()
}

func formatClearAll(res *common.BreakpointResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cleared %d breakpoint(s)", res.Removed)
	formatLive(&sb, res.Live)
	return sb.String()
}

func formatBreakpointList(list []common.FileBreakpoints, live *common.Result) string {
	var sb strings.Builder
	if len(list) == 0 {
		sb.WriteString("No breakpoints set.")
	} else {
		sb.WriteString("Tracked breakpoints:\n")
		for _, fb := range list {
			fmt.Fprintf(&sb, "- %s: %s\n", fb.File, formatLines(fb.Lines))
		}
	}
	if live != nil {
		sb.WriteString("\n\nDebugger breakpoints:\n")
		sb.WriteString(strings.TrimSpace(live.Output))
	}
	return sb.String()
}

func formatStatus(status *common.Status) string {
	var sb strings.Builder
	switch status.State {
	case common.StateNotStarted:
		fmt.Fprintf(&sb, "No debugging session has been started.\nTracked breakpoints: %d", status.BreakpointCount)
		return sb.String()
	case common.StateTerminated:
		fmt.Fprintf(&sb, "Debugging session %s has ended.\n", status.SessionID)
	default:
		fmt.Fprintf(&sb, "Debugging session %s is running.\n", status.SessionID)
	}

	fmt.Fprintf(&sb, "State: %s\n", status.State)
	if status.Phase != common.PhaseNone {
		fmt.Fprintf(&sb, "Phase: %s\n", status.Phase)
	}
	if status.Target != nil {
		fmt.Fprintf(&sb, "File: %s\n", status.Target.File)
		mode := "pdb"
		if status.Target.UsePytest {
			mode = "pytest (" + string(status.Target.PytestMode) + ")"
		}
		fmt.Fprintf(&sb, "Mode: %s\n", mode)
		fmt.Fprintf(&sb, "Command: %s\n", pdb.CommandLine(status.Target.Argv))
		fmt.Fprintf(&sb, "Working directory: %s\n", status.Target.WorkDir)
	}
	if !status.StartedAt.IsZero() {
		fmt.Fprintf(&sb, "Started: %s\n", status.StartedAt.Format(time.RFC3339))
	}
	if status.ExitCode != nil {
		fmt.Fprintf(&sb, "Exit code: %d\n", *status.ExitCode)
	}
	if p := status.Process; p != nil {
		fmt.Fprintf(&sb, "PID: %d (%s, rss %d KiB)\n", p.PID, p.Status, p.RSSBytes/1024)
	}
	fmt.Fprintf(&sb, "Tracked breakpoints: %d\n", status.BreakpointCount)
	if status.LastOutput != "" {
		fmt.Fprintf(&sb, "\nLast output:\n%s", status.LastOutput)
	}
	return sb.String()
}

func formatEnd(res *common.Result) string {
	var sb strings.Builder
	formatTeardown(&sb, "Terminated session", res.TornDown)
	sb.WriteString(res.Output)
	return sb.String()
}
