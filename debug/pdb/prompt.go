package pdb

import (
	"regexp"
	"strings"

	"github.com/xhd2015/pdb-mcp/debug/common"
)

// PromptMatcher decides whether the accumulated debugger output ends
// with the interactive prompt, i.e. the debugger waits for a command.
type PromptMatcher interface {
	Name() string
	MatchPrompt(output string) bool
}

type regexpPrompt struct {
	name string
	re   *regexp.Regexp
}

func (p *regexpPrompt) Name() string { return p.name }

// The prompt has no trailing newline and may be preceded on the same line
// by program output that was not newline-terminated, so only the suffix of
// the last non-empty line is tested.
func (p *regexpPrompt) MatchPrompt(output string) bool {
	return p.re.MatchString(LastLine(output))
}

var (
	// PlainPrompt matches the builtin pdb prompt.
	PlainPrompt PromptMatcher = &regexpPrompt{name: "pdb", re: regexp.MustCompile(`\(Pdb\)$`)}

	// PytestPrompt also accepts the pdb++ prompt that pytest picks up
	// when pdbpp is installed in the environment.
	PytestPrompt PromptMatcher = &regexpPrompt{name: "pytest", re: regexp.MustCompile(`\(Pdb(\+\+)?\)$`)}
)

// MatcherFor returns the prompt matcher for a target.
func MatcherFor(target common.Target) PromptMatcher {
	if !target.UsePytest {
		return PlainPrompt
	}
	switch target.PytestMode {
	case common.PytestModeManual:
		// pytest runs under the builtin pdb
		return PlainPrompt
	default:
		return PytestPrompt
	}
}

// LastLine returns the last non-empty line of output with trailing
// whitespace removed.
func LastLine(output string) string {
	trimmed := strings.TrimRight(output, " \t\r\n")
	if i := strings.LastIndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return strings.TrimLeft(trimmed, "\r")
}

var finishedPattern = regexp.MustCompile(`(?m)^(The program finished and will be restarted|The program exited via sys\.exit\(\).*|=+ .*\b(passed|failed|error|errors|no tests ran)\b.* in [0-9.]+s.*=+)\s*$`)

// ProgramFinished reports whether output says the debugged program ran to
// completion.
func ProgramFinished(output string) bool {
	return finishedPattern.MatchString(strings.ReplaceAll(output, "\r", ""))
}

var pdbErrorPattern = regexp.MustCompile(`(?m)^\*\*\* `)

// HasPdbError reports whether output contains a pdb error line ("*** ...").
func HasPdbError(output string) bool {
	return pdbErrorPattern.MatchString(output)
}

var breakpointCommands = map[string]bool{
	"b":      true,
	"break":  true,
	"tbreak": true,
	"cl":     true,
	"clear":  true,
}

// IsBreakpointCommand reports whether a raw command changes pdb breakpoints.
// A bare "b" or "break" only lists them.
func IsBreakpointCommand(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 || !breakpointCommands[fields[0]] {
		return false
	}
	switch fields[0] {
	case "b", "break":
		return len(fields) > 1
	}
	return true
}

var navigationCommands = map[string]bool{
	"n": true, "next": true,
	"s": true, "step": true,
	"c": true, "cont": true, "continue": true,
	"r": true, "return": true,
	"unt": true, "until": true,
}

// IsNavigationCommand reports whether command moves the current line.
func IsNavigationCommand(command string) bool {
	fields := strings.Fields(command)
	return len(fields) > 0 && navigationCommands[fields[0]]
}
