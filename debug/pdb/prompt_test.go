package pdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhd2015/pdb-mcp/debug/common"
)

func readTranscript(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "transcripts", name))
	require.NoError(t, err)
	return string(data)
}

func TestMatchPrompt(t *testing.T) {
	tests := []struct {
		name    string
		matcher PromptMatcher
		output  string
		want    bool
	}{
		{"plain prompt", PlainPrompt, "-> x = 1\n(Pdb) ", true},
		{"trailing newline", PlainPrompt, "(Pdb) \n", true},
		{"crlf", PlainPrompt, "-> x = 1\r\n(Pdb) \r\n", true},
		{"after unterminated print", PlainPrompt, "partial(Pdb) ", true},
		{"prompt not last", PlainPrompt, "(Pdb) \nstill running\n", false},
		{"prompt inside text", PlainPrompt, "print('(Pdb) x')\n", false},
		{"empty", PlainPrompt, "", false},
		{"pdbpp not plain", PlainPrompt, "(Pdb++) ", false},
		{"pdbpp with pytest", PytestPrompt, "(Pdb++) ", true},
		{"plain with pytest", PytestPrompt, "(Pdb) ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.matcher.MatchPrompt(tt.output))
		})
	}
}

func TestMatchPromptTranscripts(t *testing.T) {
	assert.True(t, PlainPrompt.MatchPrompt(readTranscript(t, "plain_start.txt")))
	assert.True(t, PytestPrompt.MatchPrompt(readTranscript(t, "pytest_pdb_failure.txt")))
	assert.False(t, PytestPrompt.MatchPrompt(readTranscript(t, "pytest_summary.txt")))
}

func TestMatcherFor(t *testing.T) {
	assert.Equal(t, "pdb", MatcherFor(common.Target{}).Name())
	assert.Equal(t, "pytest", MatcherFor(common.Target{UsePytest: true, PytestMode: common.PytestModePdb}).Name())
	assert.Equal(t, "pytest", MatcherFor(common.Target{UsePytest: true, PytestMode: common.PytestModeTrace}).Name())
	assert.Equal(t, "pdb", MatcherFor(common.Target{UsePytest: true, PytestMode: common.PytestModeManual}).Name())
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "(Pdb)", LastLine("a\nb\n(Pdb) \n\n"))
	assert.Equal(t, "only", LastLine("only"))
	assert.Equal(t, "", LastLine("\n\n"))
}

func TestProgramFinished(t *testing.T) {
	assert.True(t, ProgramFinished(readTranscript(t, "plain_finished.txt")))
	assert.True(t, ProgramFinished(readTranscript(t, "pytest_summary.txt")))
	assert.True(t, ProgramFinished("The program exited via sys.exit(). Exit status: 2\n> /work/proj/script.py(1)<module>()\n(Pdb) "))
	assert.False(t, ProgramFinished(readTranscript(t, "plain_start.txt")))
	assert.False(t, ProgramFinished(readTranscript(t, "pytest_pdb_failure.txt")))
}

func TestHasPdbError(t *testing.T) {
	assert.True(t, HasPdbError("*** NameError: name 'y' is not defined\n(Pdb) "))
	assert.True(t, HasPdbError("b x.py:99\n*** Line 99 out of range for x.py\n"))
	assert.False(t, HasPdbError("Breakpoint 1 at /tmp/x.py:3\n(Pdb) "))
	assert.False(t, HasPdbError("value *** starred\n"))
}

func TestIsBreakpointCommand(t *testing.T) {
	for _, cmd := range []string{"b x.py:3", "break 12", "tbreak foo", "cl", "clear 1", "cl x.py:3"} {
		assert.True(t, IsBreakpointCommand(cmd), cmd)
	}
	for _, cmd := range []string{"b", "break", "bt", "p b", "", "  ", "c"} {
		assert.False(t, IsBreakpointCommand(cmd), cmd)
	}
}

func TestIsNavigationCommand(t *testing.T) {
	for _, cmd := range []string{"n", "next", "s", "step", "c", "continue", "r", "unt 12", "until"} {
		assert.True(t, IsNavigationCommand(cmd), cmd)
	}
	for _, cmd := range []string{"p x", "l", "w", "b 3", ""} {
		assert.False(t, IsNavigationCommand(cmd), cmd)
	}
}
