package log

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})

	l.Debugf("debug %d", 1)
	l.Info("info message")
	l.Warnf("warn %s", "message")
	l.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestWithAddsField(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Output: &buf}).With("session", "session-42")

	l.Infof("started")
	assert.Contains(t, buf.String(), `"session":"session-42"`)
	assert.Contains(t, buf.String(), `"message":"started"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.TraceLevel, ParseLevel(" trace "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestOpenFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pdb-mcp.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	l := New(Config{Level: "info", Output: f, Pretty: true})
	l.Info("to file")
	require.NoError(t, f.Sync())
	assert.FileExists(t, path)
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Errorf("nothing %d", 1)
	l.With("k", "v").Info("still nothing")
}
