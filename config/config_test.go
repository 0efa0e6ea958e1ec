package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.StartupTimeout, cfg.StartupTimeout)
	assert.Equal(t, def.CommandTimeout, cfg.CommandTimeout)
	assert.True(t, cfg.NavigationContext)
	assert.False(t, cfg.ClearBreakpointsOnEnd)
}

func TestLoadMissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
python: /opt/py/bin/python3
startup_timeout: 3s
command_timeout: 750ms
quit_grace: 250ms
navigation_context: false
clear_breakpoints_on_end: true
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/opt/py/bin/python3", cfg.Python)
	assert.Equal(t, 3*time.Second, cfg.StartupTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.CommandTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.QuitGrace)
	assert.False(t, cfg.NavigationContext)
	assert.True(t, cfg.ClearBreakpointsOnEnd)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("command_timeout: 2s\n"), 0644))

	t.Setenv("PDB_MCP_COMMAND_TIMEOUT", "9s")
	t.Setenv("PDB_MCP_PYTHON", "/usr/bin/python3.12")
	t.Setenv("PDB_MCP_NAVIGATION_CONTEXT", "false")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "/usr/bin/python3.12", cfg.Python)
	assert.False(t, cfg.NavigationContext)
}

func TestInvalidEnvDuration(t *testing.T) {
	t.Setenv("PDB_MCP_STARTUP_TIMEOUT", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	assert.ErrorContains(t, err, "PDB_MCP_STARTUP_TIMEOUT")
}

func TestValidateRejectsNonPositiveTimeouts(t *testing.T) {
	cfg := Default()
	cfg.CommandTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.QuitGrace = -time.Second
	assert.Error(t, cfg.Validate())
}
