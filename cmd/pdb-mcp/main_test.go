package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhd2015/pdb-mcp/config"
)

func parseServeFlags(t *testing.T, args ...string) (*cobra.Command, *serveFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "serve"}
	flags := &serveFlags{}
	addServeFlags(cmd, flags)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, flags
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "pdb-mcp "+version+"\n", out.String())
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "command_timeout: 7s\npython: /opt/py/bin/python\nlisten: 127.0.0.1:1\n")

	cmd, flags := parseServeFlags(t, "--config", path, "--command-timeout", "2s", "--no-navigation-context")
	cfg, err := loadConfig(cmd, flags)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "/opt/py/bin/python", cfg.Python)
	assert.Equal(t, "127.0.0.1:1", cfg.Listen)
	assert.False(t, cfg.NavigationContext)
}

func TestLoadConfigRequiresExplicitFile(t *testing.T) {
	cmd, flags := parseServeFlags(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := loadConfig(cmd, flags)
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadTimeout(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")

	cmd, flags := parseServeFlags(t, "--config", path, "--startup-timeout", "-1s")
	_, err := loadConfig(cmd, flags)
	assert.Error(t, err)
}

func TestOpenLoggerWritesFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "pdb-mcp.log")

	logger, closeLog, err := openLogger(cfg)
	require.NoError(t, err)
	logger.Infof("serving %s", "stdio")
	closeLog()

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "serving stdio"), string(data))
}
