// Package config loads pdb-mcp settings from defaults, an optional yaml
// file and PDB_MCP_* environment variables. Command-line flags are applied
// on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration.
type Config struct {
	// Python overrides interpreter discovery when set.
	Python string `yaml:"python"`

	// StartupTimeout bounds the wait for the first prompt after spawning.
	StartupTimeout time.Duration `yaml:"startup_timeout"`
	// CommandTimeout bounds the wait for the prompt after a command.
	CommandTimeout time.Duration `yaml:"command_timeout"`
	// QuitGrace is how long End waits after sending "q" before signalling.
	QuitGrace time.Duration `yaml:"quit_grace"`

	// NavigationContext appends "l ." output after stepping commands.
	NavigationContext bool `yaml:"navigation_context"`
	// ClearBreakpointsOnEnd empties the registry when a session ends.
	ClearBreakpointsOnEnd bool `yaml:"clear_breakpoints_on_end"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Listen serves SSE on this address instead of stdio.
	Listen string `yaml:"listen"`
}

const configDirName = ".pdb-mcp"

// Default returns the built-in configuration.
func Default() *Config {
	dir := Dir()
	return &Config{
		StartupTimeout:    10 * time.Second,
		CommandTimeout:    5 * time.Second,
		QuitGrace:         time.Second,
		NavigationContext: true,
		LogLevel:          "info",
		LogFile:           filepath.Join(dir, "pdb-mcp.log"),
	}
}

// Dir returns the per-user configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load builds a Config from defaults, the yaml file at path and the environment.
// A missing file is not an error unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the timeouts are usable.
func (c *Config) Validate() error {
	if c.StartupTimeout <= 0 {
		return fmt.Errorf("startup_timeout must be positive, got %s", c.StartupTimeout)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive, got %s", c.CommandTimeout)
	}
	if c.QuitGrace < 0 {
		return fmt.Errorf("quit_grace must not be negative, got %s", c.QuitGrace)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Python = getEnvOrDefault("PDB_MCP_PYTHON", c.Python)
	c.LogLevel = getEnvOrDefault("PDB_MCP_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnvOrDefault("PDB_MCP_LOG_FILE", c.LogFile)
	c.Listen = getEnvOrDefault("PDB_MCP_LISTEN", c.Listen)

	var err error
	if c.StartupTimeout, err = getEnvDurationOrDefault("PDB_MCP_STARTUP_TIMEOUT", c.StartupTimeout); err != nil {
		return err
	}
	if c.CommandTimeout, err = getEnvDurationOrDefault("PDB_MCP_COMMAND_TIMEOUT", c.CommandTimeout); err != nil {
		return err
	}
	if c.QuitGrace, err = getEnvDurationOrDefault("PDB_MCP_QUIT_GRACE", c.QuitGrace); err != nil {
		return err
	}
	if c.NavigationContext, err = getEnvBoolOrDefault("PDB_MCP_NAVIGATION_CONTEXT", c.NavigationContext); err != nil {
		return err
	}
	if c.ClearBreakpointsOnEnd, err = getEnvBoolOrDefault("PDB_MCP_CLEAR_BREAKPOINTS_ON_END", c.ClearBreakpointsOnEnd); err != nil {
		return err
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBoolOrDefault(key string, defaultValue bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
