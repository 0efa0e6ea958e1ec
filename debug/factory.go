package debug

import (
	"fmt"

	"github.com/xhd2015/pdb-mcp/config"
	"github.com/xhd2015/pdb-mcp/debug/breakpoints"
	"github.com/xhd2015/pdb-mcp/debug/pdb"
	"github.com/xhd2015/pdb-mcp/debug/pyenv"
	"github.com/xhd2015/pdb-mcp/log"
)

// NewSessionManager creates the pdb session manager described by cfg
func NewSessionManager(cfg *config.Config, logger log.Logger) (*pdb.Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.Nop()
	}

	return pdb.NewManager(breakpoints.NewRegistry(), pyenv.NewDiscoverer(cfg.Python), pdb.Options{
		StartupTimeout:        cfg.StartupTimeout,
		CommandTimeout:        cfg.CommandTimeout,
		QuitGrace:             cfg.QuitGrace,
		ClearBreakpointsOnEnd: cfg.ClearBreakpointsOnEnd,
		Logger:                logger.With("component", "pdb"),
	}), nil
}
