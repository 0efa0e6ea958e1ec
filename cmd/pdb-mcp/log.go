package main

import (
	"os"

	"github.com/xhd2015/pdb-mcp/config"
	"github.com/xhd2015/pdb-mcp/log"
)

// openLogger appends to the configured log file, since stdout carries
// the MCP stream. "-" logs to stderr.
func openLogger(cfg *config.Config) (log.Logger, func(), error) {
	if cfg.LogFile == "-" {
		return log.New(log.Config{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr}), func() {}, nil
	}

	file, err := log.OpenFile(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(log.Config{Level: cfg.LogLevel, Pretty: true, Output: file})
	return logger, func() { file.Close() }, nil
}
