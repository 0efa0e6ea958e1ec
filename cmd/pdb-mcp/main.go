package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/xhd2015/pdb-mcp/config"
	"github.com/xhd2015/pdb-mcp/debug"
	tools "github.com/xhd2015/pdb-mcp/tools/debug"
)

// install: go install ./cmd/pdb-mcp
const version = "0.3.0"

type serveFlags struct {
	configPath     string
	listen         string
	python         string
	logLevel       string
	logFile        string
	startupTimeout time.Duration
	commandTimeout time.Duration
	quitGrace      time.Duration
	noContext      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pdb tools over stdio, or SSE with --listen",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, flags)
		},
	}
	addServeFlags(serveCmd, flags)

	rootCmd := &cobra.Command{
		Use:   "pdb-mcp",
		Short: "MCP server bridging an AI client and the Python debugger",
		Long: `pdb-mcp runs Python scripts and pytest files under pdb and exposes the
debugging session as MCP tools. Without a subcommand it serves on stdio.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, flags)
		},
	}
	addServeFlags(rootCmd, flags)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pdb-mcp %s\n", version)
		},
	})
	return rootCmd
}

func addServeFlags(cmd *cobra.Command, flags *serveFlags) {
	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "Config file (default ~/.pdb-mcp/config.yaml)")
	f.StringVar(&flags.listen, "listen", "", "Serve SSE on this address (e.g. 127.0.0.1:12764) instead of stdio")
	f.StringVar(&flags.python, "python", "", "Python interpreter to use instead of discovery")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&flags.logFile, "log-file", "", "Log file, '-' for stderr (default ~/.pdb-mcp/pdb-mcp.log)")
	f.DurationVar(&flags.startupTimeout, "startup-timeout", 0, "Wait for the first pdb prompt")
	f.DurationVar(&flags.commandTimeout, "command-timeout", 0, "Wait for the pdb prompt after a command")
	f.DurationVar(&flags.quitGrace, "quit-grace", 0, "Wait after 'q' before signalling the debugger")
	f.BoolVar(&flags.noContext, "no-navigation-context", false, "Do not list the current line after stepping commands")
}

// loadConfig layers command-line flags over the config file and environment.
func loadConfig(cmd *cobra.Command, flags *serveFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath, flags.configPath != "")
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("listen") {
		cfg.Listen = flags.listen
	}
	if changed("python") {
		cfg.Python = flags.python
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = flags.logFile
	}
	if changed("startup-timeout") {
		cfg.StartupTimeout = flags.startupTimeout
	}
	if changed("command-timeout") {
		cfg.CommandTimeout = flags.commandTimeout
	}
	if changed("quit-grace") {
		cfg.QuitGrace = flags.quitGrace
	}
	if changed("no-navigation-context") {
		cfg.NavigationContext = !flags.noContext
	}
	return cfg, cfg.Validate()
}

func serve(cmd *cobra.Command, flags *serveFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	manager, err := debug.NewSessionManager(cfg, logger)
	if err != nil {
		return err
	}
	defer manager.Close()

	s := server.NewMCPServer(
		"Python pdb Debugger MCP",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	if err := tools.RegisterTools(s, tools.ToolOptions{
		Manager:           manager,
		Logger:            logger,
		NavigationContext: cfg.NavigationContext,
	}); err != nil {
		return err
	}

	if cfg.Listen == "" {
		logger.Infof("MCP server listening on stdio (pid %d)", os.Getpid())
		if err := server.ServeStdio(s); err != nil {
			logger.Errorf("server error: %v", err)
			return err
		}
		return nil
	}

	logger.Infof("MCP server listening on %s", cfg.Listen)
	sseServer := server.NewSSEServer(s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sseServer.Shutdown(shutdownCtx)
	}()

	if err := sseServer.Start(cfg.Listen); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
