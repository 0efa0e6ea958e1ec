package debug

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xhd2015/pdb-mcp/debug/common"
	"github.com/xhd2015/pdb-mcp/debug/pdb"
	"github.com/xhd2015/pdb-mcp/log"
)

// navigationContextCommand lists the source around the current line.
const navigationContextCommand = "l ."

type ToolOptions struct {
	Manager common.SessionManager
	Logger  log.Logger
	// NavigationContext appends the current source listing after stepping commands.
	NavigationContext bool
}

// RegisterTools registers the debug tools with the MCP server
func RegisterTools(s *server.MCPServer, opts ToolOptions) error {
	if opts.Manager == nil {
		return fmt.Errorf("no session manager")
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	sessionManager := opts.Manager

	if err := registerStartDebugTool(s, sessionManager); err != nil {
		return err
	}
	if err := registerSendCommandTool(s, sessionManager, opts); err != nil {
		return err
	}
	if err := registerSetBreakpointTool(s, sessionManager); err != nil {
		return err
	}
	if err := registerClearBreakpointTool(s, sessionManager); err != nil {
		return err
	}
	registerListBreakpointsTool(s, sessionManager)
	registerClearAllBreakpointsTool(s, sessionManager)
	registerRestartDebugTool(s, sessionManager)
	if err := registerExamineVariableTool(s, sessionManager); err != nil {
		return err
	}
	registerGetDebugStatusTool(s, sessionManager)
	registerEndDebugTool(s, sessionManager)

	return nil
}

// toolError renders a failed operation, with any partial debugger output.
func toolError(action string, err error, output string) *mcp.CallToolResult {
	msg := fmt.Sprintf("Failed to %s: %v", action, err)
	if output != "" {
		msg += "\n\nOutput so far:\n" + output
	}
	return mcp.NewToolResultError(msg)
}

// registerStartDebugTool registers the start debug tool
func registerStartDebugTool(s *server.MCPServer, sessionManager common.SessionManager) error {
	tool, err := newTypedTool("start_debug",
		"Start a pdb debugging session for a Python script or pytest file. Any running session is terminated first. Tracked breakpoints are restored once pdb shows its prompt.",
		StartDebugInput{},
	)
	if err != nil {
		return err
	}

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input StartDebugInput
		if err := bindArguments(request, &input); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := sessionManager.Start(ctx, common.StartRequest{
			File:       input.FilePath,
			UsePytest:  input.UsePytest,
			Args:       input.Args,
			PytestMode: common.PytestMode(input.PytestDebugMode),
		})
		if err != nil {
			output := ""
			if res != nil {
				output = res.Output
			}
			return toolError("start debugging session", err, output), nil
		}
		return mcp.NewToolResultText(formatStart(res, "started")), nil
	})
	return nil
}

// registerSendCommandTool registers the raw pdb command tool
func registerSendCommandTool(s *server.MCPServer, sessionManager common.SessionManager, opts ToolOptions) error {
	tool, err := newTypedTool("send_pdb_command",
		"Send one line of pdb syntax to the running debugger and return its output up to the next prompt. Stepping commands also show the current source context.",
		SendCommandInput{},
	)
	if err != nil {
		return err
	}

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input SendCommandInput
		if err := bindArguments(request, &input); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := sessionManager.Send(ctx, input.Command)
		if err != nil {
			output := ""
			if res != nil {
				output = res.Output
			}
			return toolError("send command", err, output), nil
		}

		text := formatCommand(res)
		if opts.NavigationContext && pdb.IsNavigationCommand(input.Command) && res.Outcome == common.OutcomePrompt && !res.ProgramFinished {
			listing, err := sessionManager.Send(ctx, navigationContextCommand)
			if err != nil {
				opts.Logger.Debugf("navigation context after %q: %v", input.Command, err)
			} else if listing.Outcome == common.OutcomePrompt {
				text += "\n\nCurrent line context:\n" + listing.Output
			}
		}
		return mcp.NewToolResultText(text), nil
	})
	return nil
}

// registerSetBreakpointTool registers the set breakpoint tool
func registerSetBreakpointTool(s *server.MCPServer, sessionManager common.SessionManager) error {
	tool, err := newTypedTool("set_breakpoint",
		"Set a breakpoint at file:line. It is tracked across restarts and applied to the running debugger, if any.",
		BreakpointInput{},
	)
	if err != nil {
		return err
	}

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input BreakpointInput
		if err := bindArguments(request, &input); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := sessionManager.SetBreakpoint(ctx, input.FilePath, input.LineNumber)
		if err != nil {
			return toolError("set breakpoint", err, ""), nil
		}
		return mcp.NewToolResultText(formatSetBreakpoint(res)), nil
	})
	return nil
}

// registerClearBreakpointTool registers the clear breakpoint tool
func registerClearBreakpointTool(s *server.MCPServer, sessionManager common.SessionManager) error {
	tool, err := newTypedTool("clear_breakpoint",
		"Clear a breakpoint previously set with set_breakpoint.",
		BreakpointInput{},
	)
	if err != nil {
		return err
	}

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input BreakpointInput
		if err := bindArguments(request, &input); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := sessionManager.ClearBreakpoint(ctx, input.FilePath, input.LineNumber)
		if err != nil {
			if errors.Is(err, common.ErrBreakpointNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("No breakpoint exists at %s:%d", input.FilePath, input.LineNumber)), nil
			}
			return toolError("clear breakpoint", err, ""), nil
		}
		return mcp.NewToolResultText(formatClearBreakpoint(res)), nil
	})
	return nil
}

// registerListBreakpointsTool registers the list breakpoints tool
func registerListBreakpointsTool(s *server.MCPServer, sessionManager common.SessionManager) {
	tool := mcp.NewTool("list_breakpoints",
		mcp.WithDescription("List tracked breakpoints, and pdb's own breakpoint table when the debugger is at its prompt."),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list := sessionManager.ListBreakpoints()

		var live *common.Result
		if status := sessionManager.Status(); status.State == common.StateRunning && status.Phase == common.PhaseAtPrompt {
			res, err := sessionManager.Send(ctx, "b")
			if err == nil && res.Outcome == common.OutcomePrompt {
				live = res
			}
		}
		return mcp.NewToolResultText(formatBreakpointList(list, live)), nil
	})
}

// registerClearAllBreakpointsTool registers the clear all breakpoints tool
func registerClearAllBreakpointsTool(s *server.MCPServer, sessionManager common.SessionManager) {
	tool := mcp.NewTool("clear_all_breakpoints",
		mcp.WithDescription("Clear every tracked breakpoint."),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := sessionManager.ClearAllBreakpoints(ctx)
		if err != nil {
			return toolError("clear breakpoints", err, ""), nil
		}
		return mcp.NewToolResultText(formatClearAll(res)), nil
	})
}

// registerRestartDebugTool registers the restart tool
func registerRestartDebugTool(s *server.MCPServer, sessionManager common.SessionManager) {
	tool := mcp.NewTool("restart_debug",
		mcp.WithDescription("Restart the last debugging session with the same file, mode and arguments. Tracked breakpoints are restored."),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := sessionManager.Restart(ctx)
		if err != nil {
			output := ""
			if res != nil {
				output = res.Output
			}
			return toolError("restart debugging session", err, output), nil
		}
		return mcp.NewToolResultText(formatStart(res, "restarted")), nil
	})
}

// registerExamineVariableTool registers the examine variable tool
func registerExamineVariableTool(s *server.MCPServer, sessionManager common.SessionManager) error {
	tool, err := newTypedTool("examine_variable",
		"Print the type, value and public attributes of a variable in the current frame.",
		ExamineVariableInput{},
	)
	if err != nil {
		return err
	}

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input ExamineVariableInput
		if err := bindArguments(request, &input); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := sessionManager.Examine(ctx, input.VariableName)
		if err != nil {
			output := ""
			if res != nil {
				output = res.Output
			}
			return toolError("examine variable", err, output), nil
		}
		return mcp.NewToolResultText(formatExamine(input.VariableName, res)), nil
	})
	return nil
}

// registerGetDebugStatusTool registers the status tool
func registerGetDebugStatusTool(s *server.MCPServer, sessionManager common.SessionManager) {
	tool := mcp.NewTool("get_debug_status",
		mcp.WithDescription("Show the state of the debugging session without sending anything to the debugger."),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(formatStatus(sessionManager.Status())), nil
	})
}

// registerEndDebugTool registers the end tool
func registerEndDebugTool(s *server.MCPServer, sessionManager common.SessionManager) {
	tool := mcp.NewTool("end_debug",
		mcp.WithDescription("End the debugging session and terminate the debugger process."),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := sessionManager.End(ctx)
		if err != nil {
			return toolError("end debugging session", err, ""), nil
		}
		return mcp.NewToolResultText(formatEnd(res)), nil
	})
}
