package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

func main() {
	serverBin := flag.String("server", "", "pdb-mcp binary to run (default: go run ./cmd/pdb-mcp)")
	usePytest := flag.Bool("pytest", false, "Debug the pytest file under --pdb instead of the plain script")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Drives pdb-mcp over stdio through a short debugging session.\n")
		fmt.Fprintf(os.Stderr, "Run it from the repository root.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	workingDir, err := os.Getwd()
	if err != nil {
		log.Fatalf("Failed to get working directory: %v", err)
	}
	testdata := filepath.Join(workingDir, "cmd", "pdb-mcp", "testdata")
	script := filepath.Join(testdata, "script.py")
	if _, err := os.Stat(script); err != nil {
		log.Fatalf("Script %s does not exist, run from the repository root", script)
	}

	command, args := "go", []string{"run", "./cmd/pdb-mcp"}
	if *serverBin != "" {
		command, args = *serverBin, nil
	}

	log.Println("=== pdb MCP Server Demo ===")
	c, err := client.NewStdioMCPClient(command, os.Environ(), args...)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "pdb-mcp-demo", Version: "1.0.0"}
	info, err := c.Initialize(ctx, initReq)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	log.Printf("Connected to %s %s", info.ServerInfo.Name, info.ServerInfo.Version)

	call := func(name string, arguments map[string]interface{}) string {
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = arguments

		log.Printf(">>> %s %v", name, arguments)
		res, err := c.CallTool(ctx, req)
		if err != nil {
			log.Fatalf("%s failed: %v", name, err)
		}
		var parts []string
		for _, content := range res.Content {
			if text, ok := content.(mcp.TextContent); ok {
				parts = append(parts, text.Text)
			}
		}
		text := strings.Join(parts, "\n")
		if res.IsError {
			log.Printf("<<< ERROR\n%s\n", text)
		} else {
			log.Printf("<<<\n%s\n", text)
		}
		return text
	}

	if *usePytest {
		call("start_debug", map[string]interface{}{
			"file_path":         filepath.Join(testdata, "test_script.py"),
			"use_pytest":        true,
			"pytest_debug_mode": "pdb",
		})
		call("send_pdb_command", map[string]interface{}{"command": "p result"})
		call("send_pdb_command", map[string]interface{}{"command": "w"})
	} else {
		call("set_breakpoint", map[string]interface{}{"file_path": script, "line_number": 5})
		call("start_debug", map[string]interface{}{"file_path": script, "args": "4 5"})
		call("send_pdb_command", map[string]interface{}{"command": "c"})
		call("examine_variable", map[string]interface{}{"variable_name": "a"})
		call("send_pdb_command", map[string]interface{}{"command": "n"})
		call("send_pdb_command", map[string]interface{}{"command": "p total"})
		call("list_breakpoints", nil)
		call("restart_debug", nil)
	}
	call("get_debug_status", nil)
	call("end_debug", nil)

	log.Println("=== Demo completed ===")
}
