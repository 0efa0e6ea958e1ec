package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

// findProjectRoot attempts to find the root directory of the project
func findProjectRoot(t *testing.T) string {
	dir, err := os.Getwd()
	require.NoError(t, err, "Failed to get working directory")

	// Walk up directories looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("Could not find project root with go.mod")
			return ""
		}
		dir = parent
	}
}

// requirePython skips the test unless a real interpreter is available.
func requirePython(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping python end-to-end test in short mode")
	}
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not found on PATH")
	}
	return python
}

// copyTestdata copies the named files from cmd/pdb-mcp/testdata into a
// temp dir, away from any pyproject.toml up the tree.
func copyTestdata(t *testing.T, names ...string) string {
	t.Helper()
	src := filepath.Join(findProjectRoot(t), "cmd", "pdb-mcp", "testdata")
	dst := t.TempDir()
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(src, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dst, name), data, 0o644))
	}
	return dst
}

// callTimeout bounds one tool call.
const callTimeout = 30 * time.Second

// callTool calls a tool and returns its text content and error flag.
func callTool(t *testing.T, c *client.Client, name string, args map[string]interface{}) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	res, err := c.CallTool(ctx, req)
	require.NoError(t, err, "tools/call %s", name)

	var parts []string
	for _, content := range res.Content {
		if text, ok := content.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	text := strings.Join(parts, "\n")
	t.Logf("%s -> %s", name, text)
	return text, res.IsError
}
