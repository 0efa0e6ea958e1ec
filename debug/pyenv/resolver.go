// Package pyenv locates the Python interpreter used to run a target file.
package pyenv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/xhd2015/pdb-mcp/debug/common"
)

// Environment is a resolved interpreter invocation.
type Environment struct {
	// Python is the argv prefix that runs the interpreter,
	// e.g. ["/usr/bin/python3"] or ["uv", "run", "python"].
	Python []string
	// ProjectRoot is the directory holding pyproject.toml, empty if none.
	ProjectRoot string
	// WorkDir is where the debugger should be started.
	WorkDir string
	// UV is set when the project is run through uv.
	UV bool
}

// Resolver resolves the interpreter for a Python file.
type Resolver interface {
	Resolve(ctx context.Context, file string) (*Environment, error)
}

// Discoverer is the default Resolver.
type Discoverer struct {
	// Python, when set, is used instead of searching PATH and virtualenvs.
	Python string

	lookPath func(string) (string, error)
	// uvTree reports whether `uv tree` succeeds in dir.
	uvTree func(ctx context.Context, uv string, dir string) bool
}

var _ Resolver = (*Discoverer)(nil)

// NewDiscoverer creates a Discoverer. python may be empty.
func NewDiscoverer(python string) *Discoverer {
	return &Discoverer{
		Python:   python,
		lookPath: exec.LookPath,
		uvTree:   runUVTree,
	}
}

// Resolve finds the project root of file and picks an interpreter.
func (d *Discoverer) Resolve(ctx context.Context, file string) (*Environment, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	fileDir := filepath.Dir(abs)

	env := &Environment{
		ProjectRoot: FindProjectRoot(fileDir),
		WorkDir:     fileDir,
	}
	if env.ProjectRoot != "" {
		env.WorkDir = env.ProjectRoot
	}

	if d.Python != "" {
		python, err := d.lookPath(d.Python)
		if err != nil {
			return nil, fmt.Errorf("%w: configured python %q: %v", common.ErrSpawnFailure, d.Python, err)
		}
		env.Python = []string{python}
		return env, nil
	}

	if env.ProjectRoot != "" {
		if uv, err := d.lookPath("uv"); err == nil && d.isUVProject(ctx, uv, env.ProjectRoot) {
			env.Python = []string{uv, "run", "python"}
			env.UV = true
			return env, nil
		}
		if python := venvPython(filepath.Join(env.ProjectRoot, ".venv")); python != "" {
			env.Python = []string{python}
			return env, nil
		}
	}

	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		if python := venvPython(venv); python != "" {
			env.Python = []string{python}
			return env, nil
		}
	}

	for _, name := range []string{"python3", "python"} {
		if python, err := d.lookPath(name); err == nil {
			env.Python = []string{python}
			return env, nil
		}
	}
	return nil, fmt.Errorf("%w: no python interpreter found on PATH", common.ErrSpawnFailure)
}

func (d *Discoverer) isUVProject(ctx context.Context, uv string, root string) bool {
	if _, err := os.Stat(filepath.Join(root, "uv.lock")); err == nil {
		return true
	}
	return d.uvTree(ctx, uv, root)
}

// FindProjectRoot walks up from dir looking for pyproject.toml.
func FindProjectRoot(dir string) string {
	for {
		if _, err := os.Stat(filepath.Join(dir, "pyproject.toml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func venvPython(venv string) string {
	for _, name := range []string{"python3", "python"} {
		path := filepath.Join(venv, "bin", name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func runUVTree(ctx context.Context, uv string, dir string) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, uv, "tree")
	cmd.Dir = dir
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return false
	}
	return !bytes.Contains(stderr.Bytes(), []byte("No `pyproject.toml` found"))
}
