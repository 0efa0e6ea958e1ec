package pdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xhd2015/pdb-mcp/debug/common"
	"github.com/xhd2015/pdb-mcp/debug/pyenv"
)

// debuggerEnv is added to the inherited environment. Unbuffered output
// keeps program prints ordered with pdb's own messages on the shared pipe.
var debuggerEnv = []string{
	"PYTHONUNBUFFERED=1",
	"PYTHONIOENCODING=utf-8",
	"PYTHON_COLORS=0",
	"PY_COLORS=0",
	"NO_COLOR=1",
}

// ValidateStart checks the caller-facing arguments of a start request and
// returns the absolute file path and effective pytest mode.
func ValidateStart(req common.StartRequest) (string, common.PytestMode, error) {
	if strings.TrimSpace(req.File) == "" {
		return "", "", fmt.Errorf("%w: file_path is required", common.ErrInvalidArgument)
	}
	file, err := filepath.Abs(req.File)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("%w: file not found: %s", common.ErrInvalidArgument, file)
		}
		return "", "", fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("%w: %s is a directory, not a file", common.ErrInvalidArgument, file)
	}

	mode := req.PytestMode
	if mode == "" {
		mode = common.PytestModePdb
	}
	if !mode.Valid() {
		return "", "", fmt.Errorf("%w: unknown pytest_debug_mode %q, want one of %v", common.ErrInvalidArgument, mode, common.PytestModes)
	}
	return file, mode, nil
}

// SplitArgs splits extra arguments on whitespace.
func SplitArgs(args string) []string {
	return strings.Fields(args)
}

// BuildTarget resolves the command line for req using env.
//
//	plain:          <python> -m pdb FILE ARGS
//	pytest pdb:     <python> -m pytest --pdb FILE ARGS
//	pytest trace:   <python> -m pytest --trace FILE ARGS
//	pytest manual:  <python> -m pdb -m pytest FILE ARGS
func BuildTarget(env *pyenv.Environment, req common.StartRequest) (common.Target, error) {
	file, mode, err := ValidateStart(req)
	if err != nil {
		return common.Target{}, err
	}
	if env == nil || len(env.Python) == 0 {
		return common.Target{}, fmt.Errorf("%w: no interpreter resolved", common.ErrSpawnFailure)
	}

	target := common.Target{
		File:      file,
		UsePytest: req.UsePytest,
		Args:      SplitArgs(req.Args),
		WorkDir:   env.WorkDir,
		Env:       append([]string(nil), debuggerEnv...),
	}
	if target.WorkDir == "" {
		target.WorkDir = filepath.Dir(file)
	}

	argv := append([]string(nil), env.Python...)
	if !req.UsePytest {
		argv = append(argv, "-m", "pdb", file)
	} else {
		target.PytestMode = mode
		switch mode {
		case common.PytestModeTrace:
			argv = append(argv, "-m", "pytest", "--trace", file)
		case common.PytestModeManual:
			argv = append(argv, "-m", "pdb", "-m", "pytest", file)
		default:
			argv = append(argv, "-m", "pytest", "--pdb", file)
		}
	}
	target.Argv = append(argv, target.Args...)
	return target, nil
}

// CommandLine renders argv for display.
func CommandLine(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			parts[i] = fmt.Sprintf("%q", arg)
		} else {
			parts[i] = arg
		}
	}
	return strings.Join(parts, " ")
}
