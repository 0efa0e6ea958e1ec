package pdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhd2015/pdb-mcp/debug/common"
	"github.com/xhd2015/pdb-mcp/debug/pyenv"
)

func TestBuildTargetCommandLines(t *testing.T) {
	file := writeTarget(t)
	env := &pyenv.Environment{Python: []string{"uv", "run", "python"}, WorkDir: "/proj", UV: true}

	tests := []struct {
		name string
		req  common.StartRequest
		want []string
	}{
		{
			name: "plain",
			req:  common.StartRequest{File: file, Args: "--verbose  out.txt"},
			want: []string{"uv", "run", "python", "-m", "pdb", file, "--verbose", "out.txt"},
		},
		{
			name: "pytest default mode",
			req:  common.StartRequest{File: file, UsePytest: true},
			want: []string{"uv", "run", "python", "-m", "pytest", "--pdb", file},
		},
		{
			name: "pytest trace",
			req:  common.StartRequest{File: file, UsePytest: true, PytestMode: common.PytestModeTrace, Args: "-k div"},
			want: []string{"uv", "run", "python", "-m", "pytest", "--trace", file, "-k", "div"},
		},
		{
			name: "pytest manual",
			req:  common.StartRequest{File: file, UsePytest: true, PytestMode: common.PytestModeManual},
			want: []string{"uv", "run", "python", "-m", "pdb", "-m", "pytest", file},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := BuildTarget(env, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, target.Argv)
			assert.Equal(t, "/proj", target.WorkDir)
			assert.Contains(t, target.Env, "PYTHONUNBUFFERED=1")
		})
	}
}

func TestBuildTargetIgnoresModeWithoutPytest(t *testing.T) {
	file := writeTarget(t)
	target, err := BuildTarget(&pyenv.Environment{Python: []string{"python3"}}, common.StartRequest{File: file, PytestMode: common.PytestModeTrace})
	require.NoError(t, err)
	assert.Equal(t, []string{"python3", "-m", "pdb", file}, target.Argv)
	assert.Empty(t, target.PytestMode)
	assert.Equal(t, filepath.Dir(file), target.WorkDir)
}

func TestBuildTargetNeedsInterpreter(t *testing.T) {
	file := writeTarget(t)
	_, err := BuildTarget(&pyenv.Environment{}, common.StartRequest{File: file})
	assert.ErrorIs(t, err, common.ErrSpawnFailure)
}

func TestValidateStart(t *testing.T) {
	file := writeTarget(t)

	abs, mode, err := ValidateStart(common.StartRequest{File: file, UsePytest: true})
	require.NoError(t, err)
	assert.Equal(t, file, abs)
	assert.Equal(t, common.PytestModePdb, mode)

	_, _, err = ValidateStart(common.StartRequest{})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, _, err = ValidateStart(common.StartRequest{File: filepath.Join(filepath.Dir(file), "nope.py")})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, _, err = ValidateStart(common.StartRequest{File: filepath.Dir(file)})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, _, err = ValidateStart(common.StartRequest{File: file, PytestMode: "post"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestCommandLine(t *testing.T) {
	assert.Equal(t, `python3 -m pdb "/a b/x.py" ""`, CommandLine([]string{"python3", "-m", "pdb", "/a b/x.py", ""}))
}
