package pyenv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhd2015/pdb-mcp/debug/common"
)

func fakeLookPath(found map[string]string) func(string) (string, error) {
	return func(name string) (string, error) {
		if path, ok := found[name]; ok {
			return path, nil
		}
		return "", errors.New("not found")
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0755))
}

func newTestDiscoverer(found map[string]string, uvTree bool) *Discoverer {
	d := NewDiscoverer("")
	d.lookPath = fakeLookPath(found)
	d.uvTree = func(context.Context, string, string) bool { return uvTree }
	return d
}

func TestResolveUsesPathPython(t *testing.T) {
	t.Setenv("VIRTUAL_ENV", "")
	dir := t.TempDir()
	file := filepath.Join(dir, "script.py")
	writeFile(t, file)

	d := newTestDiscoverer(map[string]string{"python3": "/usr/bin/python3"}, false)
	env, err := d.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/python3"}, env.Python)
	assert.Equal(t, dir, env.WorkDir)
	assert.Empty(t, env.ProjectRoot)
	assert.False(t, env.UV)
}

func TestResolveFallsBackToPython(t *testing.T) {
	t.Setenv("VIRTUAL_ENV", "")
	file := filepath.Join(t.TempDir(), "script.py")
	writeFile(t, file)

	d := newTestDiscoverer(map[string]string{"python": "/usr/local/bin/python"}, false)
	env, err := d.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/local/bin/python"}, env.Python)
}

func TestResolveNoInterpreter(t *testing.T) {
	t.Setenv("VIRTUAL_ENV", "")
	file := filepath.Join(t.TempDir(), "script.py")
	writeFile(t, file)

	d := newTestDiscoverer(nil, false)
	_, err := d.Resolve(context.Background(), file)
	assert.ErrorIs(t, err, common.ErrSpawnFailure)
}

func TestResolveUVProjectWithLockFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"))
	writeFile(t, filepath.Join(root, "uv.lock"))
	file := filepath.Join(root, "src", "pkg", "mod.py")
	writeFile(t, file)

	d := newTestDiscoverer(map[string]string{"uv": "/bin/uv", "python3": "/usr/bin/python3"}, false)
	env, err := d.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.True(t, env.UV)
	assert.Equal(t, []string{"/bin/uv", "run", "python"}, env.Python)
	assert.Equal(t, root, env.ProjectRoot)
	assert.Equal(t, root, env.WorkDir)
}

func TestResolveUVProjectDetectedByTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"))
	file := filepath.Join(root, "mod.py")
	writeFile(t, file)

	d := newTestDiscoverer(map[string]string{"uv": "/bin/uv"}, true)
	env, err := d.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.True(t, env.UV)
}

func TestResolveProjectVenv(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"))
	venvPy := filepath.Join(root, ".venv", "bin", "python3")
	writeFile(t, venvPy)
	file := filepath.Join(root, "tests", "test_x.py")
	writeFile(t, file)

	d := newTestDiscoverer(map[string]string{"python3": "/usr/bin/python3"}, false)
	env, err := d.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, []string{venvPy}, env.Python)
	assert.False(t, env.UV)
}

func TestResolveActiveVirtualEnv(t *testing.T) {
	venv := t.TempDir()
	venvPy := filepath.Join(venv, "bin", "python")
	writeFile(t, venvPy)
	t.Setenv("VIRTUAL_ENV", venv)

	file := filepath.Join(t.TempDir(), "script.py")
	writeFile(t, file)

	d := newTestDiscoverer(map[string]string{"python3": "/usr/bin/python3"}, false)
	env, err := d.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, []string{venvPy}, env.Python)
}

func TestResolveConfiguredPython(t *testing.T) {
	file := filepath.Join(t.TempDir(), "script.py")
	writeFile(t, file)

	d := newTestDiscoverer(map[string]string{"/opt/py/bin/python3.12": "/opt/py/bin/python3.12"}, false)
	d.Python = "/opt/py/bin/python3.12"
	env, err := d.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/py/bin/python3.12"}, env.Python)

	d.Python = "/missing/python"
	_, err = d.Resolve(context.Background(), file)
	assert.ErrorIs(t, err, common.ErrSpawnFailure)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"))
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0755))

	assert.Equal(t, root, FindProjectRoot(deep))
}
