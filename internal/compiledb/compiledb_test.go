package compiledb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadUsesExplicitOutputField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"directory": "/build", "file": "a.c", "command": "cc -c a.c -o a.o", "output": "a.o"}
	]`), 0o644))

	objs, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join("/build", "a.o")}, objs)
}

func TestLoadParsesDashOFromCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"directory": "/build", "file": "b.c", "command": "cc -c b.c -o out/b.o"}
	]`), 0o644))

	objs, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join("/build", "out/b.o")}, objs)
}

func TestLoadFallsBackToFileExtensionSwap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"directory": "/build", "file": "c.c", "arguments": ["cc", "-c", "c.c"]}
	]`), 0o644))

	objs, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join("/build", "c.o")}, objs)
}

func TestLoadInvalidJSONReturnsParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
