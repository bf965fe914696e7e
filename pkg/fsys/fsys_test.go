package fsys

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOS_Writable(t *testing.T) {
	root := t.TempDir()
	fsys := OS{}
	assert.True(t, fsys.Writable(root))
	assert.False(t, fsys.Writable(filepath.Join(root, "missing")), "Missing directories aren't writable")

	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission bits")
	}
	readOnly := filepath.Join(root, "ro")
	require.NoError(t, fsys.Mkdir(readOnly, 0o500))
	assert.False(t, fsys.Writable(readOnly))
}

func TestOS_FileRoundTrip(t *testing.T) {
	root := t.TempDir()
	fsys := OS{}
	path := filepath.Join(root, "entry")
	require.NoError(t, fsys.WriteFile(path, []byte("payload"), 0o600))
	require.NoError(t, fsys.Chmod(path, 0o640))

	info, err := fsys.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	got, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	moved := filepath.Join(root, "moved")
	require.NoError(t, fsys.Rename(path, moved))
	require.NoError(t, fsys.Remove(moved))
	_, err = fsys.Stat(moved)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOS_OpenDir(t *testing.T) {
	root := t.TempDir()
	fsys := OS{}
	require.NoError(t, fsys.Mkdir(filepath.Join(root, "sub"), 0o700))
	require.NoError(t, fsys.WriteFile(filepath.Join(root, "file"), nil, 0o600))

	handle, err := fsys.OpenDir(root)
	require.NoError(t, err)
	defer func() { assert.NoError(t, handle.Close()) }()

	entries, err := handle.ReadDir(-1)
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, entry := range entries {
		names[entry.Name()] = entry.IsDir()
	}
	assert.Equal(t, map[string]bool{"sub": true, "file": false}, names)

	_, err = handle.ReadDir(1)
	assert.ErrorIs(t, err, io.EOF)

	_, err = fsys.OpenDir(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestOS_RemoveNonEmptyDirFails(t *testing.T) {
	root := t.TempDir()
	fsys := OS{}
	dir := filepath.Join(root, "sub")
	require.NoError(t, fsys.Mkdir(dir, 0o700))
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "file"), nil, 0o600))
	assert.Error(t, fsys.Remove(dir))
	require.NoError(t, fsys.Remove(filepath.Join(dir, "file")))
	assert.NoError(t, fsys.Remove(dir))
}
