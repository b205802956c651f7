package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Lifecycle(t *testing.T) {
	tempBase := t.TempDir()
	mgr := NewManager(tempBase, "assetbuilder-filter")

	_, err := mgr.File("in")
	require.Error(t, err, "File before Create must fail")

	require.NoError(t, mgr.Create())
	wsPath := mgr.GetPath()
	require.NotEmpty(t, wsPath)
	assert.True(t, strings.HasPrefix(filepath.Base(wsPath), "assetbuilder-filter-"))
	assert.DirExists(t, wsPath)

	in, err := mgr.File("in")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wsPath, "in"), in)

	require.NoError(t, mgr.Cleanup())
	assert.NoDirExists(t, wsPath)
	assert.Empty(t, mgr.GetPath())

	// Cleanup is idempotent.
	require.NoError(t, mgr.Cleanup())
}

func TestManager_UniqueDirectories(t *testing.T) {
	base := t.TempDir()
	a := NewManager(base, "")
	b := NewManager(base, "")
	require.NoError(t, a.Create())
	require.NoError(t, b.Create())
	defer a.Cleanup()
	defer b.Cleanup()

	assert.NotEqual(t, a.GetPath(), b.GetPath())
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.css")

	require.NoError(t, WriteFileAtomic(path, []byte("AB"), 0o644))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AB", string(data))

	require.NoError(t, WriteFileAtomic(path, []byte("CD"), 0o644))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "CD", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomic_FailureKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.css")
	require.NoError(t, os.WriteFile(target, []byte("good"), 0o644))

	// A directory at the target path makes the rename fail.
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "child"), 0o750))
	require.Error(t, WriteFileAtomic(blocked, []byte("bad"), 0o644))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "good", string(data))
}
