package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/plots-begone/internal/port"
)

func newMemManager(t *testing.T) (*Manager, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	m := NewManagerWithFs(mem, func(dir string) (*port.DiskUsage, error) {
		return &port.DiskUsage{Total: 100, Free: 40, Used: 60, UsedPct: 60}, nil
	})
	return m, mem
}

func TestManager_ListFiles(t *testing.T) {
	m, mem := newMemManager(t)

	require.NoError(t, mem.MkdirAll("/mnt/a/sub", 0o755))
	require.NoError(t, afero.WriteFile(mem, "/mnt/a/one.plot", []byte("12345"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/mnt/a/notes.txt", []byte("x"), 0o644))

	stamp := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, mem.Chtimes("/mnt/a/one.plot", stamp, stamp))

	files, err := m.ListFiles("/mnt/a")
	require.NoError(t, err)
	require.Len(t, files, 2, "subdirectories are not files")

	byPath := map[string]port.FileInfo{}
	for _, f := range files {
		byPath[f.Path] = f
	}
	assert.Equal(t, int64(5), byPath["/mnt/a/one.plot"].Size)
	assert.True(t, byPath["/mnt/a/one.plot"].CreatedAt.Equal(stamp))
	assert.Contains(t, byPath, "/mnt/a/notes.txt")
}

func TestManager_ListFilesMissingDir(t *testing.T) {
	m, _ := newMemManager(t)

	_, err := m.ListFiles("/mnt/missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestManager_DeleteFile(t *testing.T) {
	m, mem := newMemManager(t)
	require.NoError(t, afero.WriteFile(mem, "/mnt/a/old.plot", []byte("x"), 0o644))

	require.NoError(t, m.DeleteFile("/mnt/a/old.plot"))

	exists, err := afero.Exists(mem, "/mnt/a/old.plot")
	require.NoError(t, err)
	assert.False(t, exists)

	err = m.DeleteFile("/mnt/a/old.plot")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "second delete reports a missing file")
}

func TestManager_ListSubdirsAndIsDir(t *testing.T) {
	m, mem := newMemManager(t)
	for _, d := range []string{"/mnt/disk2", "/mnt/disk10", "/mnt/disk1"} {
		require.NoError(t, mem.MkdirAll(d, 0o755))
	}
	require.NoError(t, afero.WriteFile(mem, "/mnt/readme", []byte("x"), 0o644))

	dirs, err := m.ListSubdirs("/mnt")
	require.NoError(t, err)
	assert.Equal(t, []string{"/mnt/disk1", "/mnt/disk10", "/mnt/disk2"}, dirs)

	assert.True(t, m.IsDir("/mnt/disk1"))
	assert.False(t, m.IsDir("/mnt/readme"))
	assert.False(t, m.IsDir("/mnt/nope"))
}

func TestManager_StatFile(t *testing.T) {
	m, mem := newMemManager(t)
	require.NoError(t, afero.WriteFile(mem, "/mnt/a/new.plot", []byte("abc"), 0o644))

	info, err := m.StatFile("/mnt/a/new.plot")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)

	_, err = m.StatFile("/mnt/a/gone.plot")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, mem.MkdirAll("/mnt/a/dir", 0o755))
	_, err = m.StatFile("/mnt/a/dir")
	assert.Error(t, err)
}

func TestManager_OsBacked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "real.plot")
	require.NoError(t, os.WriteFile(path, []byte("plot"), 0o644))

	m := NewManager()

	usage, err := m.GetDiskUsage(dir)
	require.NoError(t, err)
	assert.Greater(t, usage.Total, uint64(0))

	files, err := m.ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.False(t, files[0].CreatedAt.IsZero())

	require.NoError(t, m.DeleteFile(path))
	assert.True(t, errors.Is(m.DeleteFile(path), fs.ErrNotExist))
}
