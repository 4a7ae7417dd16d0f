package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/vertextoedge/plots-begone/internal/port"
)

// UsageFunc reports disk usage for the volume holding dir
type UsageFunc func(dir string) (*port.DiskUsage, error)

// Manager handles local filesystem operations
type Manager struct {
	fs         afero.Fs
	usage      UsageFunc
	mountCheck func(dir string) (bool, error)
	birthTime  func(path string, info os.FileInfo) time.Time
}

// Ensure Manager implements port.FileSystem
var _ port.FileSystem = (*Manager)(nil)

// NewManager creates a filesystem manager backed by the real operating system
func NewManager() *Manager {
	return &Manager{
		fs:         afero.NewOsFs(),
		usage:      diskUsage,
		mountCheck: isMountPoint,
		birthTime:  creationTime,
	}
}

// NewManagerWithFs creates a manager over an arbitrary afero filesystem.
// Every directory is treated as a mount point and mtime stands in for creation time.
func NewManagerWithFs(fs afero.Fs, usage UsageFunc) *Manager {
	return &Manager{
		fs:    fs,
		usage: usage,
		mountCheck: func(string) (bool, error) {
			return true, nil
		},
		birthTime: func(_ string, info os.FileInfo) time.Time {
			return info.ModTime()
		},
	}
}

// GetDiskUsage returns disk usage for the volume holding dir
func (m *Manager) GetDiskUsage(dir string) (*port.DiskUsage, error) {
	return m.usage(dir)
}

// ListFiles returns the regular files directly inside dir
func (m *Manager) ListFiles(dir string) ([]port.FileInfo, error) {
	entries, err := afero.ReadDir(m.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	files := make([]port.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		files = append(files, port.FileInfo{
			Path:      path,
			Size:      entry.Size(),
			CreatedAt: m.birthTime(path, entry),
		})
	}
	return files, nil
}

// StatFile returns information about a single file
func (m *Manager) StatFile(path string) (*port.FileInfo, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &port.FileInfo{
		Path:      path,
		Size:      info.Size(),
		CreatedAt: m.birthTime(path, info),
	}, nil
}

// DeleteFile removes a file
func (m *Manager) DeleteFile(path string) error {
	if err := m.fs.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// IsDir reports whether path exists and is a directory
func (m *Manager) IsDir(path string) bool {
	ok, err := afero.IsDir(m.fs, path)
	return err == nil && ok
}

// IsMountPoint reports whether dir is the root of a mounted filesystem
func (m *Manager) IsMountPoint(dir string) (bool, error) {
	return m.mountCheck(dir)
}

// ListSubdirs returns the child directories of parent, sorted by path
func (m *Manager) ListSubdirs(parent string) ([]string, error) {
	entries, err := afero.ReadDir(m.fs, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", parent, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(parent, entry.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
