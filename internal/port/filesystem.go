package port

import (
	"time"
)

// DiskUsage represents disk usage statistics
type DiskUsage struct {
	Total   uint64  // Total disk space in bytes
	Used    uint64  // Used disk space in bytes
	Free    uint64  // Free disk space in bytes
	UsedPct float64 // Used percentage (0-100)
}

// FileInfo is the subset of a directory entry the inventory needs
type FileInfo struct {
	Path      string
	Size      int64
	CreatedAt time.Time // Birth time where the platform reports it, otherwise mtime
}

// FileSystem defines the interface for filesystem operations
type FileSystem interface {
	// GetDiskUsage returns disk usage statistics for the volume holding dir
	GetDiskUsage(dir string) (*DiskUsage, error)

	// ListFiles returns the regular files directly inside dir
	ListFiles(dir string) ([]FileInfo, error)

	// StatFile returns information about a single file
	StatFile(path string) (*FileInfo, error)

	// DeleteFile removes a file. A missing file yields an error wrapping fs.ErrNotExist
	DeleteFile(path string) error

	// IsDir reports whether path exists and is a directory
	IsDir(path string) bool

	// IsMountPoint reports whether dir is the root of a mounted filesystem
	IsMountPoint(dir string) (bool, error)

	// ListSubdirs returns the child directories of parent, sorted by path
	ListSubdirs(parent string) ([]string, error)
}
