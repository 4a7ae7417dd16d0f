//go:build !windows
// +build !windows

package filesystem

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/vertextoedge/plots-begone/internal/port"
)

// diskUsage returns disk usage for the volume holding dir
func diskUsage(dir string) (*port.DiskUsage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return nil, fmt.Errorf("failed to get disk stats: %w", err)
	}

	total := uint64(stat.Blocks) * uint64(stat.Bsize)
	free := uint64(stat.Bavail) * uint64(stat.Bsize)
	used := total - free

	usage := &port.DiskUsage{
		Total: total,
		Used:  used,
		Free:  free,
	}
	if total > 0 {
		usage.UsedPct = float64(used) / float64(total) * 100
	}
	return usage, nil
}

// isMountPoint compares the device of dir with the device of its parent
func isMountPoint(dir string) (bool, error) {
	var self, parent unix.Stat_t
	if err := unix.Stat(dir, &self); err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if err := unix.Stat(filepath.Join(dir, ".."), &parent); err != nil {
		return false, fmt.Errorf("failed to stat parent of %s: %w", dir, err)
	}

	if self.Dev != parent.Dev {
		return true, nil
	}
	// "/" is its own parent
	return self.Ino == parent.Ino, nil
}
