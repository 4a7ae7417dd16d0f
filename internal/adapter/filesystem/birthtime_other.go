//go:build !linux && !darwin && !windows
// +build !linux,!darwin,!windows

package filesystem

import (
	"os"
	"time"
)

func creationTime(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}
