package port

import (
	"context"
)

// FileEvent reports that a file appeared in a watched directory,
// either freshly created or renamed into place.
type FileEvent struct {
	Path string
	Dir  string
}

// Watcher subscribes to file creation events across plot directories
type Watcher interface {
	// Watch subscribes dirs and returns the directories that could not be watched.
	// Failed directories are reported as domain.WatchError and are otherwise ignored.
	Watch(dirs []string) []error

	// Run forwards events to out until ctx is cancelled or the watcher is closed.
	// Events reach out in the order the OS delivered them.
	Run(ctx context.Context, out chan<- FileEvent) error

	// Close releases the OS watch handles
	Close() error
}
