package domain

import (
	"errors"
)

// Common domain errors
var (
	ErrInvalidInput = errors.New("invalid input")

	// Configuration errors
	ErrNoDirectories      = errors.New("no valid plot directories")
	ErrInvalidReserve     = errors.New("required drives must be positive")
	ErrNoCutoff           = errors.New("plot cutoff date is required")
	ErrNoExtension        = errors.New("plot extension is required")
	ErrUnknownNewPlotSize = errors.New("new plot size is not configured and no new plots were found to estimate it")

	// Filesystem errors
	ErrPlotGone          = errors.New("plot no longer exists")
	ErrDirectoryUnusable = errors.New("directory is not usable")
	ErrNotMounted        = errors.New("directory is not a mount point")
)

// SkippableError represents an error that can be logged and skipped.
// Processing can continue with the next item when this error occurs.
type SkippableError struct {
	Err     error
	Context string
}

// Error returns the error message
func (e *SkippableError) Error() string {
	if e.Context != "" {
		if e.Err != nil {
			return e.Context + ": " + e.Err.Error()
		}
		return e.Context
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "skippable error"
}

// Unwrap returns the underlying error
func (e *SkippableError) Unwrap() error {
	return e.Err
}

// NewSkippableError creates a new skippable error
func NewSkippableError(err error, context string) *SkippableError {
	return &SkippableError{Err: err, Context: context}
}

// IsSkippable returns true if the error can be skipped
func IsSkippable(err error) bool {
	var se *SkippableError
	return errors.As(err, &se)
}

// TransientError is a filesystem failure confined to one path (vanished file,
// permission race). Callers skip the path and keep going.
type TransientError struct {
	Path string
	Err  error
}

// Error returns the error message
func (e *TransientError) Error() string {
	if e.Err == nil {
		return "transient filesystem error: " + e.Path
	}
	return "transient filesystem error: " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a new transient filesystem error
func NewTransientError(path string, err error) *TransientError {
	return &TransientError{Path: path, Err: err}
}

// IsTransient returns true if the error is a transient filesystem error
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ConfigError is a startup failure. The process exits before watching.
type ConfigError struct {
	Field string
	Err   error
}

// Error returns the error message
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Err.Error()
	}
	return "configuration error: " + e.Field + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new configuration error
func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

// IsConfigError returns true if the error is a configuration error
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// WatchError means a directory could not be subscribed for creation events.
// The directory stays in the inventory but receives no events.
type WatchError struct {
	Dir string
	Err error
}

// Error returns the error message
func (e *WatchError) Error() string {
	return "failed to watch " + e.Dir + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *WatchError) Unwrap() error {
	return e.Err
}

// NewWatchError creates a new watch subscription error
func NewWatchError(dir string, err error) *WatchError {
	return &WatchError{Dir: dir, Err: err}
}

// IsWatchError returns true if the error is a watch subscription error
func IsWatchError(err error) bool {
	var we *WatchError
	return errors.As(err, &we)
}

// Common skippable errors for convenience
var (
	ErrSkipPlotGone = NewSkippableError(ErrPlotGone, "plot already reclaimed")
)
