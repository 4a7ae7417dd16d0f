package vo

import (
	"errors"

	"github.com/dustin/go-humanize"
)

// FileSize represents a file size value object.
// It provides type-safe operations and human-readable formatting.
type FileSize struct {
	bytes int64
}

const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

var (
	ErrNegativeSize = errors.New("file size cannot be negative")
)

// NewFileSize creates a new FileSize value object.
func NewFileSize(bytes int64) (FileSize, error) {
	if bytes < 0 {
		return FileSize{}, ErrNegativeSize
	}
	return FileSize{bytes: bytes}, nil
}

// ZeroSize returns a zero FileSize.
func ZeroSize() FileSize {
	return FileSize{bytes: 0}
}

// FileSizeFromGiB creates a FileSize from gibibytes, the unit plot sizes are quoted in.
func FileSizeFromGiB(gib float64) (FileSize, error) {
	return NewFileSize(int64(gib * float64(GiB)))
}

// Bytes returns the size in bytes.
func (fs FileSize) Bytes() int64 {
	return fs.bytes
}

// GiB returns the size in gibibytes.
func (fs FileSize) GiB() float64 {
	return float64(fs.bytes) / float64(GiB)
}

// IsZero returns true if the size is zero.
func (fs FileSize) IsZero() bool {
	return fs.bytes == 0
}

// Max returns the larger of the two sizes.
func (fs FileSize) Max(other FileSize) FileSize {
	if other.bytes > fs.bytes {
		return other
	}
	return fs
}

// String returns a human-readable string representation.
func (fs FileSize) String() string {
	return humanize.IBytes(uint64(fs.bytes))
}

// HumanBytes formats a raw byte count the same way FileSize does.
// Negative counts are clamped to zero.
func HumanBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
