package domain

import (
	"time"
)

// Classification tags a file found in a plot directory
type Classification int

const (
	ClassOther Classification = iota // Not a plot (wrong extension, directory, ...)
	ClassOld                         // Plot created before the cutoff date
	ClassNew                         // Plot created on or after the cutoff date
)

// String returns a human-readable name for the classification
func (c Classification) String() string {
	switch c {
	case ClassOld:
		return "old"
	case ClassNew:
		return "new"
	default:
		return "other"
	}
}

// PlotFile is a cached view of a file inside a plot directory.
// The file on disk is the source of truth; a PlotFile is never mutated after classification.
type PlotFile struct {
	Path      string
	Size      int64
	CreatedAt time.Time
	Class     Classification
}

// IsOld returns true if the file is an old plot
func (p PlotFile) IsOld() bool {
	return p.Class == ClassOld
}

// IsNew returns true if the file is a new plot
func (p PlotFile) IsNew() bool {
	return p.Class == ClassNew
}

// OlderThan reports whether p should be reclaimed before other.
// Creation time decides; equal times fall back to the lexicographically smaller path.
func (p PlotFile) OlderThan(other PlotFile) bool {
	if !p.CreatedAt.Equal(other.CreatedAt) {
		return p.CreatedAt.Before(other.CreatedAt)
	}
	return p.Path < other.Path
}
