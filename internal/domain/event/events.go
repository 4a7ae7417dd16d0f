package event

import (
	"time"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	// EventName returns the name of the event
	EventName() string
	// OccurredAt returns when the event occurred
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// Event names
const (
	NamePlotReclaimed    = "plot.reclaimed"
	NamePlotGone         = "plot.gone"
	NameReclaimFailed    = "plot.reclaim_failed"
	NameNewPlotDetected  = "plot.new_detected"
	NameEventIgnored     = "watch.ignored"
	NameIndexBuilt       = "index.built"
	NameDirectoryRotated = "index.rotated"
)

// PlotReclaimed is raised when an old plot is deleted to make room
type PlotReclaimed struct {
	BaseEvent
	Directory  string
	Path       string
	Size       int64
	PlotTime   time.Time
	FreeBefore int64
	FreeAfter  int64
}

// EventName returns the event name
func (e PlotReclaimed) EventName() string {
	return NamePlotReclaimed
}

// NewPlotReclaimed creates a new PlotReclaimed event
func NewPlotReclaimed(dir, path string, size int64, plotTime time.Time, freeBefore, freeAfter int64) PlotReclaimed {
	return PlotReclaimed{
		BaseEvent:  BaseEvent{Timestamp: time.Now()},
		Directory:  dir,
		Path:       path,
		Size:       size,
		PlotTime:   plotTime,
		FreeBefore: freeBefore,
		FreeAfter:  freeAfter,
	}
}

// PlotGone is raised when an old plot on record had already disappeared from disk
type PlotGone struct {
	BaseEvent
	Directory string
	Path      string
}

// EventName returns the event name
func (e PlotGone) EventName() string {
	return NamePlotGone
}

// NewPlotGone creates a new PlotGone event
func NewPlotGone(dir, path string) PlotGone {
	return PlotGone{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		Directory: dir,
		Path:      path,
	}
}

// ReclaimFailed is raised when deleting an old plot failed
type ReclaimFailed struct {
	BaseEvent
	Directory string
	Path      string
	Error     string
}

// EventName returns the event name
func (e ReclaimFailed) EventName() string {
	return NameReclaimFailed
}

// NewReclaimFailed creates a new ReclaimFailed event
func NewReclaimFailed(dir, path string, err error) ReclaimFailed {
	return ReclaimFailed{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		Directory: dir,
		Path:      path,
		Error:     err.Error(),
	}
}

// NewPlotDetected is raised when a new plot lands in an indexed directory
type NewPlotDetected struct {
	BaseEvent
	Directory string
	Path      string
	Size      int64
}

// EventName returns the event name
func (e NewPlotDetected) EventName() string {
	return NameNewPlotDetected
}

// NewNewPlotDetected creates a new NewPlotDetected event
func NewNewPlotDetected(dir, path string, size int64) NewPlotDetected {
	return NewPlotDetected{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		Directory: dir,
		Path:      path,
		Size:      size,
	}
}

// EventIgnored is raised when a new plot lands in a directory that is not indexed
type EventIgnored struct {
	BaseEvent
	Directory string
	Path      string
	Reason    string
}

// EventName returns the event name
func (e EventIgnored) EventName() string {
	return NameEventIgnored
}

// NewEventIgnored creates a new EventIgnored event
func NewEventIgnored(dir, path, reason string) EventIgnored {
	return EventIgnored{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		Directory: dir,
		Path:      path,
		Reason:    reason,
	}
}

// Membership carries the sizes of the index, the candidate pool and the spent set
type Membership struct {
	Indexed    int
	Candidates int
	Spent      int
}

// IndexBuilt is raised once the startup selection and reclaim pass finished
type IndexBuilt struct {
	BaseEvent
	Membership
	IndexedDirs     []string
	RequiredBytes   int64
	ReserveRequired int
}

// EventName returns the event name
func (e IndexBuilt) EventName() string {
	return NameIndexBuilt
}

// NewIndexBuilt creates a new IndexBuilt event
func NewIndexBuilt(indexed []string, m Membership, requiredBytes int64, reserve int) IndexBuilt {
	return IndexBuilt{
		BaseEvent:       BaseEvent{Timestamp: time.Now()},
		Membership:      m,
		IndexedDirs:     indexed,
		RequiredBytes:   requiredBytes,
		ReserveRequired: reserve,
	}
}

// DirectoryRotated is raised when an exhausted directory leaves the index.
// Promoted is empty when the candidate pool had nothing left to offer.
type DirectoryRotated struct {
	BaseEvent
	Membership
	Demoted  string
	Promoted string
}

// EventName returns the event name
func (e DirectoryRotated) EventName() string {
	return NameDirectoryRotated
}

// NewDirectoryRotated creates a new DirectoryRotated event
func NewDirectoryRotated(demoted, promoted string, m Membership) DirectoryRotated {
	return DirectoryRotated{
		BaseEvent:  BaseEvent{Timestamp: time.Now()},
		Membership: m,
		Demoted:    demoted,
		Promoted:   promoted,
	}
}
