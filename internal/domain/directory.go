package domain

import (
	"sort"
)

// Directory is the in-memory record of one managed plot directory
type Directory struct {
	Path     string
	Capacity int64 // Total bytes of the underlying volume
	Free     int64 // Free bytes, refreshed from disk before each reclaim pass

	// OldPlots is kept sorted oldest first
	OldPlots []PlotFile

	NewPlots       int
	LargestNewPlot int64 // Size of the biggest new plot seen, used to estimate the next one
	OtherFiles     int
}

// NewDirectory creates a Directory and orders the given old plots oldest first
func NewDirectory(path string, capacity, free int64, oldPlots []PlotFile) *Directory {
	d := &Directory{
		Path:     path,
		Capacity: capacity,
		Free:     free,
		OldPlots: append([]PlotFile(nil), oldPlots...),
	}
	d.SortOldPlots()
	return d
}

// SortOldPlots orders old plots by creation time, ties broken by path
func (d *Directory) SortOldPlots() {
	sort.SliceStable(d.OldPlots, func(i, j int) bool {
		return d.OldPlots[i].OlderThan(d.OldPlots[j])
	})
}

// OldPlotCount returns the number of old plots still on record
func (d *Directory) OldPlotCount() int {
	return len(d.OldPlots)
}

// HasOldPlots returns true if at least one old plot remains
func (d *Directory) HasOldPlots() bool {
	return len(d.OldPlots) > 0
}

// Oldest returns the next old plot to reclaim
func (d *Directory) Oldest() (PlotFile, bool) {
	if len(d.OldPlots) == 0 {
		return PlotFile{}, false
	}
	return d.OldPlots[0], true
}

// PopOldest removes the oldest old plot from the record
func (d *Directory) PopOldest() (PlotFile, bool) {
	p, ok := d.Oldest()
	if ok {
		d.OldPlots = d.OldPlots[1:]
	}
	return p, ok
}

// RecordNewPlot counts a new plot and remembers its size
func (d *Directory) RecordNewPlot(size int64) {
	d.NewPlots++
	if size > d.LargestNewPlot {
		d.LargestNewPlot = size
	}
}

// HasSpaceFor returns true if the free bytes cover required
func (d *Directory) HasSpaceFor(required int64) bool {
	return d.Free >= required
}

// OldPlotBytes returns the total size of the old plots on record
func (d *Directory) OldPlotBytes() int64 {
	var total int64
	for _, p := range d.OldPlots {
		total += p.Size
	}
	return total
}
