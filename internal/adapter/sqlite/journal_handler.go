package sqlite

import (
	"fmt"

	"github.com/vertextoedge/plots-begone/internal/domain/event"
	"github.com/vertextoedge/plots-begone/internal/port"
)

// JournalHandler writes reclaim and rotation events to the journal
type JournalHandler struct {
	journal port.Journal
	runID   string
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journal port.Journal, runID string) *JournalHandler {
	return &JournalHandler{journal: journal, runID: runID}
}

// Handle processes the event
func (h *JournalHandler) Handle(e event.DomainEvent) error {
	switch ev := e.(type) {
	case event.PlotReclaimed:
		if err := h.journal.RecordReclaim(&port.ReclaimRecord{
			RunID:     h.runID,
			Directory: ev.Directory,
			Path:      ev.Path,
			Size:      ev.Size,
			PlotTime:  ev.PlotTime,
			DeletedAt: ev.OccurredAt(),
		}); err != nil {
			return fmt.Errorf("failed to journal reclaim of %s: %w", ev.Path, err)
		}
	case event.DirectoryRotated:
		if err := h.journal.RecordRotation(&port.RotationRecord{
			RunID:     h.runID,
			Demoted:   ev.Demoted,
			Promoted:  ev.Promoted,
			RotatedAt: ev.OccurredAt(),
		}); err != nil {
			return fmt.Errorf("failed to journal rotation of %s: %w", ev.Demoted, err)
		}
	}
	return nil
}

// HandledEvents returns the event names this handler handles
func (h *JournalHandler) HandledEvents() []string {
	return []string{event.NamePlotReclaimed, event.NameDirectoryRotated}
}
