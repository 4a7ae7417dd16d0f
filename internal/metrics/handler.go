package metrics

import (
	"github.com/vertextoedge/plots-begone/internal/domain/event"
)

// Handler keeps the metrics current from domain events
type Handler struct {
	m *Metrics
}

// NewHandler creates a new metrics Handler
func NewHandler(m *Metrics) *Handler {
	return &Handler{m: m}
}

// Handle processes the event
func (h *Handler) Handle(e event.DomainEvent) error {
	switch ev := e.(type) {
	case event.PlotReclaimed:
		h.m.PlotsReclaimed.WithLabelValues(ev.Directory).Inc()
		h.m.BytesReclaimed.WithLabelValues(ev.Directory).Add(float64(ev.Size))
		h.m.FreeBytes.WithLabelValues(ev.Directory).Set(float64(ev.FreeAfter))
	case event.PlotGone:
		h.m.PlotsGone.Inc()
	case event.ReclaimFailed:
		h.m.ReclaimFailures.WithLabelValues(ev.Directory).Inc()
	case event.NewPlotDetected:
		h.m.NewPlots.WithLabelValues(ev.Directory).Inc()
	case event.EventIgnored:
		h.m.IgnoredEvents.WithLabelValues(ev.Reason).Inc()
	case event.IndexBuilt:
		h.m.RequiredBytes.Set(float64(ev.RequiredBytes))
		h.setMembership(ev.Membership)
	case event.DirectoryRotated:
		h.m.Rotations.Inc()
		h.setMembership(ev.Membership)
	}
	return nil
}

func (h *Handler) setMembership(m event.Membership) {
	h.m.DirectoriesByRole.WithLabelValues("indexed").Set(float64(m.Indexed))
	h.m.DirectoriesByRole.WithLabelValues("candidate").Set(float64(m.Candidates))
	h.m.DirectoriesByRole.WithLabelValues("spent").Set(float64(m.Spent))
}

// HandledEvents returns the event names this handler handles
func (h *Handler) HandledEvents() []string {
	return []string{
		event.NamePlotReclaimed,
		event.NamePlotGone,
		event.NameReclaimFailed,
		event.NameNewPlotDetected,
		event.NameEventIgnored,
		event.NameIndexBuilt,
		event.NameDirectoryRotated,
	}
}
