package event

import (
	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/domain/vo"
)

// LoggingHandler writes the operator-facing record of every event
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handle logs the event
func (h *LoggingHandler) Handle(event DomainEvent) error {
	switch e := event.(type) {
	case PlotReclaimed:
		h.logger.Info("removed old plot",
			zap.String("directory", e.Directory),
			zap.String("path", e.Path),
			zap.Int64("bytes_freed", e.Size),
			zap.String("freed", vo.HumanBytes(e.Size)),
			zap.Time("plot_created_at", e.PlotTime),
			zap.String("free_after", vo.HumanBytes(e.FreeAfter)),
		)
	case PlotGone:
		h.logger.Info("old plot already gone, skipping",
			zap.String("directory", e.Directory),
			zap.String("path", e.Path),
		)
	case ReclaimFailed:
		h.logger.Error("failed to remove old plot",
			zap.String("directory", e.Directory),
			zap.String("path", e.Path),
			zap.String("error", e.Error),
		)
	case NewPlotDetected:
		h.logger.Info("new plot",
			zap.String("directory", e.Directory),
			zap.String("path", e.Path),
			zap.Int64("size", e.Size),
		)
	case EventIgnored:
		h.logger.Info("plot dir not indexed, skipping",
			zap.String("directory", e.Directory),
			zap.String("path", e.Path),
			zap.String("reason", e.Reason),
		)
	case IndexBuilt:
		h.logger.Info("index built",
			zap.Strings("indexed", e.IndexedDirs),
			zap.Int("required_drives", e.ReserveRequired),
			zap.Int("candidates", e.Candidates),
			zap.Int("spent", e.Spent),
			zap.String("new_plot_size", vo.HumanBytes(e.RequiredBytes)),
		)
	case DirectoryRotated:
		if e.Promoted == "" {
			h.logger.Warn("plot dir has no old plots left and no replacement is available",
				zap.String("demoted", e.Demoted),
				zap.Int("indexed", e.Indexed),
				zap.Int("spent", e.Spent),
			)
			break
		}
		h.logger.Info("plot dir has no old plots left, replaced",
			zap.String("demoted", e.Demoted),
			zap.String("promoted", e.Promoted),
			zap.Int("indexed", e.Indexed),
			zap.Int("candidates", e.Candidates),
		)
	default:
		h.logger.Debug("domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (h *LoggingHandler) HandledEvents() []string {
	return []string{"*"} // Handle all events
}
