package keeper

import (
	"errors"
	"io/fs"

	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/domain"
	"github.com/vertextoedge/plots-begone/internal/domain/event"
	"github.com/vertextoedge/plots-begone/internal/port"
)

// Outcome is the result of one reclaim pass over a directory
type Outcome int

const (
	OutcomeSatisfied Outcome = iota // Free space covers the requirement
	OutcomeExhausted                // Short on space and no old plots left
	OutcomeDegraded                 // Short on space after a failed deletion
	OutcomeSkipped                  // Requirement unknown, nothing attempted
)

// String returns a human-readable name for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSatisfied:
		return "satisfied"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeDegraded:
		return "degraded"
	default:
		return "skipped"
	}
}

// ReclaimResult summarizes a reclaim pass
type ReclaimResult struct {
	Outcome    Outcome
	Deleted    int
	BytesFreed int64
	Gone       int
}

// Reclaimer deletes old plots, oldest first, until a directory has room
// for the next new plot
type Reclaimer struct {
	fs     port.FileSystem
	events event.EventDispatcher
	logger *zap.Logger
}

// NewReclaimer creates a new Reclaimer
func NewReclaimer(fs port.FileSystem, events event.EventDispatcher, logger *zap.Logger) *Reclaimer {
	if events == nil {
		events = event.NewNullDispatcher()
	}
	return &Reclaimer{
		fs:     fs,
		events: events,
		logger: logger,
	}
}

// EnsureSpace deletes old plots from d until its free bytes reach required.
//
// Free bytes are refreshed from disk first and then grow by the size of each
// deleted plot. A plot that already vanished is dropped from the record and
// the pass goes on. Any other deletion failure drops the plot from the record
// and ends the pass.
func (r *Reclaimer) EnsureSpace(d *domain.Directory, required int64) ReclaimResult {
	var result ReclaimResult
	if required <= 0 {
		result.Outcome = OutcomeSkipped
		return result
	}

	r.refreshFree(d)

	for !d.HasSpaceFor(required) {
		plot, ok := d.PopOldest()
		if !ok {
			break
		}

		err := r.fs.DeleteFile(plot.Path)
		switch {
		case err == nil:
			before := d.Free
			d.Free += plot.Size
			result.Deleted++
			result.BytesFreed += plot.Size
			r.events.Dispatch(event.NewPlotReclaimed(d.Path, plot.Path, plot.Size, plot.CreatedAt, before, d.Free))

		case errors.Is(err, fs.ErrNotExist):
			result.Gone++
			r.logger.Debug("skipping reclaim candidate",
				zap.String("path", plot.Path),
				zap.Error(domain.ErrSkipPlotGone))
			r.events.Dispatch(event.NewPlotGone(d.Path, plot.Path))
			// Whoever removed it freed the space; pick that up before deleting more.
			r.refreshFree(d)

		default:
			r.events.Dispatch(event.NewReclaimFailed(d.Path, plot.Path, err))
			result.Outcome = OutcomeDegraded
			if !d.HasOldPlots() {
				result.Outcome = OutcomeExhausted
			}
			r.logResult(d, required, result)
			return result
		}
	}

	if d.HasSpaceFor(required) {
		result.Outcome = OutcomeSatisfied
	} else {
		result.Outcome = OutcomeExhausted
	}
	r.logResult(d, required, result)
	return result
}

func (r *Reclaimer) refreshFree(d *domain.Directory) {
	usage, err := r.fs.GetDiskUsage(d.Path)
	if err != nil {
		r.logger.Warn("failed to refresh free space, using last known value",
			zap.String("directory", d.Path),
			zap.Int64("free", d.Free),
			zap.Error(domain.NewTransientError(d.Path, err)))
		return
	}
	d.Free = int64(usage.Free)
	if usage.Total > 0 {
		d.Capacity = int64(usage.Total)
	}
}

func (r *Reclaimer) logResult(d *domain.Directory, required int64, result ReclaimResult) {
	fields := []zap.Field{
		zap.String("directory", d.Path),
		zap.String("outcome", result.Outcome.String()),
		zap.Int("deleted", result.Deleted),
		zap.Int64("bytes_freed", result.BytesFreed),
		zap.Int64("free", d.Free),
		zap.Int64("required", required),
		zap.Int("old_plots_left", d.OldPlotCount()),
	}

	switch result.Outcome {
	case OutcomeSatisfied:
		if result.Deleted > 0 || result.Gone > 0 {
			r.logger.Info("reclaim completed", fields...)
		} else {
			r.logger.Debug("plot dir already has room", fields...)
		}
	case OutcomeExhausted:
		r.logger.Warn("plot dir is out of old plots and still short on space", fields...)
	case OutcomeDegraded:
		r.logger.Warn("reclaim stopped after a failed deletion", fields...)
	}
}
